// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"encoding/hex"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// ParseHex decodes a publicKeyHex member (spec §3/§6 Hex verification
// material variant). The curve, like Base58, comes from the verification
// method's type tag rather than an embedded prefix.
func ParseHex(kid string, crv Curve, s string) (*Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid hex public key")
	}

	return keyFromPublicBytes(kid, crv, raw)
}

// EncodeHex encodes k's public key as a lowercase hex string.
func EncodeHex(k *Key) (string, error) {
	raw, err := rawPublicKeyBytes(k)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}
