// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"github.com/mr-tron/base58"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// ParseBase58 decodes a publicKeyBase58 member (spec §3/§6 Base58
// verification-material variant, as used by
// Ed25519VerificationKey2018/X25519KeyAgreementKey2019). Unlike Multibase,
// Base58 verification methods carry no multicodec prefix, so the curve
// must come from the verification method's type tag.
func ParseBase58(kid string, crv Curve, s string) (*Key, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid base58 public key")
	}

	return keyFromPublicBytes(kid, crv, raw)
}

// EncodeBase58 encodes k's public key as a plain base58btc string with no
// multicodec prefix.
func EncodeBase58(k *Key) (string, error) {
	raw, err := rawPublicKeyBytes(k)
	if err != nil {
		return "", err
	}

	return base58.Encode(raw), nil
}
