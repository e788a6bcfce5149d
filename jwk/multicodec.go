// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"encoding/binary"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// multicodec varint prefixes for the public-key codecs did:key and
// Multikey verification methods use (https://github.com/multiformats/multicodec).
const (
	codecEd25519Pub   = 0xed
	codecX25519Pub    = 0xec
	codecSecp256k1Pub = 0xe7
	codecP256Pub      = 0x1200
)

// stripMulticodecPrefix decodes the uvarint multicodec prefix from raw and
// returns the matching Curve along with the remaining key bytes.
func stripMulticodecPrefix(raw []byte) (Curve, []byte, error) {
	code, n := binary.Uvarint(raw)
	if n <= 0 {
		return "", nil, direrrors.New(direrrors.Malformed, "invalid multicodec varint prefix")
	}

	rest := raw[n:]

	switch code {
	case codecEd25519Pub:
		return CurveEd25519, rest, nil
	case codecX25519Pub:
		return CurveX25519, rest, nil
	case codecSecp256k1Pub:
		return CurveSecp256k1, rest, nil
	case codecP256Pub:
		return CurveP256, rest, nil
	default:
		return "", nil, direrrors.New(direrrors.Unsupported, "unsupported multicodec prefix 0x%x", code)
	}
}

func addMulticodecPrefix(crv Curve, raw []byte) ([]byte, error) {
	var code uint64

	switch crv {
	case CurveEd25519:
		code = codecEd25519Pub
	case CurveX25519:
		code = codecX25519Pub
	case CurveSecp256k1:
		code = codecSecp256k1Pub
	case CurveP256:
		code = codecP256Pub
	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported curve %s for multicodec encoding", crv)
	}

	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, code)

	return append(buf[:n], raw...), nil
}
