// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/multiformats/go-multibase"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// ParseMultibase decodes a publicKeyMultibase member (spec §3/§6
// Multibase verification-material variant): a multibase-prefixed,
// multicodec-prefixed public key, as used by the
// X25519KeyAgreementKey2020/Ed25519VerificationKey2020 verification
// method types and did:key identifiers. Grounded on
// server/authn/did.go's decodeMultibase, generalized from a
// base58btc-only special case to the full multibase+multicodec pair via
// multiformats/go-multibase.
func ParseMultibase(kid, s string) (*Key, error) {
	_, raw, err := multibase.Decode(s)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid multibase string")
	}

	crv, keyBytes, err := stripMulticodecPrefix(raw)
	if err != nil {
		return nil, err
	}

	return keyFromPublicBytes(kid, crv, keyBytes)
}

// EncodeMultibase encodes k's public key as a base58btc multibase string
// with its multicodec prefix, the did:key convention.
func EncodeMultibase(k *Key) (string, error) {
	raw, err := rawPublicKeyBytes(k)
	if err != nil {
		return "", err
	}

	prefixed, err := addMulticodecPrefix(k.Crv, raw)
	if err != nil {
		return "", err
	}

	return multibase.Encode(multibase.Base58BTC, prefixed)
}

func rawPublicKeyBytes(k *Key) ([]byte, error) {
	switch pub := k.Public.(type) {
	case ed25519.PublicKey:
		return pub, nil
	case *ecdh.PublicKey:
		return pub.Bytes(), nil
	case *secp256k1.PublicKey:
		return pub.SerializeCompressed(), nil
	case *ecdsa.PublicKey:
		if k.Crv != CurveSecp256k1 {
			return nil, direrrors.New(direrrors.Unsupported, "unsupported public key curve %s for *ecdsa.PublicKey", k.Crv)
		}

		return compressSecp256k1Point(pub), nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported public key type %T", k.Public)
	}
}

// compressSecp256k1Point applies the standard SEC1 point-compression
// encoding (0x02/0x03 prefix by Y parity, followed by X) to an
// *ecdsa.PublicKey reconstructed from a secp256k1 JWK or secret.
func compressSecp256k1Point(pub *ecdsa.PublicKey) []byte {
	x := padBigInt(pub.X, 32)

	prefix := byte(0x02)
	if pub.Y.Bit(0) == 1 {
		prefix = 0x03
	}

	return append([]byte{prefix}, x...)
}

// keyFromPublicBytes builds a public-only Key from raw key material and
// its curve, used by the Multibase/Base58/Hex decoders which carry no
// JWK "kty"/"crv" framing of their own.
func keyFromPublicBytes(kid string, crv Curve, raw []byte) (*Key, error) {
	k := &Key{Kid: kid, Crv: crv}

	switch crv {
	case CurveEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, direrrors.New(direrrors.Malformed, "invalid ed25519 public key length %d", len(raw))
		}

		k.Kty = KeyTypeOKP
		k.Public = ed25519.PublicKey(raw)
	case CurveX25519:
		pub, err := ecdh.X25519().NewPublicKey(raw)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 public key")
		}

		k.Kty = KeyTypeOKP
		k.Public = pub
	case CurveP256:
		pub, err := ecdh.P256().NewPublicKey(raw)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid P-256 public key")
		}

		k.Kty = KeyTypeEC
		k.Public = pub
	case CurveSecp256k1:
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 public key")
		}

		k.Kty = KeyTypeEC
		k.Public = pub.ToECDSA()
	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported curve %s", crv)
	}

	return k, nil
}
