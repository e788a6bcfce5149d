// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// ECDSAPublicKey returns k's public material as a stdlib *ecdsa.PublicKey,
// for the signing algorithms (ES256, ES256K) that need it. P-256 keys are
// held internally as crypto/ecdh types (so jwk.ECDH can use them
// directly); this reconstructs the equivalent ecdsa point from the same
// curve coordinates. secp256k1 keys are already stored as *ecdsa.PublicKey.
func (k *Key) ECDSAPublicKey() (*ecdsa.PublicKey, error) {
	switch k.Crv {
	case CurveP256:
		pub, ok := k.Public.(*ecdh.PublicKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "P-256 public key is not *ecdh.PublicKey")
		}

		raw := pub.Bytes()
		if len(raw) != 65 || raw[0] != 0x04 {
			return nil, direrrors.New(direrrors.Malformed, "unexpected P-256 point encoding")
		}

		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(raw[1:33]),
			Y:     new(big.Int).SetBytes(raw[33:65]),
		}, nil
	case CurveSecp256k1:
		pub, ok := k.Public.(*ecdsa.PublicKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "secp256k1 public key is not *ecdsa.PublicKey")
		}

		return pub, nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "curve %s has no ECDSA public key form", k.Crv)
	}
}

// ECDSAPrivateKey mirrors ECDSAPublicKey for private material.
func (k *Key) ECDSAPrivateKey() (*ecdsa.PrivateKey, error) {
	pub, err := k.ECDSAPublicKey()
	if err != nil {
		return nil, err
	}

	switch k.Crv {
	case CurveP256:
		priv, ok := k.Private.(*ecdh.PrivateKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "P-256 private key is not *ecdh.PrivateKey")
		}

		return &ecdsa.PrivateKey{PublicKey: *pub, D: new(big.Int).SetBytes(priv.Bytes())}, nil
	case CurveSecp256k1:
		priv, ok := k.Private.(*ecdsa.PrivateKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "secp256k1 private key is not *ecdsa.PrivateKey")
		}

		return priv, nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "curve %s has no ECDSA private key form", k.Crv)
	}
}
