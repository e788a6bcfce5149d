// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"crypto/ecdh"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// ECDH computes the raw shared secret between k (which must hold private
// material) and peer's public material. Only X25519 and P-256 are
// supported, matching spec §4.5's key-agreement curve families.
func (k *Key) ECDH(peer *Key) ([]byte, error) {
	if !k.IsPrivate() {
		return nil, direrrors.New(direrrors.InvalidState, "ECDH requires private key material")
	}

	if k.Crv != peer.Crv {
		return nil, direrrors.New(direrrors.NoCompatibleCrypto, "mismatched curves %s/%s", k.Crv, peer.Crv)
	}

	switch k.Crv {
	case CurveX25519, CurveP256:
		priv, ok := k.Private.(*ecdh.PrivateKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "key agreement private material is not *ecdh.PrivateKey")
		}

		pub, ok := peer.Public.(*ecdh.PublicKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "peer key agreement material is not *ecdh.PublicKey")
		}

		secret, err := priv.ECDH(pub)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "ECDH computation failed")
		}

		return secret, nil
	default:
		return nil, direrrors.New(direrrors.NoCompatibleCrypto, "curve %s does not support key agreement", k.Crv)
	}
}

// PublicBytes returns the raw public key bytes of an X25519 key (the
// content of its JWK "x" member). Other curves are not handled and
// return Unsupported.
func (k *Key) PublicBytes() ([]byte, error) {
	switch k.Crv {
	case CurveX25519:
		pub, ok := k.Public.(*ecdh.PublicKey)
		if !ok {
			return nil, direrrors.New(direrrors.InvalidState, "not an X25519 public key")
		}

		return pub.Bytes(), nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "PublicBytes unsupported for curve %s", k.Crv)
	}
}
