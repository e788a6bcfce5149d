// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package sign is the sign engine component (spec §4.4/C4): JWS
// production and verification, with algorithm selection driven by the
// signer's key type. The package exposes plain functions (AlgorithmFor,
// Sign, Verify) with no service struct or options. Grounded on
// server/signing/verify.go's algorithm-by-key-type dispatch, generalized
// from OCI artifact signing to JWS-over-JWM signing.
package sign

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
)

// Algorithm identifiers spec §4.4 fixes per signer key type.
const (
	AlgEdDSA  = "EdDSA"
	AlgES256  = "ES256"
	AlgES256K = "ES256K"
)

// AlgorithmFor returns the JWS "alg" implied by a signer key's curve
// (spec §4.4: "Ed25519 → EdDSA, P-256 → ES256, secp256k1 → ES256K").
func AlgorithmFor(crv jwk.Curve) (string, error) {
	switch crv {
	case jwk.CurveEd25519:
		return AlgEdDSA, nil
	case jwk.CurveP256:
		return AlgES256, nil
	case jwk.CurveSecp256k1:
		return AlgES256K, nil
	default:
		return "", direrrors.New(direrrors.Unsupported, "curve %s has no signing algorithm", crv)
	}
}

// Sign produces one JWS Signature entry over payload using key, whose
// Kid becomes the protected header's "kid" (spec §4.4: "kid (full
// DID-URL)").
func Sign(key *jwk.Key, payload []byte) (jose.Signature, error) {
	if !key.IsPrivate() {
		return jose.Signature{}, direrrors.New(direrrors.SecretNotFound, "signing key %s carries no private material", key.Kid)
	}

	alg, err := AlgorithmFor(key.Crv)
	if err != nil {
		return jose.Signature{}, err
	}

	protected, err := jose.EncodeProtectedHeader(alg, key.Kid)
	if err != nil {
		return jose.Signature{}, err
	}

	payloadB64 := jose.EncodePayload(payload)
	input := jose.SigningInput(protected, payloadB64)

	var sigBytes []byte

	switch key.Crv {
	case jwk.CurveEd25519:
		priv, ok := key.Private.(ed25519.PrivateKey)
		if !ok {
			return jose.Signature{}, direrrors.New(direrrors.InvalidState, "Ed25519 private key has unexpected type")
		}

		sigBytes = ed25519.Sign(priv, input)

	case jwk.CurveP256, jwk.CurveSecp256k1:
		priv, err := key.ECDSAPrivateKey()
		if err != nil {
			return jose.Signature{}, err
		}

		digest := sha256.Sum256(input)

		r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
		if err != nil {
			return jose.Signature{}, direrrors.Wrap(direrrors.IoError, err, "ECDSA signing failed")
		}

		sigBytes = rsConcat(r, s, fieldSize(priv.Curve))

	default:
		return jose.Signature{}, direrrors.New(direrrors.Unsupported, "unsupported signing curve %s", key.Crv)
	}

	return jose.Signature{Protected: protected, Signature: jose.EncodePayload(sigBytes)}, nil
}

// Verify checks sig against payload using key, resolved from the
// protected header's kid by the caller. Cryptographic failure is always
// reported as Malformed (spec §4.9: "Cryptographic verification failures
// are always Malformed").
func Verify(key *jwk.Key, payloadB64 string, sig jose.Signature) error {
	header, err := jose.DecodeProtectedHeader(sig.Protected)
	if err != nil {
		return err
	}

	input := jose.SigningInput(sig.Protected, payloadB64)

	sigBytes, err := base64.RawURLEncoding.DecodeString(sig.Signature)
	if err != nil {
		return direrrors.Wrap(direrrors.Malformed, err, "invalid signature encoding")
	}

	switch header.Alg {
	case AlgEdDSA:
		pub, ok := key.Public.(ed25519.PublicKey)
		if !ok {
			return direrrors.New(direrrors.Malformed, "EdDSA verification requires an Ed25519 public key")
		}

		if !ed25519.Verify(pub, input, sigBytes) {
			return direrrors.New(direrrors.Malformed, "EdDSA signature verification failed")
		}

	case AlgES256, AlgES256K:
		pub, err := key.ECDSAPublicKey()
		if err != nil {
			return direrrors.Wrap(direrrors.Malformed, err, "ECDSA verification requires an EC public key")
		}

		size := fieldSize(pub.Curve)
		if len(sigBytes) != 2*size {
			return direrrors.New(direrrors.Malformed, "signature has unexpected length %d", len(sigBytes))
		}

		r := new(big.Int).SetBytes(sigBytes[:size])
		s := new(big.Int).SetBytes(sigBytes[size:])

		digest := sha256.Sum256(input)

		if !ecdsa.Verify(pub, digest[:], r, s) {
			return direrrors.New(direrrors.Malformed, "ECDSA signature verification failed")
		}

	default:
		return direrrors.New(direrrors.Unsupported, "unsupported signature algorithm %s", header.Alg)
	}

	return nil
}

func rsConcat(r, s *big.Int, size int) []byte {
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])

	return out
}

func fieldSize(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}
