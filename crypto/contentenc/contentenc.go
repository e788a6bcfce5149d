// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package contentenc is the content-encryption half of the encrypt
// engine (spec §4.5/C5): the three "enc" algorithms a JWE's ciphertext
// can be produced under (A256CBC-HS512 for authcrypt; A256CBC-HS512,
// XC20P, or A256GCM for anoncrypt), each framed as a cipher.AEAD so the
// JWE assembly code in crypto/anoncrypt and crypto/authcrypt doesn't need
// per-algorithm branching beyond key size and tag length. Grounded on the
// aries-framework-go authcrypt package's C20P/XC20P constant pair,
// generalized to the spec's algorithm set, with A256CBC-HS512 delegated
// to go-jose/v4/cipher (the corpus's JOSE library) rather than
// hand-rolled CBC+HMAC composition.
package contentenc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	josecipher "github.com/go-jose/go-jose/v4/cipher"
	"golang.org/x/crypto/chacha20poly1305"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// Key sizes, in bytes, per content-encryption algorithm.
const (
	KeySizeA256CBCHS512 = 64
	KeySizeXC20P        = chacha20poly1305.KeySize
	KeySizeA256GCM      = 32
)

// newAEAD builds the cipher.AEAD for enc and reports its authentication
// tag length (the suffix Seal appends that this package's callers must
// split off into the JWE's separate "tag" member).
func newAEAD(enc string, key []byte) (cipher.AEAD, int, error) {
	switch enc {
	case "A256CBC-HS512":
		if len(key) != KeySizeA256CBCHS512 {
			return nil, 0, direrrors.New(direrrors.Malformed, "A256CBC-HS512 requires a %d-byte key, got %d", KeySizeA256CBCHS512, len(key))
		}

		aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
		if err != nil {
			return nil, 0, direrrors.Wrap(direrrors.InvalidState, err, "failed to build A256CBC-HS512 cipher")
		}

		return aead, 32, nil

	case "XC20P":
		if len(key) != KeySizeXC20P {
			return nil, 0, direrrors.New(direrrors.Malformed, "XC20P requires a %d-byte key, got %d", KeySizeXC20P, len(key))
		}

		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, 0, direrrors.Wrap(direrrors.InvalidState, err, "failed to build XC20P cipher")
		}

		return aead, chacha20poly1305.Overhead, nil

	case "A256GCM":
		if len(key) != KeySizeA256GCM {
			return nil, 0, direrrors.New(direrrors.Malformed, "A256GCM requires a %d-byte key, got %d", KeySizeA256GCM, len(key))
		}

		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, 0, direrrors.Wrap(direrrors.InvalidState, err, "failed to build AES block cipher")
		}

		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, 0, direrrors.Wrap(direrrors.InvalidState, err, "failed to build A256GCM cipher")
		}

		return aead, aead.Overhead(), nil

	default:
		return nil, 0, direrrors.New(direrrors.Unsupported, "unsupported content-encryption algorithm %s", enc)
	}
}

// Encrypt seals plaintext under the content-encryption algorithm enc
// with key and aad, returning the IV and split ciphertext/tag the JWE
// general-JSON serialization requires.
func Encrypt(enc string, key, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	aead, tagLen, err := newAEAD(enc, key)
	if err != nil {
		return nil, nil, nil, err
	}

	iv = make([]byte, aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, direrrors.Wrap(direrrors.IoError, err, "failed to generate IV")
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - tagLen

	return iv, sealed[:split], sealed[split:], nil
}

// Decrypt reverses Encrypt. Any authentication failure is reported as
// Malformed, never a lower-level cipher error (spec §4.9).
func Decrypt(enc string, key, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	aead, _, err := newAEAD(enc, key)
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "content decryption failed")
	}

	return plaintext, nil
}

// KeySize returns the CEK length, in bytes, enc requires.
func KeySize(enc string) (int, error) {
	switch enc {
	case "A256CBC-HS512":
		return KeySizeA256CBCHS512, nil
	case "XC20P":
		return KeySizeXC20P, nil
	case "A256GCM":
		return KeySizeA256GCM, nil
	default:
		return 0, direrrors.New(direrrors.Unsupported, "unsupported content-encryption algorithm %s", enc)
	}
}
