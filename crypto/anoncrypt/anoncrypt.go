// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package anoncrypt is the anoncrypt half of the encrypt engine (spec
// §4.5/C5): ECDH-ES + A256KW key agreement, with the sender's identity
// never appearing in the envelope. Grounded on aries-framework-go's
// jwe/authcrypt package shape, generalized to ECDH-ES and to the
// key-agreement/content-encryption algorithms spec §4.5 negotiates.
package anoncrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/didcommx/didcomm-go/crypto/contentenc"
	"github.com/didcommx/didcomm-go/crypto/keyagreement"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
)

// Recipient is one target of an anoncrypt JWE: a full DID-URL kid and
// the key-agreement public key it resolves to.
type Recipient struct {
	Kid string
	Key *jwk.Key
}

var b64 = base64.RawURLEncoding

// apv computes spec §4.3's "apv (b64u of SHA-256 over sorted
// concatenated recipient kids)", returning both the raw digest (the
// Concat KDF's PartyVInfo) and its base64url encoding (the header
// member).
func apv(kids []string) (raw []byte, encoded string) {
	sorted := append([]string(nil), kids...)
	sort.Strings(sorted)

	digest := sha256.Sum256([]byte(strings.Join(sorted, ".")))

	return digest[:], b64.EncodeToString(digest[:])
}

// Encrypt builds an anoncrypt JWE of plaintext to recipients, which must
// all resolve to key-agreement keys on the same curve (spec §4.5's
// key-agreement selection happens before this call; Encrypt trusts its
// caller already intersected curves).
func Encrypt(curve jwk.Curve, enc string, recipients []Recipient, plaintext []byte) (*jose.JWE, error) {
	if len(recipients) == 0 {
		return nil, direrrors.New(direrrors.IllegalArgument, "anoncrypt requires at least one recipient")
	}

	ephemeral, err := generateEphemeral(curve)
	if err != nil {
		return nil, err
	}

	ephemeralPub := &jwk.Key{Crv: curve, Public: ephemeral.Public}

	epkJSON, err := ephemeralPub.MarshalJWK()
	if err != nil {
		return nil, err
	}

	kids := make([]string, len(recipients))
	for i, r := range recipients {
		kids[i] = r.Kid
	}

	apvRaw, apvEncoded := apv(kids)

	protected, err := jose.EncodeJWEProtectedHeader(jose.JWEProtectedHeader{
		Typ: jose.MediaTypeEncrypted,
		Alg: jose.AlgECDHESA256KW,
		Enc: enc,
		APV: apvEncoded,
		Epk: epkJSON,
	})
	if err != nil {
		return nil, err
	}

	cekSize, err := contentenc.KeySize(enc)
	if err != nil {
		return nil, err
	}

	cek := make([]byte, cekSize)
	if _, err := rand.Read(cek); err != nil {
		return nil, direrrors.Wrap(direrrors.IoError, err, "failed to generate content-encryption key")
	}

	jweRecipients := make([]jose.Recipient, len(recipients))

	for i, r := range recipients {
		kek, err := keyagreement.DeriveAnoncryptKEK(ephemeral, r.Key, nil, apvRaw)
		if err != nil {
			return nil, err
		}

		wrapped, err := contentenc.WrapKey(kek, cek)
		if err != nil {
			return nil, err
		}

		jweRecipients[i] = jose.Recipient{
			Header:       jose.RecipientHeader{Kid: r.Kid},
			EncryptedKey: b64.EncodeToString(wrapped),
		}
	}

	iv, ciphertext, tag, err := contentenc.Encrypt(enc, cek, plaintext, jose.AAD(protected))
	if err != nil {
		return nil, err
	}

	return &jose.JWE{
		Protected:  protected,
		Recipients: jweRecipients,
		IV:         b64.EncodeToString(iv),
		Ciphertext: b64.EncodeToString(ciphertext),
		Tag:        b64.EncodeToString(tag),
	}, nil
}

// Decrypt opens an anoncrypt JWE for the recipient holding recipientKey,
// whose Kid must match one of envelope's recipient entries.
func Decrypt(envelope *jose.JWE, recipientKey *jwk.Key) ([]byte, error) {
	if !recipientKey.IsPrivate() {
		return nil, direrrors.New(direrrors.SecretNotFound, "anoncrypt decryption requires a private key-agreement key")
	}

	header, err := jose.DecodeJWEProtectedHeader(envelope.Protected)
	if err != nil {
		return nil, err
	}

	if header.Alg != jose.AlgECDHESA256KW {
		return nil, direrrors.New(direrrors.Malformed, "unexpected JWE alg %s for anoncrypt", header.Alg)
	}

	ephemeralPub, err := jwk.ParseJWK(header.Epk)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid epk in anoncrypt JWE")
	}

	var encryptedKey string

	found := false

	for _, r := range envelope.Recipients {
		if r.Header.Kid == recipientKey.Kid {
			encryptedKey = r.EncryptedKey
			found = true

			break
		}
	}

	if !found {
		return nil, direrrors.New(direrrors.SecretNotFound, "recipient %s not present in anoncrypt JWE", recipientKey.Kid)
	}

	apvRaw, err := b64.DecodeString(header.APV)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid apv encoding")
	}

	kek, err := keyagreement.DeriveAnoncryptKEK(recipientKey, ephemeralPub, nil, apvRaw)
	if err != nil {
		return nil, err
	}

	wrapped, err := b64.DecodeString(encryptedKey)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid encrypted_key encoding")
	}

	cek, err := contentenc.UnwrapKey(kek, wrapped)
	if err != nil {
		return nil, err
	}

	iv, err := b64.DecodeString(envelope.IV)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid iv encoding")
	}

	ciphertext, err := b64.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid ciphertext encoding")
	}

	tag, err := b64.DecodeString(envelope.Tag)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid tag encoding")
	}

	return contentenc.Decrypt(header.Enc, cek, iv, ciphertext, tag, jose.AAD(envelope.Protected))
}

func generateEphemeral(curve jwk.Curve) (*jwk.Key, error) {
	switch curve {
	case jwk.CurveX25519:
		return jwk.GenerateX25519()
	case jwk.CurveP256:
		return jwk.GenerateP256()
	default:
		return nil, direrrors.New(direrrors.NoCompatibleCrypto, "curve %s does not support key agreement", curve)
	}
}
