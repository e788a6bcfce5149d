// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package authcrypt is the authcrypt half of the encrypt engine (spec
// §4.5/C5): ECDH-1PU + A256KW key agreement, which authenticates the
// sender to every recipient without a separate signature. Only
// A256CBC-HS512 is a supported content-encryption algorithm under
// authcrypt (spec §4.5: "A256CBC-HS512 (only authcrypt content algorithm
// supported)").
package authcrypt

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

// EncAlg is the only content-encryption algorithm authcrypt supports.
const EncAlg = "A256CBC-HS512"

// Recipient is one target of an authcrypt JWE.
type Recipient struct {
	Kid string
	Key *jwk.Key
}

var b64 = base64.RawURLEncoding

func apv(kids []string) (raw []byte, encoded string) {
	sorted := append([]string(nil), kids...)
	sort.Strings(sorted)

	digest := sha256.Sum256([]byte(strings.Join(sorted, ".")))

	return digest[:], b64.EncodeToString(digest[:])
}

// Encrypt builds an authcrypt JWE of plaintext from sender (whose Kid is
// carried in apu) to recipients, all on sender.Key's curve (spec §4.5:
// "Curve must be consistent across recipients; X25519 and P-256 are the
// supported families").
func Encrypt(senderKid string, senderKey *jwk.Key, recipients []Recipient, plaintext []byte) (*jose.JWE, error) {
	if !senderKey.IsPrivate() {
		return nil, direrrors.New(direrrors.SecretNotFound, "authcrypt requires the sender's private key-agreement key")
	}

	if len(recipients) == 0 {
		return nil, direrrors.New(direrrors.IllegalArgument, "authcrypt requires at least one recipient")
	}

	ephemeral, err := generateEphemeral(senderKey.Crv)
	if err != nil {
		return nil, err
	}

	ephemeralPub := &jwk.Key{Crv: senderKey.Crv, Public: ephemeral.Public}

	epkJSON, err := ephemeralPub.MarshalJWK()
	if err != nil {
		return nil, err
	}

	kids := make([]string, len(recipients))
	for i, r := range recipients {
		kids[i] = r.Kid
	}

	apvRaw, apvEncoded := apv(kids)
	apuRaw := []byte(senderKid)
	apuEncoded := b64.EncodeToString(apuRaw)

	protected, err := jose.EncodeJWEProtectedHeader(jose.JWEProtectedHeader{
		Typ: jose.MediaTypeEncrypted,
		Alg: jose.AlgECDH1PUA256KW,
		Enc: EncAlg,
		APU: apuEncoded,
		APV: apvEncoded,
		Epk: epkJSON,
	})
	if err != nil {
		return nil, err
	}

	cekSize, err := contentenc.KeySize(EncAlg)
	if err != nil {
		return nil, err
	}

	cek := make([]byte, cekSize)
	if _, err := rand.Read(cek); err != nil {
		return nil, direrrors.Wrap(direrrors.IoError, err, "failed to generate content-encryption key")
	}

	jweRecipients := make([]jose.Recipient, len(recipients))

	for i, r := range recipients {
		if r.Key.Crv != senderKey.Crv {
			return nil, direrrors.New(direrrors.NoCompatibleCrypto, "recipient %s curve %s does not match sender curve %s", r.Kid, r.Key.Crv, senderKey.Crv)
		}

		kek, err := keyagreement.DeriveAuthcryptKEK(ephemeral, senderKey, r.Key, apuRaw, apvRaw)
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

	iv, ciphertext, tag, err := contentenc.Encrypt(EncAlg, cek, plaintext, jose.AAD(protected))
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

// Decrypt opens an authcrypt JWE for the recipient holding recipientKey,
// authenticating senderKey (the sender's static public key-agreement key,
// resolved by the caller from the envelope's apu) as the counterparty.
func Decrypt(envelope *jose.JWE, recipientKey, senderKey *jwk.Key) ([]byte, error) {
	if !recipientKey.IsPrivate() {
		return nil, direrrors.New(direrrors.SecretNotFound, "authcrypt decryption requires a private key-agreement key")
	}

	header, err := jose.DecodeJWEProtectedHeader(envelope.Protected)
	if err != nil {
		return nil, err
	}

	if header.Alg != jose.AlgECDH1PUA256KW {
		return nil, direrrors.New(direrrors.Malformed, "unexpected JWE alg %s for authcrypt", header.Alg)
	}

	ephemeralPub, err := jwk.ParseJWK(header.Epk)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid epk in authcrypt JWE")
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
		return nil, direrrors.New(direrrors.SecretNotFound, "recipient %s not present in authcrypt JWE", recipientKey.Kid)
	}

	apuRaw, err := b64.DecodeString(header.APU)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid apu encoding")
	}

	apvRaw, err := b64.DecodeString(header.APV)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid apv encoding")
	}

	kek, err := deriveRecipientSideKEK(recipientKey, ephemeralPub, senderKey, apuRaw, apvRaw)
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

// deriveRecipientSideKEK recomputes the same Ze||Zs the sender derived,
// from the recipient's own static private key against the ephemeral and
// sender public keys.
func deriveRecipientSideKEK(recipientStatic, ephemeralPub, senderPub *jwk.Key, apu, apv []byte) ([]byte, error) {
	ze, err := recipientStatic.ECDH(ephemeralPub)
	if err != nil {
		return nil, err
	}

	zs, err := recipientStatic.ECDH(senderPub)
	if err != nil {
		return nil, err
	}

	z := append(append([]byte{}, ze...), zs...)

	return keyagreement.ConcatKDF(z, []byte("ECDH-1PU+A256KW"), apu, apv, keyagreement.KeyWrapBits), nil
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
