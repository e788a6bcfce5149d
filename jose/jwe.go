// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"encoding/json"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// MediaTypeEncrypted is the JWE "typ" value a DIDComm encrypted envelope
// always carries (spec §4.5/§5).
const MediaTypeEncrypted = "application/didcomm-encrypted+json"

// Content-encryption and key-wrap algorithm identifiers spec §4.5 names.
const (
	AlgECDH1PUA256KW = "ECDH-1PU+A256KW"
	AlgECDHESA256KW  = "ECDH-ES+A256KW"

	EncA256CBCHS512 = "A256CBC-HS512"
	EncXC20P        = "XC20P"
	EncA256GCM      = "A256GCM"
)

// JWEProtectedHeader is the JWE protected header spec §4.3 describes.
// Field order is the struct's declaration order, for a deterministic
// protected-header encoding.
type JWEProtectedHeader struct {
	Typ string          `json:"typ"`
	Alg string          `json:"alg"`
	Enc string          `json:"enc"`
	APU string          `json:"apu,omitempty"`
	APV string          `json:"apv,omitempty"`
	Epk json.RawMessage `json:"epk,omitempty"`
}

// RecipientHeader carries the recipient's key identifier (spec §4.3:
// "recipients (array of {header: {kid}, encrypted_key})").
type RecipientHeader struct {
	Kid string `json:"kid"`
}

// Recipient is one entry of a JWE's recipients array.
type Recipient struct {
	Header       RecipientHeader `json:"header"`
	EncryptedKey string          `json:"encrypted_key"`
}

// JWE is this module's in-memory form of the JWE General JSON
// Serialization (spec §4.3: "JWE uses general-JSON serialization").
type JWE struct {
	Protected  string      `json:"protected"`
	Recipients []Recipient `json:"recipients"`
	IV         string      `json:"iv"`
	Ciphertext string      `json:"ciphertext"`
	Tag        string      `json:"tag"`
}

// EncodeJWEProtectedHeader base64url-encodes a JWEProtectedHeader.
func EncodeJWEProtectedHeader(h JWEProtectedHeader) (string, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode JWE protected header")
	}

	return encode(raw), nil
}

// DecodeJWEProtectedHeader decodes a base64url JWE protected header.
func DecodeJWEProtectedHeader(b64 string) (*JWEProtectedHeader, error) {
	raw, err := decode(b64)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWE protected header encoding")
	}

	var h JWEProtectedHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWE protected header JSON")
	}

	return &h, nil
}

// AAD returns the additional authenticated data the content-encryption
// step authenticates alongside the ciphertext: ASCII(b64u(protected))
// (mirroring JWS's SigningInput shape, spec §4.3/RFC 7516 §5.1).
func AAD(protectedB64 string) []byte { return []byte(protectedB64) }

// MarshalEnvelope renders e as the on-wire general-JSON JWE envelope string.
func (e *JWE) MarshalEnvelope() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode JWE")
	}

	return string(raw), nil
}

// ParseJWE decodes an on-wire general-JSON JWE envelope.
func ParseJWE(envelope string) (*JWE, error) {
	var e JWE
	if err := json.Unmarshal([]byte(envelope), &e); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWE JSON")
	}

	if len(e.Recipients) == 0 {
		return nil, direrrors.New(direrrors.Malformed, "JWE carries no recipients")
	}

	return &e, nil
}

// RecipientKids returns the kid of every recipient, in envelope order.
func (e *JWE) RecipientKids() []string {
	kids := make([]string, 0, len(e.Recipients))
	for _, r := range e.Recipients {
		kids = append(kids, r.Header.Kid)
	}

	return kids
}
