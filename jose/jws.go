// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"encoding/json"
	"strings"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// MediaTypeSigned is the JWS "typ" value a DIDComm signed envelope always
// carries (spec §4.4/§5).
const MediaTypeSigned = "application/didcomm-signed+json"

// JWSProtectedHeader is the JWS protected header spec §4.4 fixes: a
// media type tag, the signing algorithm, and the full DID-URL of the
// signing key. Field order is the struct's declaration order, giving a
// deterministic protected-header encoding.
type JWSProtectedHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// Signature is one entry of a (possibly multi-signature) JWS.
type Signature struct {
	Protected string `json:"protected"`
	Header    map[string]any `json:"header,omitempty"`
	Signature string `json:"signature"`
}

// JWS is this module's in-memory form of a JSON Web Signature, covering
// both the compact and general-JSON wire serializations (spec §4.3).
type JWS struct {
	Payload    string      `json:"payload"`
	Signatures []Signature `json:"signatures"`
}

// EncodeProtectedHeader base64url-encodes a JWSProtectedHeader for alg/kid.
func EncodeProtectedHeader(alg, kid string) (string, error) {
	h := JWSProtectedHeader{Typ: MediaTypeSigned, Alg: alg, Kid: kid}

	raw, err := json.Marshal(h)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode JWS protected header")
	}

	return encode(raw), nil
}

// DecodeProtectedHeader decodes a base64url JWS protected header.
func DecodeProtectedHeader(b64 string) (*JWSProtectedHeader, error) {
	raw, err := decode(b64)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWS protected header encoding")
	}

	var h JWSProtectedHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWS protected header JSON")
	}

	return &h, nil
}

// SigningInput builds the byte sequence that gets signed (or verified):
// ASCII(b64u(protected)) || '.' || ASCII(b64u(payload)) (spec §4.4).
func SigningInput(protectedB64, payloadB64 string) []byte {
	return []byte(protectedB64 + "." + payloadB64)
}

// EncodePayload base64url-encodes a JWS payload.
func EncodePayload(payload []byte) string { return encode(payload) }

// NewJWS builds a JWS wrapper around an already-encoded payload and one
// or more already-computed Signature entries.
func NewJWS(payloadB64 string, sigs []Signature) *JWS {
	return &JWS{Payload: payloadB64, Signatures: sigs}
}

// MarshalCompact renders j in the JWS Compact Serialization. Only valid
// for exactly one signature (spec §4.3: "JWS is emitted in compact form
// when exactly one signature is produced").
func (j *JWS) MarshalCompact() (string, error) {
	if len(j.Signatures) != 1 {
		return "", direrrors.New(direrrors.InvalidState, "compact JWS requires exactly one signature, got %d", len(j.Signatures))
	}

	sig := j.Signatures[0]

	return sig.Protected + "." + j.Payload + "." + sig.Signature, nil
}

// generalJWS is the wire shape of the JWS General JSON Serialization.
type generalJWS struct {
	Payload    string      `json:"payload"`
	Signatures []Signature `json:"signatures"`
}

// MarshalJSON renders j in the JWS General JSON Serialization (used when
// j carries more than one signature; callers that always want the
// general form regardless of signature count can call this directly).
func (j *JWS) MarshalJSON() ([]byte, error) {
	return json.Marshal(generalJWS{Payload: j.Payload, Signatures: j.Signatures})
}

// MarshalEnvelope renders j as the on-wire envelope string spec §4.3
// describes: compact form for a single signature, general-JSON
// otherwise.
func (j *JWS) MarshalEnvelope() (string, error) {
	if len(j.Signatures) == 1 {
		return j.MarshalCompact()
	}

	raw, err := j.MarshalJSON()
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode general JWS")
	}

	return string(raw), nil
}

// ParseJWS decodes an on-wire JWS envelope, recognizing both the compact
// ("protected.payload.signature") and general-JSON forms.
func ParseJWS(envelope string) (*JWS, error) {
	trimmed := strings.TrimSpace(envelope)

	if strings.HasPrefix(trimmed, "{") {
		var g generalJWS
		if err := json.Unmarshal([]byte(trimmed), &g); err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid general JWS JSON")
		}

		if len(g.Signatures) == 0 {
			return nil, direrrors.New(direrrors.Malformed, "general JWS carries no signatures")
		}

		return &JWS{Payload: g.Payload, Signatures: g.Signatures}, nil
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return nil, direrrors.New(direrrors.Malformed, "compact JWS must have exactly three dot-separated parts")
	}

	return &JWS{
		Payload:    parts[1],
		Signatures: []Signature{{Protected: parts[0], Signature: parts[2]}},
	}, nil
}
