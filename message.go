// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package didcomm is the pack/unpack pipeline (spec §4.6-4.8/C8-C9): the
// plaintext Message type, and the top-level Pack/Unpack entry points that
// tie together jwk, did, secrets, jose, and the crypto/* subpackages.
// Grounded on server/server.go's top-level orchestration style, adapted
// from a long-lived gRPC server loop to a pair of stateless, one-shot
// pipeline calls (spec §3 Lifecycle: "All core objects are value objects
// produced, consumed, and discarded within one pack or unpack call").
package didcomm

import (
	"encoding/json"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// MediaTypePlaintext is the JWM "typ" value spec §3/§5 fixes for an
// unencrypted, unsigned DIDComm message.
const MediaTypePlaintext = "application/didcomm-plain+json"

// Attachment is one entry of a Message's attachments list (spec §3).
// Exactly one of Base64, JSON, or Links must be set.
type Attachment struct {
	ID          string         `json:"id,omitempty"`
	Description string         `json:"description,omitempty"`
	MediaType   string         `json:"media_type,omitempty"`
	Filename    string         `json:"filename,omitempty"`
	Data        AttachmentData `json:"data"`
}

// AttachmentData carries one of the three attachment data variants spec
// §3 names: inline base64, inline JSON, or an external link with a
// required content hash.
type AttachmentData struct {
	Base64 string          `json:"base64,omitempty"`
	JSON   json.RawMessage `json:"json,omitempty"`
	Links  []string        `json:"links,omitempty"`
	Hash   string          `json:"hash,omitempty"`

	// JWS is a detached JWS over Base64/JSON/the hashed link content,
	// which spec §3 allows each attachment to optionally carry.
	JWS json.RawMessage `json:"jws,omitempty"`
}

// Validate reports whether a has exactly one data variant set, as spec
// §3 requires.
func (a Attachment) Validate() error {
	variants := 0
	if a.Data.Base64 != "" {
		variants++
	}

	if len(a.Data.JSON) > 0 {
		variants++
	}

	if len(a.Data.Links) > 0 {
		variants++
	}

	if variants != 1 {
		return direrrors.New(direrrors.Malformed, "attachment %s must carry exactly one data variant, found %d", a.ID, variants)
	}

	if len(a.Data.Links) > 0 && a.Data.Hash == "" {
		return direrrors.New(direrrors.Malformed, "attachment %s with external links requires a content hash", a.ID)
	}

	return nil
}

// Message is the plaintext JWM payload (spec §3 "Message (plaintext
// DIDComm)"). Headers is an open map for any additional, non-reserved
// header the caller wants to carry; reserved fields are not duplicated
// into it.
type Message struct {
	ID          string          `json:"id"`
	Typ         string          `json:"typ,omitempty"`
	Type        string          `json:"type"`
	Body        json.RawMessage `json:"body"`
	From        string          `json:"from,omitempty"`
	To          []string        `json:"to,omitempty"`
	Thid        string          `json:"thid,omitempty"`
	Pthid       string          `json:"pthid,omitempty"`
	CreatedTime *int64          `json:"created_time,omitempty"`
	ExpiresTime *int64          `json:"expires_time,omitempty"`
	FromPrior   string          `json:"from_prior,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Headers     map[string]any  `json:"-"`
}

// MarshalJSON re-serializes m with Go's encoding/json, merging Headers
// into the top-level object. This module does not preserve a caller's
// original byte form across a pack/unpack round trip (spec §9 Open
// Question: the source's canonical-JSON rule for the JWM payload is not
// specified); cross-implementation interop relies on both sides
// tolerating key-order-insensitive re-serialization.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message

	base, err := json.Marshal(alias(m))
	if err != nil {
		return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to encode message")
	}

	if len(m.Headers) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to merge message headers")
	}

	for k, v := range m.Headers {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to encode header %s", k)
		}

		merged[k] = encoded
	}

	return json.Marshal(merged)
}

// UnmarshalJSON decodes a plaintext JWM, collecting any member not part
// of Message's reserved field set into Headers.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return direrrors.Wrap(direrrors.Malformed, err, "invalid message JSON")
	}

	*m = Message(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return direrrors.Wrap(direrrors.Malformed, err, "invalid message JSON")
	}

	reserved := map[string]bool{
		"id": true, "typ": true, "type": true, "body": true, "from": true,
		"to": true, "thid": true, "pthid": true, "created_time": true,
		"expires_time": true, "from_prior": true, "attachments": true,
	}

	for k, v := range raw {
		if reserved[k] {
			continue
		}

		if m.Headers == nil {
			m.Headers = map[string]any{}
		}

		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return direrrors.Wrap(direrrors.Malformed, err, "invalid header %s", k)
		}

		m.Headers[k] = decoded
	}

	return nil
}

// Validate checks the invariants spec §3 fixes on a Message independent
// of pack/unpack option state: typ (if set) matches the plaintext media
// type, and every attachment carries exactly one data variant.
func (m Message) Validate() error {
	if m.Typ != "" && m.Typ != MediaTypePlaintext {
		return direrrors.New(direrrors.Malformed, "message typ %q does not match %q", m.Typ, MediaTypePlaintext)
	}

	for _, a := range m.Attachments {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	return nil
}
