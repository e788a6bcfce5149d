// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package forward is the mediator forward-wrapping layer (spec
// §4.6/C6): nesting a prepared envelope in one or more anoncrypt JWM
// "forward" messages addressed to a chain of routing keys. Grounded on
// server/signing's event/service composition style — a small pipeline
// stage that wraps a prior result rather than owning any state of its
// own — generalized from signature-verification events to envelope
// wrapping. A local message/attachment shape is used here rather than
// the root package's Message type to avoid an import cycle (pack.go
// imports this package, not the other way around).
package forward

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jwk"
)

// MessageType is the JWM "type" value for a forward message.
const MessageType = "https://didcomm.org/routing/2.0/forward"

// Body is the forward message's body (spec §4.6: `{"next":
// "<next-kid-or-did>"}`).
type Body struct {
	Next string `json:"next"`
}

type attachmentData struct {
	JSON json.RawMessage `json:"json"`
}

type attachment struct {
	ID   string         `json:"id,omitempty"`
	Data attachmentData `json:"data"`
}

type message struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Body        json.RawMessage `json:"body"`
	Attachments []attachment    `json:"attachments"`
}

// RoutingKey is one hop in a forward chain: the key-agreement key the
// wrapper at this hop is anoncrypt-encrypted to, and its full DID-URL
// kid (the "next" value the enclosing wrapper will carry).
type RoutingKey struct {
	Kid string
	Key *jwk.Key
}

// Wrap nests envelope in one forward message per entry of routingKeys,
// innermost first (spec §4.6: "build nested forward messages from the
// innermost outward"). routingKeys must be ordered [r1, r2, ..., rn] as
// the wire will see them: the returned envelope is addressed to r1, and
// unwrapping it yields a forward message whose "next" is r2, and so on;
// the innermost forward's "next" is finalRecipient. Each wrapper is
// anoncrypt-encrypted using encAlg as its content-encryption algorithm.
func Wrap(envelope string, finalRecipient string, routingKeys []RoutingKey, encAlg string) (string, error) {
	if len(routingKeys) == 0 {
		return "", direrrors.New(direrrors.IllegalArgument, "forward wrapping requires at least one routing key")
	}

	current := envelope
	next := finalRecipient

	for i := len(routingKeys) - 1; i >= 0; i-- {
		rk := routingKeys[i]

		wrapped, err := wrapOnce(current, next, rk, encAlg)
		if err != nil {
			return "", err
		}

		current = wrapped
		next = rk.Kid
	}

	return current, nil
}

func wrapOnce(envelope, next string, routingKey RoutingKey, encAlg string) (string, error) {
	body, err := json.Marshal(Body{Next: next})
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode forward body")
	}

	innerJSON, err := json.Marshal(envelope)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode forward attachment")
	}

	msg := message{
		ID:   uuid.NewString(),
		Type: MessageType,
		Body: body,
		Attachments: []attachment{
			{ID: uuid.NewString(), Data: attachmentData{JSON: innerJSON}},
		},
	}

	plaintext, err := json.Marshal(msg)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode forward message")
	}

	jwe, err := anoncrypt.Encrypt(routingKey.Key.Crv, encAlg, []anoncrypt.Recipient{{Kid: routingKey.Kid, Key: routingKey.Key}}, plaintext)
	if err != nil {
		return "", err
	}

	return jwe.MarshalEnvelope()
}

// Parse inspects a decrypted plaintext JWM and reports whether it is a
// forward message (spec §4.9: "if the decrypted content is a forward
// JWM ... re-enter unpack on the inner envelope"). When ok is true, it
// returns the decoded Body and the inner envelope string carried in
// attachments[0].data.json.
func Parse(plaintext []byte) (body Body, innerEnvelope string, ok bool, err error) {
	var msg message
	if err := json.Unmarshal(plaintext, &msg); err != nil {
		return Body{}, "", false, direrrors.Wrap(direrrors.Malformed, err, "invalid forward message JSON")
	}

	if msg.Type != MessageType {
		return Body{}, "", false, nil
	}

	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return Body{}, "", false, direrrors.Wrap(direrrors.Malformed, err, "invalid forward message body")
	}

	if len(msg.Attachments) == 0 {
		return Body{}, "", false, direrrors.New(direrrors.Malformed, "forward message carries no attachments")
	}

	if err := json.Unmarshal(msg.Attachments[0].Data.JSON, &innerEnvelope); err != nil {
		return Body{}, "", false, direrrors.Wrap(direrrors.Malformed, err, "invalid forward attachment envelope")
	}

	return body, innerEnvelope, true, nil
}
