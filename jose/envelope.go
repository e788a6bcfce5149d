// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"encoding/json"
	"strings"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// Kind identifies which of the three on-wire envelope shapes spec §4.6's
// unpack classifier sees: JWE, JWS, or plaintext JWM.
type Kind int

const (
	KindUnknown Kind = iota
	KindJWE
	KindJWS
	KindPlaintext
)

// ClassifyEnvelope inspects the outermost JSON of envelope and reports
// which wire shape it is, without fully decoding it (spec §4.6: "The
// pipeline inspects the outermost JSON to classify it as JWS, JWE, or
// plaintext JWM").
func ClassifyEnvelope(envelope string) (Kind, error) {
	trimmed := strings.TrimSpace(envelope)

	if !strings.HasPrefix(trimmed, "{") {
		// Only a compact JWS is ever a non-JSON-object wire string.
		if strings.Count(trimmed, ".") == 2 {
			return KindJWS, nil
		}

		return KindUnknown, direrrors.New(direrrors.Malformed, "envelope is neither a JSON object nor a compact JWS")
	}

	var head struct {
		Ciphertext *string `json:"ciphertext"`
		Signatures *json.RawMessage `json:"signatures"`
		Typ        *string `json:"typ"`
	}

	if err := json.Unmarshal([]byte(trimmed), &head); err != nil {
		return KindUnknown, direrrors.Wrap(direrrors.Malformed, err, "invalid envelope JSON")
	}

	switch {
	case head.Ciphertext != nil:
		return KindJWE, nil
	case head.Signatures != nil:
		return KindJWS, nil
	case head.Typ != nil && *head.Typ == "application/didcomm-plain+json":
		return KindPlaintext, nil
	default:
		return KindPlaintext, nil
	}
}
