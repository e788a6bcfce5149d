// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package secrets is the private-key counterpart to package did (spec
// §4.2): the Secret type and Resolver capability interface.
package secrets

import (
	"context"
	"encoding/json"

	"github.com/didcommx/didcomm-go/did"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jwk"
)

// Secret is identical in shape to a did.VerificationMethod but holds
// private material. Its ID is always a DID-URL.
type Secret struct {
	ID         string
	Type       did.VerificationMethodType
	Controller string

	PrivateKeyJwk       json.RawMessage
	PrivateKeyMultibase string
	PrivateKeyBase58    string
	PrivateKeyHex       string
}

// Resolver is the Secrets Resolver capability interface (spec §4.2).
type Resolver interface {
	// GetSecret returns the secret for kid, or (nil, nil) if it is not
	// held (SecretNotFound is represented by absence, not an error).
	GetSecret(ctx context.Context, kid string) (*Secret, error)

	// FindSecrets returns the subset of candidateKids actually held,
	// without materializing private key objects for them. This lets the
	// unpack pipeline pick which recipient key to decrypt for without
	// loading private material it will not use.
	FindSecrets(ctx context.Context, candidateKids []string) ([]string, error)
}

// ResolveKey converts s's private material into this module's internal
// key representation. Only the PrivateKeyJwk variant is converted; a
// secret carrying only Multibase, Base58 or Hex material yields
// Unsupported.
func ResolveKey(s *Secret) (*jwk.Key, error) {
	switch {
	case len(s.PrivateKeyJwk) > 0:
		key, err := jwk.ParseJWK(s.PrivateKeyJwk)
		if err != nil {
			return nil, err
		}

		if !key.IsPrivate() {
			return nil, direrrors.New(direrrors.Malformed, "secret %s JWK carries no private component", s.ID)
		}

		key.Kid = s.ID

		return key, nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "secret %s carries no supported private material", s.ID)
	}
}
