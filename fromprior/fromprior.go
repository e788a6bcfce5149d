// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package fromprior is the from_prior rotation component (spec §4.7/C7):
// a compact JWS over a small DID-rotation claim set, issued by the old
// DID and pointing at the new one. Grounded on jose/jws.go's compact-JWS
// code — from_prior is, as spec §6 GLOSSARY notes, "just" a JWS whose
// payload happens to be a fixed claim set rather than a DIDComm message.
package fromprior

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/didcommx/didcomm-go/crypto/sign"
	"github.com/didcommx/didcomm-go/did"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/internal/logging"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
)

// Claims is the from_prior JWT payload (spec §4.7: "{iss, sub, aud?,
// exp?, nbf?, iat?, jti?}"). Iss is the old DID, Sub the new DID.
type Claims struct {
	Iss string `json:"iss"`
	Sub string `json:"sub"`
	Aud string `json:"aud,omitempty"`
	Exp *int64 `json:"exp,omitempty"`
	Nbf *int64 `json:"nbf,omitempty"`
	Iat *int64 `json:"iat,omitempty"`
	Jti string `json:"jti,omitempty"`
}

// Issue signs Claims into a compact JWS using issuerKey, an
// authentication key of claims.Iss (spec §4.7: "Signed by an
// authentication key of iss").
func Issue(claims Claims, issuerKey *jwk.Key) (string, error) {
	if claims.Iss == "" || claims.Sub == "" {
		return "", direrrors.New(direrrors.IllegalArgument, "from_prior requires both iss and sub")
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode from_prior claims")
	}

	sig, err := sign.Sign(issuerKey, payload)
	if err != nil {
		return "", err
	}

	j := jose.NewJWS(jose.EncodePayload(payload), []jose.Signature{sig})

	return j.MarshalCompact()
}

// Verify validates a from_prior compact JWS (spec §4.7's five steps):
// parses it, resolves iss, requires the JWT's kid to be an authentication
// key of iss, verifies the signature, and checks exp/nbf against now if
// present. Returns the decoded Claims and the authentication kid that
// verified them on success.
func Verify(ctx context.Context, compact string, resolver did.Resolver, now time.Time) (*Claims, string, error) {
	j, err := jose.ParseJWS(compact)
	if err != nil {
		return nil, "", err
	}

	if len(j.Signatures) != 1 {
		return nil, "", direrrors.New(direrrors.Malformed, "from_prior must carry exactly one signature")
	}

	sig := j.Signatures[0]

	header, err := jose.DecodeProtectedHeader(sig.Protected)
	if err != nil {
		return nil, "", err
	}

	payloadRaw, err := base64.RawURLEncoding.DecodeString(j.Payload)
	if err != nil {
		return nil, "", direrrors.Wrap(direrrors.Malformed, err, "invalid from_prior payload encoding")
	}

	var claims Claims
	if err := json.Unmarshal(payloadRaw, &claims); err != nil {
		return nil, "", direrrors.Wrap(direrrors.Malformed, err, "invalid from_prior claims JSON")
	}

	logging.FromContext(ctx).Debug("resolving from_prior issuer", "did", claims.Iss)

	doc, err := resolver.Resolve(ctx, claims.Iss)
	if err != nil {
		return nil, "", direrrors.Wrap(direrrors.DIDNotResolved, err, "failed to resolve from_prior issuer %s", claims.Iss)
	}

	if doc == nil {
		return nil, "", direrrors.New(direrrors.DIDNotResolved, "from_prior issuer %s did not resolve", claims.Iss)
	}

	authenticated := false

	for _, vm := range doc.AuthenticationMethods() {
		if vm.ID == header.Kid {
			authenticated = true

			key, err := did.ResolveKey(vm)
			if err != nil {
				return nil, "", err
			}

			if err := sign.Verify(key, j.Payload, sig); err != nil {
				return nil, "", err
			}

			break
		}
	}

	if !authenticated {
		return nil, "", direrrors.New(direrrors.Malformed, "from_prior kid %s is not an authentication key of %s", header.Kid, claims.Iss)
	}

	if claims.Exp != nil && now.Unix() > *claims.Exp {
		return nil, "", direrrors.New(direrrors.Malformed, "from_prior has expired")
	}

	if claims.Nbf != nil && now.Unix() < *claims.Nbf {
		return nil, "", direrrors.New(direrrors.Malformed, "from_prior is not yet valid")
	}

	return &claims, header.Kid, nil
}
