// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jwk

import (
	"crypto/sha256"
	"encoding/json"
	"sort"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// Thumbprint computes the RFC 7638 JWK thumbprint: the base64url-nopad
// SHA-256 digest of the JWK's required members, lexicographically
// ordered. did.ResolveKey does not use it: a verification method's id is
// always taken as the resolved key's kid.
func (k *Key) Thumbprint() (string, error) {
	members, err := requiredMembers(k)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(members))
	for name := range members {
		keys = append(keys, name)
	}

	sort.Strings(keys)

	canonical := "{"

	for i, name := range keys {
		if i > 0 {
			canonical += ","
		}

		encoded, err := json.Marshal(members[name])
		if err != nil {
			return "", direrrors.Wrap(direrrors.InvalidState, err, "failed to encode thumbprint member %s", name)
		}

		canonical += `"` + name + `":` + string(encoded)
	}

	canonical += "}"

	digest := sha256.Sum256([]byte(canonical))

	return b64Encode(digest[:]), nil
}

func requiredMembers(k *Key) (map[string]string, error) {
	jwkBytes, err := k.MarshalJWK()
	if err != nil {
		return nil, err
	}

	var full map[string]string
	if err := json.Unmarshal(jwkBytes, &full); err != nil {
		return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to decode marshaled JWK")
	}

	switch k.Kty {
	case KeyTypeOKP:
		return map[string]string{"crv": full["crv"], "kty": full["kty"], "x": full["x"]}, nil
	case KeyTypeEC:
		return map[string]string{"crv": full["crv"], "kty": full["kty"], "x": full["x"], "y": full["y"]}, nil
	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported kty %s for thumbprint", k.Kty)
	}
}
