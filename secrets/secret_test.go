// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/jwk"
	"github.com/didcommx/didcomm-go/secrets"
)

func TestResolveKeyFromJWK(t *testing.T) {
	key, err := jwk.GenerateX25519()
	require.NoError(t, err)
	key.Kid = "did:example:alice#key-1"

	jwkBytes, err := key.MarshalJWK()
	require.NoError(t, err)

	s := &secrets.Secret{ID: "did:example:alice#key-1", PrivateKeyJwk: jwkBytes}

	resolved, err := secrets.ResolveKey(s)
	require.NoError(t, err)
	require.True(t, resolved.IsPrivate())
	require.Equal(t, s.ID, resolved.Kid)
}

func TestResolveKeyRejectsPublicOnlyJWK(t *testing.T) {
	key, err := jwk.GenerateX25519()
	require.NoError(t, err)

	jwkBytes, err := key.MarshalJWK()
	require.NoError(t, err)

	pubOnly, err := jwk.ParseJWK(jwkBytes)
	require.NoError(t, err)
	pubOnly.Private = nil

	pubBytes, err := pubOnly.MarshalJWK()
	require.NoError(t, err)

	s := &secrets.Secret{ID: "did:example:alice#key-1", PrivateKeyJwk: pubBytes}

	_, err = secrets.ResolveKey(s)
	require.Error(t, err)
}

func TestResolveKeyUnsupported(t *testing.T) {
	s := &secrets.Secret{ID: "did:example:alice#key-1"}

	_, err := secrets.ResolveKey(s)
	require.Error(t, err)
}
