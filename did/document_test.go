// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package did_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/did"
	"github.com/didcommx/didcomm-go/jwk"
)

func aliceDocument(t *testing.T) (*did.Document, *jwk.Key) {
	t.Helper()

	key, err := jwk.GenerateX25519()
	require.NoError(t, err)
	key.Kid = "did:example:alice#key-1"

	jwkBytes, err := key.MarshalJWK()
	require.NoError(t, err)

	doc := &did.Document{
		ID: "did:example:alice",
		VerificationMethod: []did.VerificationMethod{
			{
				ID:           "did:example:alice#key-1",
				Type:         did.TypeJsonWebKey2020,
				Controller:   "did:example:alice",
				PublicKeyJwk: jwkBytes,
			},
		},
		KeyAgreement:   []string{"did:example:alice#key-1"},
		Authentication: []string{"did:example:alice#key-1"},
		Service: []did.Service{
			{
				ID:              "did:example:alice#didcomm-1",
				Type:            did.ServiceTypeDIDCommMessaging,
				ServiceEndpoint: []byte(`{"uri":"https://alice.example/didcomm","accept":["didcomm/v2"],"routing_keys":[]}`),
			},
		},
	}

	return doc, key
}

func TestVerificationMethodByID(t *testing.T) {
	doc, _ := aliceDocument(t)

	vm, ok := doc.VerificationMethodByID("did:example:alice#key-1")
	require.True(t, ok)
	require.Equal(t, did.TypeJsonWebKey2020, vm.Type)

	_, ok = doc.VerificationMethodByID("did:example:alice#missing")
	require.False(t, ok)
}

func TestKeyAgreementAndAuthenticationMethods(t *testing.T) {
	doc, _ := aliceDocument(t)

	kas := doc.KeyAgreementMethods()
	require.Len(t, kas, 1)
	require.Equal(t, "did:example:alice#key-1", kas[0].ID)

	auths := doc.AuthenticationMethods()
	require.Len(t, auths, 1)
}

func TestDIDCommServicesDecodesObjectAndStringForm(t *testing.T) {
	doc, _ := aliceDocument(t)

	services, err := doc.DIDCommServices()
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, "https://alice.example/didcomm", services[0].URI)

	doc.Service[0].ServiceEndpoint = []byte(`"https://alice.example/didcomm"`)

	services, err = doc.DIDCommServices()
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, "https://alice.example/didcomm", services[0].URI)
}

func TestResolveKeyFromJWKMaterial(t *testing.T) {
	doc, original := aliceDocument(t)

	vm, ok := doc.VerificationMethodByID("did:example:alice#key-1")
	require.True(t, ok)

	key, err := did.ResolveKey(*vm)
	require.NoError(t, err)
	require.Equal(t, jwk.CurveX25519, key.Crv)
	require.Equal(t, original.Kid, key.Kid)
}

func TestResolveKeyFromMultibaseMaterial(t *testing.T) {
	key, err := jwk.GenerateX25519()
	require.NoError(t, err)

	mb, err := jwk.EncodeMultibase(key)
	require.NoError(t, err)

	vm := did.VerificationMethod{
		ID:                 "did:example:bob#key-1",
		Type:               did.TypeX25519KeyAgreementKey2020,
		Controller:         "did:example:bob",
		PublicKeyMultibase: mb,
	}

	resolved, err := did.ResolveKey(vm)
	require.NoError(t, err)
	require.Equal(t, jwk.CurveX25519, resolved.Crv)
}

func TestResolveKeyUnsupportedMaterial(t *testing.T) {
	vm := did.VerificationMethod{ID: "did:example:bob#key-1", Type: did.TypeJsonWebKey2020}

	_, err := did.ResolveKey(vm)
	require.Error(t, err)
}
