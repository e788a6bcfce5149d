// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jose_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/jose"
)

func TestJWSCompactRoundTrip(t *testing.T) {
	protected, err := jose.EncodeProtectedHeader("EdDSA", "did:example:alice#key-1")
	require.NoError(t, err)

	payload := jose.EncodePayload([]byte(`{"hello":"world"}`))

	j := jose.NewJWS(payload, []jose.Signature{{Protected: protected, Signature: "c2ln"}})

	compact, err := j.MarshalEnvelope()
	require.NoError(t, err)

	parsed, err := jose.ParseJWS(compact)
	require.NoError(t, err)
	require.Len(t, parsed.Signatures, 1)
	require.Equal(t, protected, parsed.Signatures[0].Protected)
	require.Equal(t, payload, parsed.Payload)

	header, err := jose.DecodeProtectedHeader(parsed.Signatures[0].Protected)
	require.NoError(t, err)
	require.Equal(t, "EdDSA", header.Alg)
	require.Equal(t, "did:example:alice#key-1", header.Kid)
	require.Equal(t, jose.MediaTypeSigned, header.Typ)
}

func TestJWSGeneralRoundTripMultipleSignatures(t *testing.T) {
	p1, err := jose.EncodeProtectedHeader("EdDSA", "did:example:alice#key-1")
	require.NoError(t, err)
	p2, err := jose.EncodeProtectedHeader("ES256", "did:example:alice#key-2")
	require.NoError(t, err)

	payload := jose.EncodePayload([]byte(`{"hello":"world"}`))

	j := jose.NewJWS(payload, []jose.Signature{
		{Protected: p1, Signature: "c2ln"},
		{Protected: p2, Signature: "c2ln"},
	})

	envelope, err := j.MarshalEnvelope()
	require.NoError(t, err)

	parsed, err := jose.ParseJWS(envelope)
	require.NoError(t, err)
	require.Len(t, parsed.Signatures, 2)
}

func TestJWSSigningInput(t *testing.T) {
	input := jose.SigningInput("aGVhZGVy", "cGF5bG9hZA")
	require.Equal(t, "aGVhZGVy.cGF5bG9hZA", string(input))
}

func TestParseJWSRejectsMalformedCompact(t *testing.T) {
	_, err := jose.ParseJWS("not.enough")
	require.Error(t, err)
}
