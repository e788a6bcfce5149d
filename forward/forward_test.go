// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package forward_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	"github.com/didcommx/didcomm-go/forward"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
)

func TestWrapSingleHop(t *testing.T) {
	mediatorKey, err := jwk.GenerateX25519()
	require.NoError(t, err)
	mediatorKey.Kid = "did:example:mediator#key-1"

	mediatorPub := &jwk.Key{Kid: mediatorKey.Kid, Crv: jwk.CurveX25519, Public: mediatorKey.Public}

	innerEnvelope := `{"hello":"world"}`

	wrapped, err := forward.Wrap(innerEnvelope, "did:example:bob#key-1", []forward.RoutingKey{{Kid: mediatorKey.Kid, Key: mediatorPub}}, jose.EncXC20P)
	require.NoError(t, err)

	jwe, err := jose.ParseJWE(wrapped)
	require.NoError(t, err)

	plaintext, err := anoncrypt.Decrypt(jwe, mediatorKey)
	require.NoError(t, err)

	body, inner, ok, err := forward.Parse(plaintext)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "did:example:bob#key-1", body.Next)
	require.Equal(t, innerEnvelope, inner)
}

func TestWrapMultiHopOrder(t *testing.T) {
	r1, err := jwk.GenerateX25519()
	require.NoError(t, err)
	r1.Kid = "did:example:r1#key-1"
	r1Pub := &jwk.Key{Kid: r1.Kid, Crv: jwk.CurveX25519, Public: r1.Public}

	r2, err := jwk.GenerateX25519()
	require.NoError(t, err)
	r2.Kid = "did:example:r2#key-1"
	r2Pub := &jwk.Key{Kid: r2.Kid, Crv: jwk.CurveX25519, Public: r2.Public}

	innerEnvelope := `{"hello":"world"}`

	wrapped, err := forward.Wrap(innerEnvelope, "did:example:bob#key-1", []forward.RoutingKey{
		{Kid: r1.Kid, Key: r1Pub},
		{Kid: r2.Kid, Key: r2Pub},
	}, jose.EncXC20P)
	require.NoError(t, err)

	outerJWE, err := jose.ParseJWE(wrapped)
	require.NoError(t, err)
	require.Equal(t, []string{r1.Kid}, outerJWE.RecipientKids())

	outerPlaintext, err := anoncrypt.Decrypt(outerJWE, r1)
	require.NoError(t, err)

	body, innerEnv, ok, err := forward.Parse(outerPlaintext)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r2.Kid, body.Next)

	innerJWE, err := jose.ParseJWE(innerEnv)
	require.NoError(t, err)
	require.Equal(t, []string{r2.Kid}, innerJWE.RecipientKids())

	innerPlaintext, err := anoncrypt.Decrypt(innerJWE, r2)
	require.NoError(t, err)

	body2, innerEnv2, ok, err := forward.Parse(innerPlaintext)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "did:example:bob#key-1", body2.Next)
	require.Equal(t, innerEnvelope, innerEnv2)
}

func TestParseRejectsNonForwardMessage(t *testing.T) {
	_, _, ok, err := forward.Parse([]byte(`{"id":"1","type":"https://didcomm.org/basicmessage/2.0/message","body":{}}`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWrapRequiresRoutingKeys(t *testing.T) {
	_, err := forward.Wrap(`{}`, "did:example:bob#key-1", nil, jose.EncXC20P)
	require.Error(t, err)
}
