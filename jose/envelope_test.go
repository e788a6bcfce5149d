// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package jose_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/jose"
)

func TestClassifyEnvelope(t *testing.T) {
	kind, err := jose.ClassifyEnvelope(`{"protected":"x","recipients":[],"iv":"x","ciphertext":"Y3Q","tag":"x"}`)
	require.NoError(t, err)
	require.Equal(t, jose.KindJWE, kind)

	kind, err = jose.ClassifyEnvelope(`{"payload":"x","signatures":[{"protected":"x","signature":"x"}]}`)
	require.NoError(t, err)
	require.Equal(t, jose.KindJWS, kind)

	kind, err = jose.ClassifyEnvelope("aGVhZGVy.cGF5bG9hZA.c2ln")
	require.NoError(t, err)
	require.Equal(t, jose.KindJWS, kind)

	kind, err = jose.ClassifyEnvelope(`{"id":"1","typ":"application/didcomm-plain+json","type":"x","body":{}}`)
	require.NoError(t, err)
	require.Equal(t, jose.KindPlaintext, kind)
}
