// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package authcrypt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/crypto/authcrypt"
	"github.com/didcommx/didcomm-go/jwk"
)

func TestAuthcryptRoundTrip(t *testing.T) {
	sender, err := jwk.GenerateX25519()
	require.NoError(t, err)
	sender.Kid = "did:example:alice#key-1"

	recipient, err := jwk.GenerateX25519()
	require.NoError(t, err)
	recipient.Kid = "did:example:bob#key-1"

	senderPub := &jwk.Key{Kid: sender.Kid, Crv: jwk.CurveX25519, Public: sender.Public}
	recipientPub := &jwk.Key{Kid: recipient.Kid, Crv: jwk.CurveX25519, Public: recipient.Public}

	plaintext := []byte(`{"hello":"world"}`)

	envelope, err := authcrypt.Encrypt(sender.Kid, sender, []authcrypt.Recipient{{Kid: recipient.Kid, Key: recipientPub}}, plaintext)
	require.NoError(t, err)

	got, err := authcrypt.Decrypt(envelope, recipient, senderPub)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestAuthcryptRejectsCurveMismatch(t *testing.T) {
	sender, err := jwk.GenerateX25519()
	require.NoError(t, err)
	sender.Kid = "did:example:alice#key-1"

	recipient, err := jwk.GenerateP256()
	require.NoError(t, err)
	recipient.Kid = "did:example:bob#key-1"

	recipientPub := &jwk.Key{Kid: recipient.Kid, Crv: jwk.CurveP256, Public: recipient.Public}

	_, err = authcrypt.Encrypt(sender.Kid, sender, []authcrypt.Recipient{{Kid: recipient.Kid, Key: recipientPub}}, []byte("hi"))
	require.Error(t, err)
}

func TestAuthcryptDecryptFailsWithWrongSenderKey(t *testing.T) {
	sender, err := jwk.GenerateX25519()
	require.NoError(t, err)
	sender.Kid = "did:example:alice#key-1"

	impostor, err := jwk.GenerateX25519()
	require.NoError(t, err)

	recipient, err := jwk.GenerateX25519()
	require.NoError(t, err)
	recipient.Kid = "did:example:bob#key-1"

	recipientPub := &jwk.Key{Kid: recipient.Kid, Crv: jwk.CurveX25519, Public: recipient.Public}

	envelope, err := authcrypt.Encrypt(sender.Kid, sender, []authcrypt.Recipient{{Kid: recipient.Kid, Key: recipientPub}}, []byte("hi"))
	require.NoError(t, err)

	impostorPub := &jwk.Key{Crv: jwk.CurveX25519, Public: impostor.Public}

	_, err = authcrypt.Decrypt(envelope, recipient, impostorPub)
	require.Error(t, err)
}
