// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package anoncrypt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	"github.com/didcommx/didcomm-go/jwk"
)

func TestAnoncryptRoundTripSingleRecipient(t *testing.T) {
	recipient, err := jwk.GenerateX25519()
	require.NoError(t, err)
	recipient.Kid = "did:example:bob#key-1"

	recipientPub := &jwk.Key{Kid: recipient.Kid, Crv: jwk.CurveX25519, Public: recipient.Public}

	plaintext := []byte(`{"hello":"world"}`)

	envelope, err := anoncrypt.Encrypt(jwk.CurveX25519, "A256CBC-HS512", []anoncrypt.Recipient{{Kid: recipient.Kid, Key: recipientPub}}, plaintext)
	require.NoError(t, err)

	got, err := anoncrypt.Decrypt(envelope, recipient)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestAnoncryptRoundTripMultipleRecipientsEachDecrypt(t *testing.T) {
	bob, err := jwk.GenerateX25519()
	require.NoError(t, err)
	bob.Kid = "did:example:bob#key-1"

	carol, err := jwk.GenerateX25519()
	require.NoError(t, err)
	carol.Kid = "did:example:carol#key-1"

	bobPub := &jwk.Key{Kid: bob.Kid, Crv: jwk.CurveX25519, Public: bob.Public}
	carolPub := &jwk.Key{Kid: carol.Kid, Crv: jwk.CurveX25519, Public: carol.Public}

	plaintext := []byte(`{"hello":"world"}`)

	envelope, err := anoncrypt.Encrypt(jwk.CurveX25519, "XC20P", []anoncrypt.Recipient{
		{Kid: bob.Kid, Key: bobPub},
		{Kid: carol.Kid, Key: carolPub},
	}, plaintext)
	require.NoError(t, err)
	require.Len(t, envelope.Recipients, 2)

	gotBob, err := anoncrypt.Decrypt(envelope, bob)
	require.NoError(t, err)
	require.Equal(t, plaintext, gotBob)

	gotCarol, err := anoncrypt.Decrypt(envelope, carol)
	require.NoError(t, err)
	require.Equal(t, plaintext, gotCarol)
}

func TestAnoncryptDecryptRejectsUnknownRecipient(t *testing.T) {
	bob, err := jwk.GenerateX25519()
	require.NoError(t, err)
	bob.Kid = "did:example:bob#key-1"

	mallory, err := jwk.GenerateX25519()
	require.NoError(t, err)
	mallory.Kid = "did:example:mallory#key-1"

	bobPub := &jwk.Key{Kid: bob.Kid, Crv: jwk.CurveX25519, Public: bob.Public}

	envelope, err := anoncrypt.Encrypt(jwk.CurveX25519, "A256GCM", []anoncrypt.Recipient{{Kid: bob.Kid, Key: bobPub}}, []byte("hi"))
	require.NoError(t, err)

	_, err = anoncrypt.Decrypt(envelope, mallory)
	require.Error(t, err)
}
