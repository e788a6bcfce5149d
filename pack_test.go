// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package didcomm_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	didcomm "github.com/didcommx/didcomm-go"
	"github.com/didcommx/didcomm-go/config"
	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	"github.com/didcommx/didcomm-go/crypto/authcrypt"
	"github.com/didcommx/didcomm-go/did"
	"github.com/didcommx/didcomm-go/forward"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
	"github.com/didcommx/didcomm-go/secrets"
)

const basicMessageType = "https://didcomm.org/basicmessage/2.0/message"

// testDIDResolver is a static did.Resolver fake, mirroring
// fromprior_test.go's staticResolver.
type testDIDResolver struct {
	docs map[string]*did.Document
}

func (r testDIDResolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	return r.docs[id], nil
}

// testSecretsResolver is a static secrets.Resolver fake.
type testSecretsResolver struct {
	secrets map[string]*secrets.Secret
}

func (r testSecretsResolver) GetSecret(ctx context.Context, kid string) (*secrets.Secret, error) {
	return r.secrets[kid], nil
}

func (r testSecretsResolver) FindSecrets(ctx context.Context, candidateKids []string) ([]string, error) {
	var held []string

	for _, kid := range candidateKids {
		if _, ok := r.secrets[kid]; ok {
			held = append(held, kid)
		}
	}

	return held, nil
}

func newX25519Secret(t *testing.T, kid string) (*did.VerificationMethod, *secrets.Secret) {
	t.Helper()

	key, err := jwk.GenerateX25519()
	require.NoError(t, err)

	key.Kid = kid

	controller, err := did.ControllerDID(kid)
	require.NoError(t, err)

	pub := &jwk.Key{Kid: kid, Crv: jwk.CurveX25519, Public: key.Public}

	pubJWK, err := pub.MarshalJWK()
	require.NoError(t, err)

	privJWK, err := key.MarshalJWK()
	require.NoError(t, err)

	vm := &did.VerificationMethod{ID: kid, Type: did.TypeJsonWebKey2020, Controller: controller, PublicKeyJwk: pubJWK}
	secret := &secrets.Secret{ID: kid, Type: did.TypeJsonWebKey2020, Controller: controller, PrivateKeyJwk: privJWK}

	return vm, secret
}

func newEd25519Secret(t *testing.T, kid string) (*did.VerificationMethod, *secrets.Secret) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	controller, err := did.ControllerDID(kid)
	require.NoError(t, err)

	pubOnly := &jwk.Key{Kid: kid, Kty: jwk.KeyTypeOKP, Crv: jwk.CurveEd25519, Public: pub}

	pubJWK, err := pubOnly.MarshalJWK()
	require.NoError(t, err)

	full := &jwk.Key{Kid: kid, Kty: jwk.KeyTypeOKP, Crv: jwk.CurveEd25519, Public: pub, Private: priv}

	privJWK, err := full.MarshalJWK()
	require.NoError(t, err)

	vm := &did.VerificationMethod{ID: kid, Type: did.TypeJsonWebKey2020, Controller: controller, PublicKeyJwk: pubJWK}
	secret := &secrets.Secret{ID: kid, Type: did.TypeJsonWebKey2020, Controller: controller, PrivateKeyJwk: privJWK}

	return vm, secret
}

// newParty builds a DID document with one X25519 key-agreement method and
// one Ed25519 authentication method, plus the matching secrets.
func newParty(t *testing.T, didID string) (doc *did.Document, keyAgreement, authentication *secrets.Secret) {
	t.Helper()

	kaVM, kaSecret := newX25519Secret(t, didID+"#key-agreement-1")
	authVM, authSecret := newEd25519Secret(t, didID+"#auth-1")

	doc = &did.Document{
		ID:                 didID,
		VerificationMethod: []did.VerificationMethod{*kaVM, *authVM},
		KeyAgreement:       []string{kaVM.ID},
		Authentication:     []string{authVM.ID},
	}

	return doc, kaSecret, authSecret
}

func TestPackPlaintext(t *testing.T) {
	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{"content":"hi"}`)}

	result, err := didcomm.PackPlaintext(msg)
	require.NoError(t, err)

	kind, err := jose.ClassifyEnvelope(result.Envelope)
	require.NoError(t, err)
	require.Equal(t, jose.KindPlaintext, kind)

	var got didcomm.Message
	require.NoError(t, json.Unmarshal([]byte(result.Envelope), &got))
	require.Equal(t, msg.ID, got.ID)
	require.Equal(t, didcomm.MediaTypePlaintext, got.Typ)
}

func TestPackSigned(t *testing.T) {
	aliceDID := "did:example:alice"
	_, authSec := newEd25519Secret(t, aliceDID+"#auth-1")

	secretsResolver := testSecretsResolver{secrets: map[string]*secrets.Secret{authSec.ID: authSec}}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{"content":"hi"}`), From: aliceDID}

	result, err := didcomm.PackSigned(context.Background(), msg, authSec.ID, secretsResolver)
	require.NoError(t, err)
	require.Equal(t, authSec.ID, result.SignByKid)

	kind, err := jose.ClassifyEnvelope(result.Envelope)
	require.NoError(t, err)
	require.Equal(t, jose.KindJWS, kind)
}

func TestPackEncryptedAnoncryptRoundTrip(t *testing.T) {
	bobDID := "did:example:bob"
	bobDoc, bobKA, _ := newParty(t, bobDID)

	didResolver := testDIDResolver{docs: map[string]*did.Document{bobDID: bobDoc}}
	secretsResolver := testSecretsResolver{}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{"content":"hi"}`), To: []string{bobDID}}

	result, err := didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.NoError(t, err)
	require.Empty(t, result.FromKid)
	require.Equal(t, []string{bobKA.ID}, result.ToKids)

	jwe, err := jose.ParseJWE(result.Envelope)
	require.NoError(t, err)

	header, err := jose.DecodeJWEProtectedHeader(jwe.Protected)
	require.NoError(t, err)
	require.Equal(t, jose.AlgECDHESA256KW, header.Alg)

	bobKey, err := secrets.ResolveKey(bobKA)
	require.NoError(t, err)

	plaintext, err := anoncrypt.Decrypt(jwe, bobKey)
	require.NoError(t, err)

	var got didcomm.Message
	require.NoError(t, json.Unmarshal(plaintext, &got))
	require.Equal(t, msg.ID, got.ID)
}

func TestPackEncryptedAuthcryptRoundTrip(t *testing.T) {
	aliceDID := "did:example:alice"
	bobDID := "did:example:bob"

	aliceDoc, aliceKA, _ := newParty(t, aliceDID)
	bobDoc, bobKA, _ := newParty(t, bobDID)

	didResolver := testDIDResolver{docs: map[string]*did.Document{aliceDID: aliceDoc, bobDID: bobDoc}}
	secretsResolver := testSecretsResolver{secrets: map[string]*secrets.Secret{aliceKA.ID: aliceKA}}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{"content":"hi"}`), From: aliceDID, To: []string{bobDID}}

	result, err := didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.NoError(t, err)
	require.Equal(t, aliceKA.ID, result.FromKid)

	jwe, err := jose.ParseJWE(result.Envelope)
	require.NoError(t, err)

	header, err := jose.DecodeJWEProtectedHeader(jwe.Protected)
	require.NoError(t, err)
	require.Equal(t, jose.AlgECDH1PUA256KW, header.Alg)

	bobKey, err := secrets.ResolveKey(bobKA)
	require.NoError(t, err)

	aliceKey, err := secrets.ResolveKey(aliceKA)
	require.NoError(t, err)

	alicePub := &jwk.Key{Crv: aliceKey.Crv, Public: aliceKey.Public}

	plaintext, err := authcrypt.Decrypt(jwe, bobKey, alicePub)
	require.NoError(t, err)

	var got didcomm.Message
	require.NoError(t, json.Unmarshal(plaintext, &got))
	require.Equal(t, msg.ID, got.ID)
}

func TestPackEncryptedProtectSenderWrapsOuterAnoncrypt(t *testing.T) {
	aliceDID := "did:example:alice"
	bobDID := "did:example:bob"

	aliceDoc, aliceKA, _ := newParty(t, aliceDID)
	bobDoc, bobKA, _ := newParty(t, bobDID)

	didResolver := testDIDResolver{docs: map[string]*did.Document{aliceDID: aliceDoc, bobDID: bobDoc}}
	secretsResolver := testSecretsResolver{secrets: map[string]*secrets.Secret{aliceKA.ID: aliceKA}}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{}`), From: aliceDID, To: []string{bobDID}}

	result, err := didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{ProtectSender: true}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.NoError(t, err)

	outerJWE, err := jose.ParseJWE(result.Envelope)
	require.NoError(t, err)

	outerHeader, err := jose.DecodeJWEProtectedHeader(outerJWE.Protected)
	require.NoError(t, err)
	require.Equal(t, jose.AlgECDHESA256KW, outerHeader.Alg)
	require.Empty(t, outerHeader.APU)

	bobKey, err := secrets.ResolveKey(bobKA)
	require.NoError(t, err)

	innerEnvelope, err := anoncrypt.Decrypt(outerJWE, bobKey)
	require.NoError(t, err)

	innerJWE, err := jose.ParseJWE(string(innerEnvelope))
	require.NoError(t, err)

	innerHeader, err := jose.DecodeJWEProtectedHeader(innerJWE.Protected)
	require.NoError(t, err)
	require.Equal(t, jose.AlgECDH1PUA256KW, innerHeader.Alg)
	require.NotEmpty(t, innerHeader.APU)
}

func TestPackEncryptedRejectsSignByDifferentController(t *testing.T) {
	aliceDID := "did:example:alice"
	carolDID := "did:example:carol"
	bobDID := "did:example:bob"

	bobDoc, _, _ := newParty(t, bobDID)
	_, _, carolAuth := newParty(t, carolDID)

	didResolver := testDIDResolver{docs: map[string]*did.Document{bobDID: bobDoc}}
	secretsResolver := testSecretsResolver{secrets: map[string]*secrets.Secret{carolAuth.ID: carolAuth}}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{}`), From: aliceDID, To: []string{bobDID}}

	_, err := didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{SignBy: carolAuth.ID}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.Error(t, err)
}

func TestPackEncryptedForwardWrapsWhenRoutingKeysPresent(t *testing.T) {
	bobDID := "did:example:bob"
	mediatorDID := "did:example:mediator"

	bobDoc, bobKA, _ := newParty(t, bobDID)
	mediatorDoc, mediatorKA, _ := newParty(t, mediatorDID)

	endpoint, err := json.Marshal(did.DIDCommMessagingService{URI: "https://example.com/endpoint", RoutingKeys: []string{mediatorKA.ID}})
	require.NoError(t, err)

	bobDoc.Service = []did.Service{{ID: bobDID + "#didcomm-1", Type: did.ServiceTypeDIDCommMessaging, ServiceEndpoint: endpoint}}

	didResolver := testDIDResolver{docs: map[string]*did.Document{bobDID: bobDoc, mediatorDID: mediatorDoc}}
	secretsResolver := testSecretsResolver{}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{}`), To: []string{bobDID}}

	result, err := didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{Forward: true}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.NoError(t, err)
	require.NotNil(t, result.MessagingService)

	outerJWE, err := jose.ParseJWE(result.Envelope)
	require.NoError(t, err)
	require.Equal(t, []string{mediatorKA.ID}, outerJWE.RecipientKids())

	mediatorKey, err := secrets.ResolveKey(mediatorKA)
	require.NoError(t, err)

	plaintext, err := anoncrypt.Decrypt(outerJWE, mediatorKey)
	require.NoError(t, err)

	body, innerEnvelope, ok, err := forward.Parse(plaintext)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bobKA.ID, body.Next)

	innerJWE, err := jose.ParseJWE(innerEnvelope)
	require.NoError(t, err)
	require.Equal(t, []string{bobKA.ID}, innerJWE.RecipientKids())
}

func TestPackEncryptedRejectsCurveMismatchAcrossRecipients(t *testing.T) {
	aDID := "did:example:a"
	bDID := "did:example:b"

	aKid := aDID + "#key-agreement-1"

	aKey, err := jwk.GenerateX25519()
	require.NoError(t, err)

	aPub := &jwk.Key{Kid: aKid, Crv: jwk.CurveX25519, Public: aKey.Public}

	aPubJWK, err := aPub.MarshalJWK()
	require.NoError(t, err)

	bKid := bDID + "#key-agreement-1"

	bKey, err := jwk.GenerateP256()
	require.NoError(t, err)

	bPub := &jwk.Key{Kid: bKid, Crv: jwk.CurveP256, Public: bKey.Public}

	bPubJWK, err := bPub.MarshalJWK()
	require.NoError(t, err)

	aDoc := &did.Document{
		ID:                 aDID,
		VerificationMethod: []did.VerificationMethod{{ID: aKid, Type: did.TypeJsonWebKey2020, Controller: aDID, PublicKeyJwk: aPubJWK}},
		KeyAgreement:       []string{aKid},
	}
	bDoc := &did.Document{
		ID:                 bDID,
		VerificationMethod: []did.VerificationMethod{{ID: bKid, Type: did.TypeJsonWebKey2020, Controller: bDID, PublicKeyJwk: bPubJWK}},
		KeyAgreement:       []string{bKid},
	}

	didResolver := testDIDResolver{docs: map[string]*did.Document{aDID: aDoc, bDID: bDoc}}
	secretsResolver := testSecretsResolver{}

	msg := didcomm.Message{ID: "1", Type: basicMessageType, Body: json.RawMessage(`{}`), To: []string{aDID, bDID}}

	_, err = didcomm.PackEncrypted(context.Background(), msg, didcomm.PackEncryptedOptions{}, config.DefaultPackerConfig(), didResolver, secretsResolver)
	require.Error(t, err)
	require.True(t, direrrors.Is(err, direrrors.NoCompatibleCrypto))
}
