// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package didcomm

import (
	"context"
	"encoding/json"

	"github.com/didcommx/didcomm-go/config"
	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	"github.com/didcommx/didcomm-go/crypto/authcrypt"
	"github.com/didcommx/didcomm-go/crypto/sign"
	"github.com/didcommx/didcomm-go/did"
	"github.com/didcommx/didcomm-go/forward"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/internal/logging"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
	"github.com/didcommx/didcomm-go/secrets"
)

var logger = logging.Logger("didcomm")

// PackPlaintextResult is the outcome of pack_plaintext (spec §4.8).
type PackPlaintextResult struct {
	Envelope string
}

// PackPlaintext serializes msg to canonical JSON with no cryptographic
// processing, requiring no resolvers (spec §4.8).
func PackPlaintext(msg Message) (*PackPlaintextResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if msg.Typ == "" {
		msg.Typ = MediaTypePlaintext
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to encode plaintext message")
	}

	return &PackPlaintextResult{Envelope: string(raw)}, nil
}

// PackSignedResult is the outcome of pack_signed (spec §4.8).
type PackSignedResult struct {
	Envelope  string
	SignByKid string
}

// PackSigned signs msg with the authentication key signBy names,
// returning a JWS envelope (spec §4.4/§4.8). signBy must be a full
// DID-URL (spec §3 Invariant 1); its private key is fetched from
// secretsResolver.
func PackSigned(ctx context.Context, msg Message, signBy string, secretsResolver secrets.Resolver) (*PackSignedResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := did.ParseDIDURL(signBy); err != nil {
		return nil, err
	}

	key, err := resolveSecretKey(ctx, secretsResolver, signBy)
	if err != nil {
		return nil, err
	}

	if msg.Typ == "" {
		msg.Typ = MediaTypePlaintext
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to encode message for signing")
	}

	sig, err := sign.Sign(key, payload)
	if err != nil {
		return nil, err
	}

	j := jose.NewJWS(jose.EncodePayload(payload), []jose.Signature{sig})

	envelope, err := j.MarshalEnvelope()
	if err != nil {
		return nil, err
	}

	return &PackSignedResult{Envelope: envelope, SignByKid: signBy}, nil
}

// PackEncryptedOptions are pack_encrypted's caller-supplied switches
// (spec §4.8). Recipients and an optional sender are read from msg's own
// From/To fields, matching the data model's "to (ordered sequence of
// DIDs)"/"from (DID)" members.
type PackEncryptedOptions struct {
	// SignBy, if set, signs msg before encryption (spec §4.8: "sign is
	// innermost").
	SignBy string

	// ProtectSender wraps an authcrypt envelope in an additional
	// anoncrypt layer so the sender's identity is not observable to
	// eavesdroppers (spec §4.5).
	ProtectSender bool

	// Forward wraps the final envelope in the mediator forward chain
	// declared by the first recipient's DIDCommMessaging service, when
	// one is present (spec §4.6/§4.8).
	Forward bool
}

// PackEncryptedResult is the outcome of pack_encrypted (spec §4.8):
// the final envelope plus the resolved key identities and messaging
// service that produced it.
type PackEncryptedResult struct {
	Envelope         string
	FromKid          string
	SignByKid        string
	ToKids           []string
	MessagingService *did.DIDCommMessagingService
}

// PackEncrypted runs the full pack_encrypted pipeline: sign (if SignBy
// given) → encrypt (authcrypt if msg.From given, else anoncrypt) →
// sender-protect (if ProtectSender) → forward-wrap (if Forward and a
// messaging service with routing keys is found) (spec §4.8, ordering
// fixed innermost to outermost).
func PackEncrypted(ctx context.Context, msg Message, opts PackEncryptedOptions, cfg config.PackerConfig, didResolver did.Resolver, secretsResolver secrets.Resolver) (*PackEncryptedResult, error) {
	logger.Debug("pack_encrypted started", "recipients", len(msg.To), "sign_by", opts.SignBy != "", "protect_sender", opts.ProtectSender, "forward", opts.Forward)

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if len(msg.To) == 0 {
		return nil, direrrors.New(direrrors.IllegalArgument, "pack_encrypted requires at least one recipient in msg.To")
	}

	if opts.SignBy != "" && msg.From != "" {
		same, err := did.SameController(opts.SignBy, msg.From)
		if err != nil {
			return nil, err
		}

		if !same {
			return nil, direrrors.New(direrrors.IllegalArgument, "sign_by %s and from %s do not share a controller DID", opts.SignBy, msg.From)
		}
	}

	recipientDocs := make([]*did.Document, len(msg.To))

	for i, recipientDID := range msg.To {
		logging.FromContext(ctx).Debug("resolving recipient DID", "did", recipientDID)

		doc, err := didResolver.Resolve(ctx, recipientDID)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.DIDNotResolved, err, "failed to resolve recipient %s", recipientDID)
		}

		if doc == nil {
			return nil, direrrors.New(direrrors.DIDNotResolved, "recipient %s did not resolve", recipientDID)
		}

		recipientDocs[i] = doc
	}

	recipientAgreements := make([]did.RecipientKeyAgreements, len(recipientDocs))
	for i, doc := range recipientDocs {
		recipientAgreements[i] = did.RecipientKeyAgreements{DID: doc.ID, Methods: doc.KeyAgreementMethods()}
	}

	curve, chosenMethods, err := did.SelectKeyAgreementCurve(recipientAgreements, cfg.SupportedCurves)
	if err != nil {
		return nil, err
	}

	recipients := make([]keyRecipient, len(chosenMethods))

	for i, vm := range chosenMethods {
		key, err := did.ResolveKey(vm)
		if err != nil {
			return nil, err
		}

		recipients[i] = keyRecipient{Kid: vm.ID, Key: key}
	}

	var (
		signerKid string
		plaintext []byte
	)

	if opts.SignBy != "" {
		signed, err := PackSigned(ctx, msg, opts.SignBy, secretsResolver)
		if err != nil {
			return nil, err
		}

		plaintext = []byte(signed.Envelope)
		signerKid = signed.SignByKid
	} else {
		if msg.Typ == "" {
			msg.Typ = MediaTypePlaintext
		}

		raw, err := json.Marshal(msg)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.InvalidState, err, "failed to encode message")
		}

		plaintext = raw
	}

	var (
		envelope string
		fromKid  string
	)

	if msg.From != "" {
		logging.FromContext(ctx).Debug("resolving sender DID", "did", msg.From)

		senderDoc, err := didResolver.Resolve(ctx, msg.From)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.DIDNotResolved, err, "failed to resolve sender %s", msg.From)
		}

		if senderDoc == nil {
			return nil, direrrors.New(direrrors.DIDNotResolved, "sender %s did not resolve", msg.From)
		}

		senderVM, err := did.SelectSenderKeyAgreement(senderDoc.KeyAgreementMethods(), curve)
		if err != nil {
			return nil, err
		}

		senderKey, err := resolveSecretKey(ctx, secretsResolver, senderVM.ID)
		if err != nil {
			return nil, err
		}

		senderKey.Kid = senderVM.ID

		authRecipients := make([]authcrypt.Recipient, len(recipients))
		for i, r := range recipients {
			authRecipients[i] = authcrypt.Recipient{Kid: r.Kid, Key: r.Key}
		}

		jwe, err := authcrypt.Encrypt(senderVM.ID, senderKey, authRecipients, plaintext)
		if err != nil {
			return nil, err
		}

		envelope, err = jwe.MarshalEnvelope()
		if err != nil {
			return nil, err
		}

		fromKid = senderVM.ID

		if opts.ProtectSender {
			envelope, err = protectSender(envelope, curve, recipients, cfg.EncAlgAnon)
			if err != nil {
				return nil, err
			}
		}
	} else {
		anonRecipients := make([]anoncrypt.Recipient, len(recipients))
		for i, r := range recipients {
			anonRecipients[i] = anoncrypt.Recipient{Kid: r.Kid, Key: r.Key}
		}

		jwe, err := anoncrypt.Encrypt(curve, cfg.EncAlgAnon, anonRecipients, plaintext)
		if err != nil {
			return nil, err
		}

		envelope, err = jwe.MarshalEnvelope()
		if err != nil {
			return nil, err
		}
	}

	result := &PackEncryptedResult{
		Envelope:  envelope,
		FromKid:   fromKid,
		SignByKid: signerKid,
	}

	for _, r := range recipients {
		result.ToKids = append(result.ToKids, r.Kid)
	}

	if opts.Forward {
		svc, routingKeys, err := resolveRoutingKeys(ctx, didResolver, recipientDocs[0])
		if err != nil {
			return nil, err
		}

		if svc != nil && len(routingKeys) > 0 {
			wrapped, err := forward.Wrap(envelope, recipients[0].Kid, routingKeys, cfg.EncAlgAnon)
			if err != nil {
				return nil, err
			}

			result.Envelope = wrapped
			result.MessagingService = svc
		}
	}

	return result, nil
}

type keyRecipient struct {
	Kid string
	Key *jwk.Key
}

// protectSender wraps an authcrypt envelope in an anoncrypt layer
// addressed to the same recipients (spec §4.5's sender-protection mode).
func protectSender(envelope string, curve jwk.Curve, recipients []keyRecipient, encAlgAnon string) (string, error) {
	anonRecipients := make([]anoncrypt.Recipient, len(recipients))
	for i, r := range recipients {
		anonRecipients[i] = anoncrypt.Recipient{Kid: r.Kid, Key: r.Key}
	}

	jwe, err := anoncrypt.Encrypt(curve, encAlgAnon, anonRecipients, []byte(envelope))
	if err != nil {
		return "", err
	}

	return jwe.MarshalEnvelope()
}

// resolveRoutingKeys reads the first DIDCommMessaging service of doc and
// resolves its routing_keys (spec §4.6/§4.8) into key-agreement keys.
func resolveRoutingKeys(ctx context.Context, didResolver did.Resolver, doc *did.Document) (*did.DIDCommMessagingService, []forward.RoutingKey, error) {
	services, err := doc.DIDCommServices()
	if err != nil {
		return nil, nil, err
	}

	if len(services) == 0 || len(services[0].RoutingKeys) == 0 {
		return nil, nil, nil
	}

	svc := services[0]

	routingKeys := make([]forward.RoutingKey, len(svc.RoutingKeys))

	for i, kid := range svc.RoutingKeys {
		routerDID, err := did.ControllerDID(kid)
		if err != nil {
			return nil, nil, err
		}

		logging.FromContext(ctx).Debug("resolving routing key controller", "did", routerDID, "kid", kid)

		routerDoc, err := didResolver.Resolve(ctx, routerDID)
		if err != nil {
			return nil, nil, direrrors.Wrap(direrrors.DIDNotResolved, err, "failed to resolve routing key controller %s", routerDID)
		}

		if routerDoc == nil {
			return nil, nil, direrrors.New(direrrors.DIDNotResolved, "routing key controller %s did not resolve", routerDID)
		}

		vm, ok := routerDoc.VerificationMethodByID(kid)
		if !ok {
			return nil, nil, direrrors.New(direrrors.DIDUrlNotFound, "routing key %s not found in its controller's document", kid)
		}

		key, err := did.ResolveKey(*vm)
		if err != nil {
			return nil, nil, err
		}

		routingKeys[i] = forward.RoutingKey{Kid: kid, Key: key}
	}

	return &svc, routingKeys, nil
}

// resolveSecretKey fetches kid's private key material from
// secretsResolver, failing with SecretNotFound if absent.
func resolveSecretKey(ctx context.Context, secretsResolver secrets.Resolver, kid string) (*jwk.Key, error) {
	logging.FromContext(ctx).Debug("resolving secret", "kid", kid)

	secret, err := secretsResolver.GetSecret(ctx, kid)
	if err != nil {
		return nil, err
	}

	if secret == nil {
		return nil, direrrors.New(direrrors.SecretNotFound, "no private key held for %s", kid)
	}

	return secrets.ResolveKey(secret)
}
