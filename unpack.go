// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package didcomm

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"context"

	"github.com/didcommx/didcomm-go/config"
	"github.com/didcommx/didcomm-go/crypto/anoncrypt"
	"github.com/didcommx/didcomm-go/crypto/authcrypt"
	"github.com/didcommx/didcomm-go/crypto/sign"
	"github.com/didcommx/didcomm-go/did"
	"github.com/didcommx/didcomm-go/forward"
	"github.com/didcommx/didcomm-go/fromprior"
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/internal/logging"
	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
	"github.com/didcommx/didcomm-go/secrets"
)

// Metadata is the write-once accumulator unpack builds up as it walks an
// envelope's layers (spec §4.9/§9's "loop over an envelope-kind state
// machine... with a metadata accumulator whose fields are write-once").
type Metadata struct {
	Encrypted          bool
	Authenticated      bool
	NonRepudiation     bool
	AnonymousSender    bool
	ReWrappedInForward bool
	FromPriorIssuerKid string
	SignAlg            string
	SignFrom           string
}

// UnpackResult is unpack's return value: the recovered plaintext Message
// and the metadata describing how the envelope was secured (spec §4.9).
type UnpackResult struct {
	Message  Message
	Metadata Metadata
}

// Unpack runs the envelope-kind state machine of spec §4.9/§9: classify
// the outermost layer, decrypt/verify, and repeat until a plaintext JWM
// remains.
func Unpack(ctx context.Context, envelope string, cfg config.UnpackerConfig, didResolver did.Resolver, secretsResolver secrets.Resolver) (*UnpackResult, error) {
	var meta Metadata

	current := envelope
	firstLayer := true

	for {
		kind, err := jose.ClassifyEnvelope(current)
		if err != nil {
			return nil, err
		}

		switch kind {
		case jose.KindJWE:
			jwe, err := jose.ParseJWE(current)
			if err != nil {
				return nil, err
			}

			header, err := jose.DecodeJWEProtectedHeader(jwe.Protected)
			if err != nil {
				return nil, err
			}

			switch header.Alg {
			case jose.AlgECDHESA256KW:
				plaintext, err := unwrapAnoncrypt(ctx, jwe, cfg, secretsResolver)
				if err != nil {
					return nil, err
				}

				meta.Encrypted = true

				if firstLayer {
					meta.AnonymousSender = true
				}

				var (
					body      forward.Body
					inner     string
					isForward bool
				)

				// Only a plaintext JWM can be a forward message; a signed or
				// encrypted payload is peeled on the next iteration.
				if k, _ := jose.ClassifyEnvelope(string(plaintext)); k == jose.KindPlaintext {
					if body, inner, isForward, err = forward.Parse(plaintext); err != nil {
						return nil, err
					}
				}

				if isForward && cfg.UnwrapReWrappingForward {
					meta.ReWrappedInForward = true
					current = inner

					firstLayer = false

					continue
				}

				if isForward {
					_ = body

					current = string(plaintext)
					firstLayer = false

					continue
				}

				current = string(plaintext)

			case jose.AlgECDH1PUA256KW:
				plaintext, fromKid, err := unwrapAuthcrypt(ctx, jwe, cfg, didResolver, secretsResolver)
				if err != nil {
					return nil, err
				}

				meta.Encrypted = true
				meta.Authenticated = true

				current = string(plaintext)
				_ = fromKid

			default:
				return nil, direrrors.New(direrrors.Malformed, "unsupported JWE alg %s", header.Alg)
			}

			firstLayer = false

		case jose.KindJWS:
			j, err := jose.ParseJWS(current)
			if err != nil {
				return nil, err
			}

			if len(j.Signatures) == 0 {
				return nil, direrrors.New(direrrors.Malformed, "JWS carries no signatures")
			}

			var signAlg, signFrom string

			for _, sig := range j.Signatures {
				header, err := jose.DecodeProtectedHeader(sig.Protected)
				if err != nil {
					return nil, err
				}

				vm, key, err := resolveVerificationKey(ctx, didResolver, header.Kid)
				if err != nil {
					return nil, err
				}

				if err := sign.Verify(key, j.Payload, sig); err != nil {
					return nil, err
				}

				signAlg = header.Alg
				signFrom = vm.ID
			}

			payloadRaw, err := base64.RawURLEncoding.DecodeString(j.Payload)
			if err != nil {
				return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWS payload encoding")
			}

			meta.Authenticated = true
			meta.NonRepudiation = true
			meta.SignAlg = signAlg
			meta.SignFrom = signFrom

			current = string(payloadRaw)
			firstLayer = false

		case jose.KindPlaintext:
			var msg Message
			if err := json.Unmarshal([]byte(current), &msg); err != nil {
				return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid plaintext message JSON")
			}

			if msg.FromPrior != "" {
				claims, issuerKid, err := fromprior.Verify(ctx, msg.FromPrior, didResolver, time.Now())
				if err != nil {
					return nil, err
				}

				if msg.From != claims.Sub {
					return nil, direrrors.New(direrrors.Malformed, "message from %q does not match from_prior sub %q", msg.From, claims.Sub)
				}

				meta.FromPriorIssuerKid = issuerKid
			}

			return &UnpackResult{Message: msg, Metadata: meta}, nil

		default:
			return nil, direrrors.New(direrrors.Malformed, "unrecognized envelope kind")
		}
	}
}

// unwrapAnoncrypt decrypts jwe for whichever recipient kid is held
// locally (spec §4.9: "if any recipient kid is held locally... decryption
// proceeds; otherwise SecretNotFound"; SecretNotFound per-recipient
// during the walk is not fatal, only a total miss is).
func unwrapAnoncrypt(ctx context.Context, jwe *jose.JWE, cfg config.UnpackerConfig, secretsResolver secrets.Resolver) ([]byte, error) {
	kids := jwe.RecipientKids()

	logging.FromContext(ctx).Debug("searching for held anoncrypt recipient secrets", "candidates", len(kids))

	held, err := secretsResolver.FindSecrets(ctx, kids)
	if err != nil {
		return nil, err
	}

	if len(held) == 0 {
		return nil, direrrors.New(direrrors.SecretNotFound, "no recipient key of this anoncrypt envelope is held locally")
	}

	if cfg.ExpectDecryptByAllKeys {
		if len(held) != len(kids) {
			return nil, direrrors.New(direrrors.Malformed, "not every recipient key is held locally")
		}

		var plaintext []byte

		for _, kid := range kids {
			key, err := resolveSecretKey(ctx, secretsResolver, kid)
			if err != nil {
				return nil, err
			}

			pt, err := anoncrypt.Decrypt(jwe, key)
			if err != nil {
				return nil, direrrors.Wrap(direrrors.Malformed, err, "anoncrypt decryption failed for %s", kid)
			}

			plaintext = pt
		}

		return plaintext, nil
	}

	var lastErr error

	for _, kid := range held {
		key, err := resolveSecretKey(ctx, secretsResolver, kid)
		if err != nil {
			lastErr = err

			continue
		}

		plaintext, err := anoncrypt.Decrypt(jwe, key)
		if err != nil {
			lastErr = err

			continue
		}

		return plaintext, nil
	}

	return nil, direrrors.Wrap(direrrors.Malformed, lastErr, "no held recipient key decrypted the anoncrypt envelope")
}

// unwrapAuthcrypt decrypts jwe for whichever recipient kid is held
// locally, resolving the sender's static public key from the envelope's
// apu header (spec §4.5/§4.9).
func unwrapAuthcrypt(ctx context.Context, jwe *jose.JWE, cfg config.UnpackerConfig, didResolver did.Resolver, secretsResolver secrets.Resolver) ([]byte, string, error) {
	header, err := jose.DecodeJWEProtectedHeader(jwe.Protected)
	if err != nil {
		return nil, "", err
	}

	if header.APU == "" {
		return nil, "", direrrors.New(direrrors.Malformed, "authcrypt envelope carries no apu")
	}

	senderKidRaw, err := base64.RawURLEncoding.DecodeString(header.APU)
	if err != nil {
		return nil, "", direrrors.Wrap(direrrors.Malformed, err, "invalid apu encoding")
	}

	senderKid := string(senderKidRaw)

	_, senderKey, err := resolveVerificationKey(ctx, didResolver, senderKid)
	if err != nil {
		return nil, "", err
	}

	kids := jwe.RecipientKids()

	logging.FromContext(ctx).Debug("searching for held authcrypt recipient secrets", "candidates", len(kids))

	held, err := secretsResolver.FindSecrets(ctx, kids)
	if err != nil {
		return nil, "", err
	}

	if len(held) == 0 {
		return nil, "", direrrors.New(direrrors.SecretNotFound, "no recipient key of this authcrypt envelope is held locally")
	}

	if cfg.ExpectDecryptByAllKeys {
		if len(held) != len(kids) {
			return nil, "", direrrors.New(direrrors.Malformed, "not every recipient key is held locally")
		}

		var plaintext []byte

		for _, kid := range kids {
			key, err := resolveSecretKey(ctx, secretsResolver, kid)
			if err != nil {
				return nil, "", err
			}

			pt, err := authcrypt.Decrypt(jwe, key, senderKey)
			if err != nil {
				return nil, "", direrrors.Wrap(direrrors.Malformed, err, "authcrypt decryption failed for %s", kid)
			}

			plaintext = pt
		}

		return plaintext, senderKid, nil
	}

	var lastErr error

	for _, kid := range held {
		key, err := resolveSecretKey(ctx, secretsResolver, kid)
		if err != nil {
			lastErr = err

			continue
		}

		plaintext, err := authcrypt.Decrypt(jwe, key, senderKey)
		if err != nil {
			lastErr = err

			continue
		}

		return plaintext, senderKid, nil
	}

	return nil, "", direrrors.Wrap(direrrors.Malformed, lastErr, "no held recipient key decrypted the authcrypt envelope")
}

// resolveVerificationKey resolves kid's DID document and returns its
// verification method and internal key, used for both JWS verification
// and authcrypt sender-key resolution.
func resolveVerificationKey(ctx context.Context, didResolver did.Resolver, kid string) (*did.VerificationMethod, *jwk.Key, error) {
	docDID, err := did.ControllerDID(kid)
	if err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx).Debug("resolving verification key", "did", docDID, "kid", kid)

	doc, err := didResolver.Resolve(ctx, docDID)
	if err != nil {
		return nil, nil, direrrors.Wrap(direrrors.DIDNotResolved, err, "failed to resolve %s", docDID)
	}

	if doc == nil {
		return nil, nil, direrrors.New(direrrors.DIDNotResolved, "%s did not resolve", docDID)
	}

	vm, ok := doc.VerificationMethodByID(kid)
	if !ok {
		return nil, nil, direrrors.New(direrrors.DIDUrlNotFound, "verification method %s not found", kid)
	}

	key, err := did.ResolveKey(*vm)
	if err != nil {
		return nil, nil, err
	}

	return vm, key, nil
}
