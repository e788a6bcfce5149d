// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package did is the DID-URL resolution component (spec §4.1/C2): the DID
// document shape and the logic that binds a DID or DID-URL to concrete
// verification methods. Grounded on server/identity/did/did.go's
// DIDDocument/VerificationMethod/Service shapes, generalized from the
// AT-Protocol-specific PLC method to the full W3C DID Core document spec
// §3 requires (keyAgreement, DIDCommMessaging service).
package did

import "encoding/json"

// Document is a W3C DID document, restricted to the members this module's
// pack/unpack pipeline needs.
type Document struct {
	ID                 string               `json:"id"`
	AlsoKnownAs        []string             `json:"alsoKnownAs,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
	KeyAgreement       []string             `json:"keyAgreement,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// VerificationMethodType is one of the recognized verification-method
// type tags (spec §6).
type VerificationMethodType string

const (
	TypeJsonWebKey2020                    VerificationMethodType = "JsonWebKey2020"
	TypeX25519KeyAgreementKey2019         VerificationMethodType = "X25519KeyAgreementKey2019"
	TypeEd25519VerificationKey2018        VerificationMethodType = "Ed25519VerificationKey2018"
	TypeEcdsaSecp256k1VerificationKey2019 VerificationMethodType = "EcdsaSecp256k1VerificationKey2019"
	TypeX25519KeyAgreementKey2020         VerificationMethodType = "X25519KeyAgreementKey2020"
	TypeEd25519VerificationKey2020        VerificationMethodType = "Ed25519VerificationKey2020"
)

// VerificationMethod represents a verification method in a DID document.
// Material carries exactly one of the five variants spec §3/§9 defines;
// VerificationMethod.Material reports which.
type VerificationMethod struct {
	ID         string                  `json:"id"`
	Type       VerificationMethodType  `json:"type"`
	Controller string                  `json:"controller"`

	PublicKeyJwk       json.RawMessage `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string          `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string          `json:"publicKeyBase58,omitempty"`
	PublicKeyHex       string          `json:"publicKeyHex,omitempty"`
	Other              json.RawMessage `json:"-"`
}

// MaterialVariant identifies which verification-material arm a
// VerificationMethod carries.
type MaterialVariant int

const (
	MaterialNone MaterialVariant = iota
	MaterialJWK
	MaterialMultibase
	MaterialBase58
	MaterialHex
	MaterialOther
)

// Material reports which verification-material variant vm carries.
func (vm VerificationMethod) Material() MaterialVariant {
	switch {
	case len(vm.PublicKeyJwk) > 0:
		return MaterialJWK
	case vm.PublicKeyMultibase != "":
		return MaterialMultibase
	case vm.PublicKeyBase58 != "":
		return MaterialBase58
	case vm.PublicKeyHex != "":
		return MaterialHex
	case len(vm.Other) > 0:
		return MaterialOther
	default:
		return MaterialNone
	}
}

// ServiceType identifies the type tag of a Service entry.
const ServiceTypeDIDCommMessaging = "DIDCommMessaging"

// Service is a DID document service endpoint entry.
type Service struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	ServiceEndpoint json.RawMessage `json:"serviceEndpoint"`
}

// DIDCommMessagingService is the decoded form of a DIDCommMessaging
// service entry's serviceEndpoint member.
type DIDCommMessagingService struct {
	URI         string   `json:"uri"`
	Accept      []string `json:"accept,omitempty"`
	RoutingKeys []string `json:"routing_keys,omitempty"`
}

// DIDCommServices decodes every DIDCommMessaging service entry in d.
func (d *Document) DIDCommServices() ([]DIDCommMessagingService, error) {
	var out []DIDCommMessagingService

	for _, svc := range d.Service {
		if svc.Type != ServiceTypeDIDCommMessaging {
			continue
		}

		var entry DIDCommMessagingService
		if err := json.Unmarshal(svc.ServiceEndpoint, &entry); err != nil {
			// Some documents encode serviceEndpoint as a bare URI string.
			var uri string
			if err2 := json.Unmarshal(svc.ServiceEndpoint, &uri); err2 != nil {
				continue
			}

			entry = DIDCommMessagingService{URI: uri}
		}

		out = append(out, entry)
	}

	return out, nil
}

// VerificationMethodByID returns the verification method with the given
// full DID-URL id, searching d.VerificationMethod directly.
func (d *Document) VerificationMethodByID(id string) (*VerificationMethod, bool) {
	for i := range d.VerificationMethod {
		if d.VerificationMethod[i].ID == id {
			return &d.VerificationMethod[i], true
		}
	}

	return nil, false
}

// resolveRefs maps the id references of a relationship list (e.g.
// Authentication, KeyAgreement) to the matching entries of
// d.VerificationMethod, in list order. Only references by id are
// handled; an id with no matching verification method is skipped.
func (d *Document) resolveRefs(refs []string) []VerificationMethod {
	out := make([]VerificationMethod, 0, len(refs))

	for _, ref := range refs {
		if vm, ok := d.VerificationMethodByID(ref); ok {
			out = append(out, *vm)
		}
	}

	return out
}

// KeyAgreementMethods returns the verification methods listed in
// d.KeyAgreement, in document order.
func (d *Document) KeyAgreementMethods() []VerificationMethod {
	return d.resolveRefs(d.KeyAgreement)
}

// AuthenticationMethods returns the verification methods listed in
// d.Authentication, in document order.
func (d *Document) AuthenticationMethods() []VerificationMethod {
	return d.resolveRefs(d.Authentication)
}
