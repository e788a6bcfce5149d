// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package did

import (
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jwk"
)

// curveForType maps a verification-method type tag to the curve implied
// by it, for the Base58/Hex material variants which carry no curve
// information of their own (spec §6).
func curveForType(t VerificationMethodType) (jwk.Curve, error) {
	switch t {
	case TypeEd25519VerificationKey2018, TypeEd25519VerificationKey2020:
		return jwk.CurveEd25519, nil
	case TypeX25519KeyAgreementKey2019, TypeX25519KeyAgreementKey2020:
		return jwk.CurveX25519, nil
	case TypeEcdsaSecp256k1VerificationKey2019:
		return jwk.CurveSecp256k1, nil
	default:
		return "", direrrors.New(direrrors.Unsupported, "verification method type %s does not imply a curve", t)
	}
}

// ResolveKey converts vm's verification material into this module's
// internal key representation (spec §9 "Polymorphic verification
// material": every arm has a total conversion to a JWK-equivalent key, or
// surfaces Unsupported).
func ResolveKey(vm VerificationMethod) (*jwk.Key, error) {
	switch vm.Material() {
	case MaterialJWK:
		key, err := jwk.ParseJWK(vm.PublicKeyJwk)
		if err != nil {
			return nil, err
		}

		key.Kid = vm.ID

		return key, nil

	case MaterialMultibase:
		return jwk.ParseMultibase(vm.ID, vm.PublicKeyMultibase)

	case MaterialBase58:
		crv, err := curveForType(vm.Type)
		if err != nil {
			return nil, err
		}

		return jwk.ParseBase58(vm.ID, crv, vm.PublicKeyBase58)

	case MaterialHex:
		crv, err := curveForType(vm.Type)
		if err != nil {
			return nil, err
		}

		return jwk.ParseHex(vm.ID, crv, vm.PublicKeyHex)

	default:
		return nil, direrrors.New(direrrors.Unsupported, "verification method %s carries no supported key material", vm.ID)
	}
}
