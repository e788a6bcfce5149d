// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package did

import (
	direrrors "github.com/didcommx/didcomm-go/internal/errors"
	"github.com/didcommx/didcomm-go/jwk"
)

// RecipientKeyAgreements is one recipient's candidate key-agreement
// verification methods, in document order.
type RecipientKeyAgreements struct {
	DID     string
	Methods []VerificationMethod
}

// SelectKeyAgreementCurve implements the key-agreement selection rule of
// spec §4.5: for every recipient, intersect its key-agreement methods'
// curves with supportedCurves; the chosen curve is the first (by
// supportedCurves order) that is non-empty for every recipient, and
// within a recipient the DID-document order of KeyAgreement breaks ties
// among same-curve methods. Returns, for each recipient, the selected
// method. Fails with NoCompatibleCrypto if no curve is shared by all
// recipients.
func SelectKeyAgreementCurve(recipients []RecipientKeyAgreements, supportedCurves []jwk.Curve) (jwk.Curve, []VerificationMethod, error) {
	if len(recipients) == 0 {
		return "", nil, direrrors.New(direrrors.IllegalArgument, "no recipients to select a key-agreement curve for")
	}

	for _, curve := range supportedCurves {
		chosen := make([]VerificationMethod, 0, len(recipients))

		ok := true

		for _, r := range recipients {
			vm, found := firstMethodOnCurve(r.Methods, curve)
			if !found {
				ok = false

				break
			}

			chosen = append(chosen, vm)
		}

		if ok {
			return curve, chosen, nil
		}
	}

	return "", nil, direrrors.New(direrrors.NoCompatibleCrypto, "no key-agreement curve common to all recipients")
}

// firstMethodOnCurve returns the first of methods (in DID-document order)
// whose resolved key material is on curve.
func firstMethodOnCurve(methods []VerificationMethod, curve jwk.Curve) (VerificationMethod, bool) {
	for _, vm := range methods {
		key, err := ResolveKey(vm)
		if err != nil {
			continue
		}

		if key.Crv == curve {
			return vm, true
		}
	}

	return VerificationMethod{}, false
}

// SelectSenderKeyAgreement picks the first of sender's key-agreement
// methods (DID-document order) on curve, for authcrypt sender-key
// selection once the recipient curve has been chosen (spec §4.5,
// Invariant 6: sender curve must match the intersected recipient curve).
func SelectSenderKeyAgreement(methods []VerificationMethod, curve jwk.Curve) (VerificationMethod, error) {
	vm, ok := firstMethodOnCurve(methods, curve)
	if !ok {
		return VerificationMethod{}, direrrors.New(direrrors.NoCompatibleCrypto, "sender has no key-agreement key on curve %s", curve)
	}

	return vm, nil
}
