// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package did

import (
	"strings"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// IsDID reports whether s has the "did:<method>:<id>" shape.
func IsDID(s string) bool {
	parts := strings.SplitN(s, ":", 3)
	return len(parts) == 3 && parts[0] == "did" && parts[1] != "" && parts[2] != ""
}

// ParseDIDURL splits a DID-URL into its DID and fragment, enforcing spec
// §3 Invariant 1: a key reference is always a full DID-URL
// ("did:method:id#fragment"); a bare fragment is rejected.
func ParseDIDURL(kid string) (didPart, fragment string, err error) {
	if strings.HasPrefix(kid, "#") || !strings.Contains(kid, ":") {
		return "", "", direrrors.New(direrrors.IllegalArgument, "key reference %q is not a full DID-URL", kid)
	}

	idx := strings.Index(kid, "#")
	if idx < 0 {
		return kid, "", nil
	}

	didPart = kid[:idx]
	fragment = kid[idx+1:]

	if !IsDID(didPart) {
		return "", "", direrrors.New(direrrors.IllegalArgument, "key reference %q is not a full DID-URL", kid)
	}

	return didPart, fragment, nil
}

// ControllerDID returns the bare DID of a DID-URL (or of did itself if it
// carries no fragment).
func ControllerDID(didURL string) (string, error) {
	base, _, err := ParseDIDURL(didURL)
	if err != nil {
		return "", err
	}

	return base, nil
}

// SameController reports whether a and b (full DID-URLs) share the same
// controller DID, as spec §3 Invariant 4 requires of sign_by and from.
func SameController(a, b string) (bool, error) {
	da, err := ControllerDID(a)
	if err != nil {
		return false, err
	}

	db, err := ControllerDID(b)
	if err != nil {
		return false, err
	}

	return da == db, nil
}
