// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package did

import "context"

// Resolver is the DID Resolver capability interface (spec §4.1). It is
// treated as an external collaborator: this module specifies only the
// contract, not an implementation. Absence of a DID document is reported
// by returning (nil, nil), distinct from a resolution failure (non-nil
// error).
type Resolver interface {
	// Resolve returns the DID document for did, or (nil, nil) if did is
	// unknown to the resolver. Implementations should return an
	// *internal/errors.Error with Kind DIDNotResolved on transport
	// failure, or Kind Malformed on an invalid document.
	Resolve(ctx context.Context, did string) (*Document, error)
}
