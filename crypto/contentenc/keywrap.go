// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package contentenc

import (
	josecipher "github.com/go-jose/go-jose/v4/cipher"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

// WrapKey wraps cek under kek with AES-KW (RFC 3394), the only key-wrap
// algorithm spec §4.5 names (A256KW, paired with either ECDH-1PU or
// ECDH-ES).
func WrapKey(kek, cek []byte) ([]byte, error) {
	wrapped, err := josecipher.KeyWrap(kek, cek)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "AES key wrap failed")
	}

	return wrapped, nil
}

// UnwrapKey reverses WrapKey.
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	cek, err := josecipher.KeyUnwrap(kek, wrapped)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "AES key unwrap failed")
	}

	return cek, nil
}
