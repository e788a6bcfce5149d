// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

package keyagreement

import "github.com/didcommx/didcomm-go/jwk"

// KeyWrapBits is the bit length of an A256KW key-wrapping key, the only
// key-wrap algorithm spec §4.5 supports.
const KeyWrapBits = 256

// DeriveAnoncryptKEK derives the A256KW key-encryption key for one
// recipient under ECDH-ES (spec §4.5 "Anoncrypt"): Concat KDF over the
// raw ECDH shared secret between an ephemeral sender key and the
// recipient's static key, with "ECDH-ES+A256KW" as the KDF AlgorithmID.
func DeriveAnoncryptKEK(ephemeral, recipientPub *jwk.Key, apu, apv []byte) ([]byte, error) {
	z, err := ephemeral.ECDH(recipientPub)
	if err != nil {
		return nil, err
	}

	return ConcatKDF(z, []byte("ECDH-ES+A256KW"), apu, apv, KeyWrapBits), nil
}

// DeriveAuthcryptKEK derives the A256KW key-encryption key for one
// recipient under ECDH-1PU (spec §4.5 "Authcrypt"): Z is the
// concatenation Ze || Zs of the ephemeral-recipient and
// sender-static-recipient-static ECDH outputs (draft-madden-jose-ecdh-1pu
// §4), fed through the same Concat KDF with "ECDH-1PU+A256KW" as
// AlgorithmID.
func DeriveAuthcryptKEK(ephemeral, senderStatic, recipientPub *jwk.Key, apu, apv []byte) ([]byte, error) {
	ze, err := ephemeral.ECDH(recipientPub)
	if err != nil {
		return nil, err
	}

	zs, err := senderStatic.ECDH(recipientPub)
	if err != nil {
		return nil, err
	}

	z := append(append([]byte{}, ze...), zs...)

	return ConcatKDF(z, []byte("ECDH-1PU+A256KW"), apu, apv, KeyWrapBits), nil
}
