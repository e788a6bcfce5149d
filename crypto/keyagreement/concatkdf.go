// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package keyagreement is the key-agreement/derivation half of the
// encrypt engine (spec §4.5/C5): the Concat KDF (RFC 7518 §4.6,
// NIST SP 800-56A) that both ECDH-ES (anoncrypt) and ECDH-1PU (authcrypt)
// use to turn a raw ECDH shared secret into a key-wrapping key, and the
// curve-selection glue around it.
package keyagreement

import (
	"crypto/sha256"
	"encoding/binary"
)

// ConcatKDF implements the single-step Concat KDF RFC 7518 §4.6.2
// specifies: repeated SHA-256(counter || z || otherInfo), truncated to
// keyLenBits. otherInfo is AlgorithmID || PartyUInfo || PartyVInfo ||
// SuppPubInfo || SuppPrivInfo, each length-prefixed per §4.6.2 except
// where noted by the caller.
func ConcatKDF(z []byte, algID, apu, apv []byte, keyLenBits int) []byte {
	otherInfo := concatOtherInfo(algID, apu, apv, keyLenBits)

	keyLenBytes := keyLenBits / 8

	out := make([]byte, 0, keyLenBytes)

	for counter := uint32(1); len(out) < keyLenBytes; counter++ {
		h := sha256.New()

		var counterBytes [4]byte
		binary.BigEndian.PutUint32(counterBytes[:], counter)

		h.Write(counterBytes[:])
		h.Write(z)
		h.Write(otherInfo)

		out = append(out, h.Sum(nil)...)
	}

	return out[:keyLenBytes]
}

func concatOtherInfo(algID, apu, apv []byte, keyLenBits int) []byte {
	var suppPub [4]byte
	binary.BigEndian.PutUint32(suppPub[:], uint32(keyLenBits))

	var buf []byte
	buf = append(buf, lengthPrefixed(algID)...)
	buf = append(buf, lengthPrefixed(apu)...)
	buf = append(buf, lengthPrefixed(apv)...)
	buf = append(buf, suppPub[:]...)

	return buf
}

func lengthPrefixed(b []byte) []byte {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(b)))

	return append(prefix[:], b...)
}
