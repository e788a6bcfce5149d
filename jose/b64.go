// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package jose is the JOSE framing component (spec §4.3/C3): JWS
// (compact and general-JSON) and JWE (general-JSON) encoding and
// decoding, independent of the key-agreement and signing algorithms that
// produce their contents.
package jose

import "encoding/base64"

// b64url is the padding-free base64url alphabet every DIDComm JOSE
// structure uses (spec §4.3: "base64url encoding is always padding-free").
var b64url = base64.RawURLEncoding

func encode(b []byte) string { return b64url.EncodeToString(b) }

func decode(s string) ([]byte, error) { return b64url.DecodeString(s) }
