// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package jwk is the key-material component (spec §4/C1): parsing and
// serializing the verification-material variants a DID document's
// verification methods can carry (JWK, Multibase, Base58, Hex), and
// converting any of them into one concrete internal Key usable for
// signing, verification, or key agreement.
package jwk

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	lestrratjwk "github.com/lestrrat-go/jwx/v2/jwk"

	direrrors "github.com/didcommx/didcomm-go/internal/errors"
)

var rawURLEncoding = base64.RawURLEncoding

// KeyType is the JWK "kty" member.
type KeyType string

const (
	KeyTypeOKP KeyType = "OKP"
	KeyTypeEC  KeyType = "EC"
)

// Curve is the JWK "crv" member (or the equivalent notion for non-JWK
// material variants).
type Curve string

const (
	CurveEd25519   Curve = "Ed25519"
	CurveX25519    Curve = "X25519"
	CurveP256      Curve = "P-256"
	CurveSecp256k1 Curve = "secp256k1"
)

// Key is this module's internal representation of a single piece of
// verification or key-agreement material, independent of which of the
// spec's verification-material variants it was sourced from.
type Key struct {
	Kid string
	Kty KeyType
	Crv Curve

	// Public holds ed25519.PublicKey, *ecdsa.PublicKey, *ecdh.PublicKey
	// or *secp256k1.PublicKey depending on Crv.
	Public any

	// Private mirrors Public's concrete type set; nil for public-only keys.
	Private any
}

// IsPrivate reports whether k carries private material.
func (k *Key) IsPrivate() bool { return k.Private != nil }

// ParseJWK parses a JSON Web Key (as found in a verification method's
// publicKeyJwk member) into a Key. P-256 and Ed25519 are delegated to
// lestrrat-go/jwx, mirroring server/naming/wellknown/parser.go's
// key.Raw(&rawKey)/key.KeyID() pattern; secp256k1 and X25519 are decoded
// directly since jwx does not register either curve for raw conversion.
func ParseJWK(data []byte) (*Key, error) {
	var head struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid JWK JSON")
	}

	switch {
	case head.Kty == "OKP" && head.Crv == "X25519":
		return parseOKPX25519(data)
	case head.Kty == "EC" && head.Crv == "secp256k1":
		return parseECSecp256k1(data)
	default:
		return parseViaJWX(data)
	}
}

func parseViaJWX(data []byte) (*Key, error) {
	key, err := lestrratjwk.ParseKey(data)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "failed to parse JWK")
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "failed to extract raw key from JWK")
	}

	k := &Key{Kid: key.KeyID()}

	switch pub := raw.(type) {
	case ed25519.PublicKey:
		k.Kty, k.Crv, k.Public = KeyTypeOKP, CurveEd25519, pub
	case ed25519.PrivateKey:
		k.Kty, k.Crv, k.Private, k.Public = KeyTypeOKP, CurveEd25519, pub, pub.Public()
	case *ecdsa.PublicKey:
		crv, err := curveFromEllipticP256(pub.Curve)
		if err != nil {
			return nil, err
		}

		ecdhPub, err := pub.ECDH()
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid P-256 public key")
		}

		k.Kty, k.Crv, k.Public = KeyTypeEC, crv, ecdhPub
	case *ecdsa.PrivateKey:
		crv, err := curveFromEllipticP256(pub.Curve)
		if err != nil {
			return nil, err
		}

		ecdhPriv, err := pub.ECDH()
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid P-256 private key")
		}

		k.Kty, k.Crv, k.Private, k.Public = KeyTypeEC, crv, ecdhPriv, ecdhPriv.Public()
	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported JWK raw key type %T", raw)
	}

	return k, nil
}

func curveFromEllipticP256(c elliptic.Curve) (Curve, error) {
	if c == elliptic.P256() {
		return CurveP256, nil
	}

	return "", direrrors.New(direrrors.Unsupported, "unsupported EC curve %s", c.Params().Name)
}

func parseOKPX25519(data []byte) (*Key, error) {
	var raw struct {
		X string `json:"x"`
		D string `json:"d,omitempty"`
		Kid string `json:"kid,omitempty"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 JWK")
	}

	xBytes, err := b64Decode(raw.X)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 JWK x member")
	}

	pub, err := ecdh.X25519().NewPublicKey(xBytes)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 public key")
	}

	k := &Key{Kid: raw.Kid, Kty: KeyTypeOKP, Crv: CurveX25519, Public: pub}

	if raw.D != "" {
		dBytes, err := b64Decode(raw.D)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 JWK d member")
		}

		priv, err := ecdh.X25519().NewPrivateKey(dBytes)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid X25519 private key")
		}

		k.Private = priv
	}

	return k, nil
}

func parseECSecp256k1(data []byte) (*Key, error) {
	var raw struct {
		X   string `json:"x"`
		Y   string `json:"y"`
		D   string `json:"d,omitempty"`
		Kid string `json:"kid,omitempty"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 JWK")
	}

	xBytes, err := b64Decode(raw.X)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 JWK x member")
	}

	yBytes, err := b64Decode(raw.Y)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 JWK y member")
	}

	uncompressed := append([]byte{0x04}, append(xBytes, yBytes...)...)

	pub, err := secp256k1.ParsePubKey(uncompressed)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 public key")
	}

	k := &Key{Kid: raw.Kid, Kty: KeyTypeEC, Crv: CurveSecp256k1, Public: pub.ToECDSA()}

	if raw.D != "" {
		dBytes, err := b64Decode(raw.D)
		if err != nil {
			return nil, direrrors.Wrap(direrrors.Malformed, err, "invalid secp256k1 JWK d member")
		}

		priv := secp256k1.PrivKeyFromBytes(dBytes)
		k.Private = priv.ToECDSA()
	}

	return k, nil
}

// MarshalJWK serializes k as a JSON Web Key, including the private "d"
// member when k.IsPrivate().
func (k *Key) MarshalJWK() (json.RawMessage, error) {
	switch k.Crv {
	case CurveEd25519:
		pub := k.Public.(ed25519.PublicKey)

		var d []byte
		if priv, ok := k.Private.(ed25519.PrivateKey); ok {
			d = priv.Seed()
		}

		return marshalOKP(k, pub, d)

	case CurveX25519:
		pub := k.Public.(*ecdh.PublicKey)

		var d []byte
		if priv, ok := k.Private.(*ecdh.PrivateKey); ok {
			d = priv.Bytes()
		}

		return marshalOKP(k, pub.Bytes(), d)

	case CurveP256:
		x, y, err := ecPointFromPublic(k.Public)
		if err != nil {
			return nil, err
		}

		var d *big.Int
		if priv, ok := k.Private.(*ecdh.PrivateKey); ok {
			d = new(big.Int).SetBytes(priv.Bytes())
		} else if priv, ok := k.Private.(*ecdsa.PrivateKey); ok {
			d = priv.D
		}

		return marshalEC(k, "P-256", x, y, d)

	case CurveSecp256k1:
		pub := k.Public.(*ecdsa.PublicKey)

		var d *big.Int
		if priv, ok := k.Private.(*ecdsa.PrivateKey); ok {
			d = priv.D
		}

		return marshalEC(k, "secp256k1", pub.X, pub.Y, d)

	default:
		return nil, direrrors.New(direrrors.Unsupported, "unsupported curve %s", k.Crv)
	}
}

// ecPointFromPublic extracts the X/Y coordinates from either an
// *ecdsa.PublicKey (secp256k1) or an *ecdh.PublicKey (P-256, which this
// module keeps in ecdh form so jwk.ECDH can use it directly).
func ecPointFromPublic(pub any) (x, y *big.Int, err error) {
	switch p := pub.(type) {
	case *ecdsa.PublicKey:
		return p.X, p.Y, nil
	case *ecdh.PublicKey:
		raw := p.Bytes()
		if len(raw) != 65 || raw[0] != 0x04 {
			return nil, nil, direrrors.New(direrrors.Malformed, "unexpected P-256 point encoding")
		}

		return new(big.Int).SetBytes(raw[1:33]), new(big.Int).SetBytes(raw[33:65]), nil
	default:
		return nil, nil, direrrors.New(direrrors.Unsupported, "unsupported EC public key type %T", pub)
	}
}

func marshalOKP(k *Key, x, d []byte) (json.RawMessage, error) {
	m := map[string]string{
		"kty": "OKP",
		"crv": string(k.Crv),
		"x":   b64Encode(x),
	}
	if k.Kid != "" {
		m["kid"] = k.Kid
	}

	if d != nil {
		m["d"] = b64Encode(d)
	}

	return json.Marshal(m)
}

func marshalEC(k *Key, crv string, x, y, d *big.Int) (json.RawMessage, error) {
	size := 32

	m := map[string]string{
		"kty": "EC",
		"crv": crv,
		"x":   b64Encode(padBigInt(x, size)),
		"y":   b64Encode(padBigInt(y, size)),
	}
	if k.Kid != "" {
		m["kid"] = k.Kid
	}

	if d != nil {
		m["d"] = b64Encode(padBigInt(d, size))
	}

	return json.Marshal(m)
}

func padBigInt(n *big.Int, size int) []byte {
	b := n.Bytes()
	if len(b) >= size {
		return b
	}

	out := make([]byte, size)
	copy(out[size-len(b):], b)

	return out
}

// GenerateX25519 generates an ephemeral X25519 key pair for anoncrypt.
func GenerateX25519() (*Key, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.IoError, err, "failed to generate X25519 key")
	}

	return &Key{Kty: KeyTypeOKP, Crv: CurveX25519, Public: priv.Public(), Private: priv}, nil
}

// GenerateP256 generates an ephemeral P-256 key pair for anoncrypt.
func GenerateP256() (*Key, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, direrrors.Wrap(direrrors.IoError, err, "failed to generate P-256 key")
	}

	return &Key{Kty: KeyTypeEC, Crv: CurveP256, Public: priv.Public(), Private: priv}, nil
}

func b64Decode(s string) ([]byte, error) {
	return rawURLEncoding.DecodeString(s)
}

func b64Encode(b []byte) string {
	return rawURLEncoding.EncodeToString(b)
}
