// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package config is the pack/unpack option surface (spec §4.8-4.9):
// which algorithms a call negotiates and how the unpack walk treats
// ambiguous multi-recipient envelopes. Grounded on the teacher's
// config.LoadConfig — same viper+mapstructure loading shape, same
// BindEnv/SetDefault-per-field style — generalized from gRPC server
// settings to per-call pack/unpack options.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/didcommx/didcomm-go/jose"
	"github.com/didcommx/didcomm-go/jwk"
)

const (
	DefaultEnvPrefix  = "DIDCOMM"
	DefaultConfigName = "didcomm.config"
	DefaultConfigType = "yml"
	DefaultConfigPath = "/etc/didcomm-go"
)

// Default algorithm selections (spec §4.5, §6).
const (
	DefaultEncAlgAuth = jose.EncA256CBCHS512
	DefaultEncAlgAnon = jose.EncXC20P
)

// DefaultSupportedCurves is the key-agreement curve negotiation order
// (spec §4.5: "X25519 and P-256 are the supported families"). X25519
// first mirrors the teacher corpus's and the wider DIDComm ecosystem's
// preference for it over NIST curves; secp256k1 is excluded since it
// supports signing only, never key agreement (jwk.Key.ECDH).
var DefaultSupportedCurves = []jwk.Curve{jwk.CurveX25519, jwk.CurveP256}

// PackerConfig holds the algorithm choices a pack_encrypted call
// negotiates (spec §4.5/§4.8). The zero value is not valid; use
// DefaultPackerConfig.
type PackerConfig struct {
	// EncAlgAuth names the content-encryption algorithm for authcrypt.
	// PackEncrypted does not read it: crypto/authcrypt always uses
	// A256CBC-HS512, the only value supported; other values are reserved.
	EncAlgAuth string `mapstructure:"enc_alg_auth"`

	// EncAlgAnon is the content-encryption algorithm used when packing
	// anoncrypt or forward-wrapping (spec §4.5/§4.6).
	EncAlgAnon string `mapstructure:"enc_alg_anon"`

	// SupportedCurves is the key-agreement curve negotiation order (spec
	// §4.5's "Key-agreement selection").
	SupportedCurves []jwk.Curve `mapstructure:"supported_curves"`

	// ProtectSenderDefault is a default value for pack_encrypted's
	// protect_sender option. PackEncrypted does not read it; only
	// PackEncryptedOptions.ProtectSender decides sender protection.
	ProtectSenderDefault bool `mapstructure:"protect_sender_default"`

	// ForwardDefault is a default value for pack_encrypted's forward
	// option. PackEncrypted does not read it; only
	// PackEncryptedOptions.Forward decides forward wrapping.
	ForwardDefault bool `mapstructure:"forward_default"`
}

// DefaultPackerConfig returns a PackerConfig with production-safe
// defaults (spec §6's default algorithm identifiers).
func DefaultPackerConfig() PackerConfig {
	return PackerConfig{
		EncAlgAuth:       DefaultEncAlgAuth,
		EncAlgAnon:       DefaultEncAlgAnon,
		SupportedCurves:  append([]jwk.Curve(nil), DefaultSupportedCurves...),
		ProtectSenderDefault: false,
		ForwardDefault:       true,
	}
}

// WithDefaults fills any zero-valued field of c with DefaultPackerConfig's
// value, mirroring the teacher's ConnectionConfig.WithDefaults pattern.
func (c PackerConfig) WithDefaults() PackerConfig {
	d := DefaultPackerConfig()

	if c.EncAlgAuth == "" {
		c.EncAlgAuth = d.EncAlgAuth
	}

	if c.EncAlgAnon == "" {
		c.EncAlgAnon = d.EncAlgAnon
	}

	if len(c.SupportedCurves) == 0 {
		c.SupportedCurves = d.SupportedCurves
	}

	return c
}

// UnpackerConfig holds the unpack walk's behavioral options (spec
// §4.9).
type UnpackerConfig struct {
	// ExpectDecryptByAllKeys requires every recipient kid present in a
	// JWE to be held locally and to decrypt successfully; otherwise
	// Malformed. Default behavior (false) succeeds as soon as one
	// recipient decrypts (spec §4.9).
	ExpectDecryptByAllKeys bool `mapstructure:"expect_decrypt_by_all_keys"`

	// UnwrapReWrappingForward re-enters unpack on the inner envelope of a
	// forward message addressed to us, setting re_wrapped_in_forward in
	// the returned metadata (spec §4.9).
	UnwrapReWrappingForward bool `mapstructure:"unwrap_re_wrapping_forward"`
}

// DefaultUnpackerConfig returns an UnpackerConfig with the spec's stated
// defaults: succeed on first decryptable recipient, and stop at a
// forward message rather than auto-rewrapping it.
func DefaultUnpackerConfig() UnpackerConfig {
	return UnpackerConfig{
		ExpectDecryptByAllKeys:  false,
		UnwrapReWrappingForward: false,
	}
}

// Load reads PackerConfig and UnpackerConfig from environment variables
// and an optional config file, following the teacher's BindEnv +
// SetDefault + viper.Unmarshal shape.
func Load() (PackerConfig, UnpackerConfig, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType(DefaultConfigType)
	v.AddConfigPath(DefaultConfigPath)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return PackerConfig{}, UnpackerConfig{}, fmt.Errorf("failed to read didcomm configuration file: %w", err)
		}
	}

	_ = v.BindEnv("packer.enc_alg_auth")
	v.SetDefault("packer.enc_alg_auth", DefaultEncAlgAuth)

	_ = v.BindEnv("packer.enc_alg_anon")
	v.SetDefault("packer.enc_alg_anon", DefaultEncAlgAnon)

	_ = v.BindEnv("packer.protect_sender_default")
	v.SetDefault("packer.protect_sender_default", false)

	_ = v.BindEnv("packer.forward_default")
	v.SetDefault("packer.forward_default", true)

	_ = v.BindEnv("unpacker.expect_decrypt_by_all_keys")
	v.SetDefault("unpacker.expect_decrypt_by_all_keys", false)

	_ = v.BindEnv("unpacker.unwrap_re_wrapping_forward")
	v.SetDefault("unpacker.unwrap_re_wrapping_forward", false)

	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	// Unmarshal reads every leaf key through Get, so environment
	// overrides of nested keys apply (UnmarshalKey on a parent key does not).
	loaded := struct {
		Packer   PackerConfig   `mapstructure:"packer"`
		Unpacker UnpackerConfig `mapstructure:"unpacker"`
	}{Packer: DefaultPackerConfig(), Unpacker: DefaultUnpackerConfig()}

	if err := v.Unmarshal(&loaded, viper.DecodeHook(decodeHooks)); err != nil {
		return PackerConfig{}, UnpackerConfig{}, fmt.Errorf("failed to load didcomm configuration: %w", err)
	}

	return loaded.Packer.WithDefaults(), loaded.Unpacker, nil
}
