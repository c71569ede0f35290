// Package totpx implements RFC 6238 time-based one-time passwords on top of
// pquerna/otp with the parameters every mainstream authenticator app
// understands: SHA1, 30 second steps, 6 digits.
package totpx

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the time step in seconds.
	Period = 30
	// Digits is the code length.
	Digits = otp.DigitsSix
	// SecretSize is the secret length in bytes (160 bits).
	SecretSize = 20
	// DefaultWindow accepts one step of clock drift either side.
	DefaultWindow = 1
)

var (
	ErrEmptySecret  = errors.New("totpx: empty secret")
	ErrEmptyAccount = errors.New("totpx: empty account name")
	ErrEmptyIssuer  = errors.New("totpx: empty issuer")
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh 160-bit secret, base32 encoded without
// padding. An error means the system entropy source failed.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totpx: read entropy: %w", err)
	}
	return b32NoPadding.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// URI an authenticator app imports.
// The same inputs always produce the same URI.
func ProvisioningURI(secret, account, issuer string) (string, error) {
	switch {
	case strings.TrimSpace(secret) == "":
		return "", ErrEmptySecret
	case strings.TrimSpace(account) == "":
		return "", ErrEmptyAccount
	case strings.TrimSpace(issuer) == "":
		return "", ErrEmptyIssuer
	}

	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		Secret:      raw,
		Digits:      Digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("totpx: build uri: %w", err)
	}
	return key.URL(), nil
}

// Verify reports whether code is valid for secret at the current time,
// tolerating window steps of drift either side.
func Verify(secret, code string, window uint) bool {
	return VerifyAt(secret, code, window, time.Now())
}

// VerifyAt is Verify at an explicit instant. Malformed secrets and codes
// are simply not valid. The comparison is constant time.
func VerifyAt(secret, code string, window uint, t time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || len(code) != Digits.Length() {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, t.UTC(), validateOpts(window))
	return err == nil && ok
}

// GenerateCode returns the code for secret at t.
func GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), validateOpts(0))
}

func validateOpts(window uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      window,
		Digits:    Digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	s = strings.TrimRight(s, "=")
	raw, err := b32NoPadding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("totpx: secret is not base32: %w", err)
	}
	return raw, nil
}
