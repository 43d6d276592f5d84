// Package testhelpers provides utilities for testing ekaya-bi components.
package testhelpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestSigningKey is the HS256 key tests configure their validators with.
const TestSigningKey = "test-signing-key-for-ekaya-bi"

// TestTokenAudience matches the default issuer and audience.
const TestTokenAudience = "BusinessIntelligenceApp"

// TokenOption adjusts the claims of a test token before signing.
type TokenOption func(jwt.MapClaims)

// WithClaim sets an arbitrary claim.
func WithClaim(name string, value any) TokenOption {
	return func(c jwt.MapClaims) { c[name] = value }
}

// ExpiredBy backdates the token so it expired d ago.
func ExpiredBy(d time.Duration) TokenOption {
	return func(c jwt.MapClaims) {
		c["exp"] = time.Now().Add(-d).Unix()
	}
}

// GenerateTestJWT signs an HS256 token for subject with TestSigningKey,
// valid for an hour, issued by and for TestTokenAudience.
func GenerateTestJWT(t *testing.T, subject string, opts ...TokenOption) string {
	t.Helper()
	return GenerateTestJWTWithKey(t, TestSigningKey, subject, opts...)
}

// GenerateTestJWTWithKey is GenerateTestJWT with a caller-chosen key.
func GenerateTestJWTWithKey(t *testing.T, key, subject string, opts ...TokenOption) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"iss":  TestTokenAudience,
		"aud":  TestTokenAudience,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"name": "Test User",
	}
	for _, opt := range opts {
		opt(claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

// GenerateTestJWTWithBearer returns the token with the "Bearer " prefix.
func GenerateTestJWTWithBearer(t *testing.T, subject string, opts ...TokenOption) string {
	t.Helper()
	return "Bearer " + GenerateTestJWT(t, subject, opts...)
}
