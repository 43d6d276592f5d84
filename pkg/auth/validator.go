package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator checks a raw JWT and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// ValidatorConfig selects the key source and the expected claims.
// JWKSURL takes precedence over SigningKey. An empty Issuer or Audience
// skips that check.
type ValidatorConfig struct {
	Issuer     string
	Audience   string
	SigningKey string
	JWKSURL    string
	Leeway     time.Duration
}

type jwtValidator struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// NewTokenValidator builds an HS256 validator over SigningKey, or an RS256
// validator whose keys are fetched from JWKSURL and refreshed in the
// background until ctx is done.
func NewTokenValidator(ctx context.Context, cfg ValidatorConfig) (TokenValidator, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	// An empty expectation would demand an empty claim, so it means "don't check".
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	v := &jwtValidator{}
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client for %s: %w", cfg.JWKSURL, err)
		}
		v.keyFunc = jwks.Keyfunc
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	case cfg.SigningKey != "":
		key := []byte(cfg.SigningKey)
		v.keyFunc = func(*jwt.Token) (any, error) { return key, nil }
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	default:
		return nil, errors.New("either a signing key or a JWKS URL is required")
	}

	v.parser = jwt.NewParser(opts...)
	return v, nil
}

func (v *jwtValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

var _ TokenValidator = (*jwtValidator)(nil)
