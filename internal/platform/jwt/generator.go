// Package jwtmw issues and verifies access tokens.
package jwtmw

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// EnvKeyJWTSecret names the variable holding the signing key.
	EnvKeyJWTSecret = "JWT_SECRET"
	// EnvKeyJWTExpiration names the variable holding the token lifetime (time.ParseDuration format).
	EnvKeyJWTExpiration = "JWT_EXPIRATION"

	defaultExpiration = time.Hour
)

// Config holds the token signing settings.
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfigFromEnv reads JWT_SECRET and JWT_EXPIRATION.
// An empty secret is an error; an unparsable or non-positive expiration falls back to one hour.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		Expiration: defaultExpiration,
	}
	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("%s is not set", EnvKeyJWTSecret)
	}
	if raw := os.Getenv(EnvKeyJWTExpiration); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Expiration = d
		}
	}
	return cfg, nil
}

// Generator signs HS256 access tokens.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed token carrying sub, email, role, iat and exp.
func (g *Generator) GenerateToken(userID uint, email, role string) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(g.expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Expiration returns the lifetime of generated tokens.
func (g *Generator) Expiration() time.Duration {
	return g.expiration
}
