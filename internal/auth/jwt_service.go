// Package auth issues and verifies the bearer tokens accepted by the drive gateway.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL defines the fallback validity period for access tokens.
const DefaultAccessTokenTTL = 15 * time.Minute

// Scopes understood by the gateway.
const (
	ScopeRead  = "drive:read"
	ScopeWrite = "drive:write"
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs.
type Claims struct {
	Scopes []string `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope. drive:write implies drive:read.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	if slices.Contains(c.Scopes, scope) {
		return true
	}
	return scope == ScopeRead && slices.Contains(c.Scopes, ScopeWrite)
}

// AccessTokenInput holds the parameters used when generating a new access token.
type AccessTokenInput struct {
	Subject  string
	Scopes   []string
	Audience []string
	// TTL overrides the service default when positive.
	TTL time.Duration
}

// JWTService is responsible for issuing and validating JSON Web Tokens.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// GenerateAccessToken issues a signed JWT for the given subject and scopes.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return "", errors.New("jwt: subject is required")
	}
	if len(input.Scopes) == 0 {
		return "", errors.New("jwt: at least one scope is required")
	}
	for _, scope := range input.Scopes {
		if scope != ScopeRead && scope != ScopeWrite {
			return "", fmt.Errorf("jwt: unknown scope %q", scope)
		}
	}

	ttl := s.ttl
	if input.TTL > 0 {
		ttl = input.TTL
	}

	now := s.now()
	claims := &Claims{
		Scopes: slices.Clone(input.Scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  input.Audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a signed JWT, returning the application claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.Subject == "" {
		return nil, errors.New("jwt: missing subject claim")
	}

	return &claims, nil
}
