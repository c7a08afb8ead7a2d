// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/sawitrec/internal/config"
)

// RoleAdmin is the role required by the admin API.
const RoleAdmin = "admin"

// DefaultTokenTTL is the lifetime of tokens minted by GenerateToken.
const DefaultTokenTTL = time.Hour

var (
	// ErrAdminDisabled is returned when no admin secret is configured.
	ErrAdminDisabled = errors.New("admin authentication is not configured")

	// ErrInvalidToken wraps every token parsing or verification failure.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret  []byte
	issuer  string
	timeout time.Duration
	now     func() time.Time
}

// NewJWTManager creates a JWT manager from the security configuration.
//
// Tokens are signed with HMAC-SHA256. When cfg.AdminJWTIssuer is set, tokens
// must carry a matching iss claim.
//
// Returns ErrAdminDisabled when AdminJWTSecret is empty.
//
// Example:
//
//	jwtManager, err := auth.NewJWTManager(&cfg.Security)
//	if errors.Is(err, auth.ErrAdminDisabled) {
//	    // admin routes answer 503
//	}
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg == nil || cfg.AdminJWTSecret == "" {
		return nil, ErrAdminDisabled
	}

	return &JWTManager{
		secret:  []byte(cfg.AdminJWTSecret),
		issuer:  cfg.AdminJWTIssuer,
		timeout: DefaultTokenTTL,
		now:     time.Now,
	}, nil
}

// GenerateToken creates a signed token for username with role, valid for ttl.
// A ttl of zero uses DefaultTokenTTL.
func (m *JWTManager) GenerateToken(username, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.timeout
	}
	now := m.now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies the signature, algorithm, expiry and issuer of
// tokenString and returns its claims.
//
// Only HS256 is accepted, which rejects "none" and RS256 algorithm confusion.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	return claims, nil
}
