package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InspectAccessToken decodes the claims of a marketplace access token
// without verifying its signature.
func InspectAccessToken(tokenString string) (*AccessTokenClaims, error) {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	claims := &AccessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(trimmed, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return claims, nil
}

// ExpiresWithin reports whether the token expires inside the leeway window.
// Tokens without a readable exp are treated as not expiring; the marketplace
// answers 401 for those and the client refreshes then.
func ExpiresWithin(tokenString string, now time.Time, leeway time.Duration) bool {
	claims, err := InspectAccessToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now.Add(leeway))
}
