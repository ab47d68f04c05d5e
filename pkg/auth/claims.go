package auth

import (
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the subset of the marketplace access token the
// storefront reads. The storefront never holds the signing secret, so these
// claims are informational only: authorization stays with the marketplace.
type AccessTokenClaims struct {
	UserID string         `json:"user_id,omitempty"`
	Role   enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}
