package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims is the session token issued by the identity provider. Only
// UserID is read here.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
