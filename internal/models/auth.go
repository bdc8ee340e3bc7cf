package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of tokens issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// DisplayName falls back to the email when the token carries no name.
func (c *JWTClaims) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Email
}
