package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CredentialClaims is the subset of the issuer's access token the terminal reads.
type CredentialClaims struct {
	StaffID string `json:"user_id,omitempty"`
	StoreID string `json:"active_store_id,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
