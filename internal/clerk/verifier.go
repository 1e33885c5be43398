// Package clerk verifies Clerk session tokens without a network round trip,
// using the instance's RSA public key.
package clerk

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified content of a session token.
type Identity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// Name joins first and last name, either of which may be empty.
func (id Identity) Name() string {
	return strings.TrimSpace(strings.TrimSpace(id.FirstName) + " " + strings.TrimSpace(id.LastName))
}

type sessionClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	jwt.RegisteredClaims
}

// Verifier checks session-token signatures and expiry.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses the PEM-encoded RSA public key published for the
// identity provider instance.
func NewVerifier(pemKey string) (*Verifier, error) {
	if pemKey == "" {
		return nil, fmt.Errorf("empty verification key")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}
	return &Verifier{publicKey: key}, nil
}

// Verify validates the token signature and registered claims and returns the
// identity it asserts. Expired, tampered, or non-RS256 tokens fail, as do
// tokens minted without an expiry.
func (v *Verifier) Verify(token string) (*Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return v.publicKey, nil },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify session token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("session token missing subject")
	}
	return &Identity{
		Subject:   claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		ImageURL:  claims.ImageURL,
	}, nil
}
