package clerk

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemKey)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	key, pemKey := generateKeyPair(t)
	v, err := NewVerifier(pemKey)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := signToken(t, key, jwt.MapClaims{
		"sub":        "u_1",
		"email":      "a@b.com",
		"first_name": "Alice",
		"last_name":  "Birch",
		"image_url":  "https://img.example/alice.png",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "u_1" {
		t.Errorf("subject = %q, want %q", id.Subject, "u_1")
	}
	if id.Email != "a@b.com" {
		t.Errorf("email = %q, want %q", id.Email, "a@b.com")
	}
	if got := id.Name(); got != "Alice Birch" {
		t.Errorf("name = %q, want %q", got, "Alice Birch")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	key, pemKey := generateKeyPair(t)
	v, _ := NewVerifier(pemKey)

	token := signToken(t, key, jwt.MapClaims{
		"sub": "u_1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	key, pemKey := generateKeyPair(t)
	v, _ := NewVerifier(pemKey)

	token := signToken(t, key, jwt.MapClaims{
		"sub":   "u_1",
		"email": "a@b.com",
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for token without an expiry claim")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	key, _ := generateKeyPair(t)
	_, otherPEM := generateKeyPair(t)
	v, _ := NewVerifier(otherPEM)

	token := signToken(t, key, jwt.MapClaims{
		"sub": "u_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for token signed with a different key")
	}
}

func TestVerifyRejectsHMAC(t *testing.T) {
	_, pemKey := generateKeyPair(t)
	v, _ := NewVerifier(pemKey)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hmac token: %v", err)
	}

	if _, err := v.Verify(signed); err == nil {
		t.Error("expected error for non-RS256 token")
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	key, pemKey := generateKeyPair(t)
	v, _ := NewVerifier(pemKey)

	token := signToken(t, key, jwt.MapClaims{
		"email": "a@b.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for token without subject")
	}
}

func TestNameWithMissingParts(t *testing.T) {
	id := Identity{FirstName: "Alice"}
	if got := id.Name(); got != "Alice" {
		t.Errorf("name = %q, want %q", got, "Alice")
	}
	empty := Identity{}
	if got := empty.Name(); got != "" {
		t.Errorf("name = %q, want empty", got)
	}
}
