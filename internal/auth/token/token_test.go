package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestSignAccessCarriesIdentityClaims(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	signed, err := SignAccess(userID, "coordinator", "Dana Reyes", time.Minute, secret)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != userID.String() {
		t.Fatalf("sub = %v, want %s", claims["sub"], userID)
	}
	if claims["role"] != "coordinator" {
		t.Fatalf("role = %v, want coordinator", claims["role"])
	}
	if claims["name"] != "Dana Reyes" {
		t.Fatalf("name = %v, want Dana Reyes", claims["name"])
	}
}

func TestSignAccessExpiredTokenRejected(t *testing.T) {
	signed, err := SignAccess(uuid.New(), "technician", "Sam", -time.Minute, "test-secret")
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	_, err = jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err == nil {
		t.Fatal("expected expired token to fail parsing")
	}
}
