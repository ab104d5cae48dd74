package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "SIC042", 5)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	id, claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil || id != 42 || claims.SIC != "SIC042" {
		t.Fatalf("parse = %d, %+v, %v", id, claims, err)
	}
	if _, _, err := ParseAccessToken("other", tok.Token); err != ErrInvalidToken {
		t.Fatalf("wrong secret accepted: %v", err)
	}
}

func TestExpiredAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "SIC001", -1)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, _, err := ParseAccessToken("s3cret", tok.Token); err != ErrInvalidToken {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(1)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d", len(rt.Raw))
	}
	if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) || HashRefreshRaw(rt.Raw) == rt.Raw {
		t.Fatal("hash not stable")
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(h, "hunter22") || VerifyPassword(h, "hunter23") {
		t.Fatal("verify mismatch")
	}
}
