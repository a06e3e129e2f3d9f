package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-42", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseJWT("Bearer "+token, "s3cret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["id"] != "user-42" {
		t.Fatalf("expected id claim user-42, got %v", claims["id"])
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _ := GenerateJWT("user-42", "s3cret", time.Hour)
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestFCurrency(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"100":     decimal.NewFromInt(100),
		"1,234":   decimal.NewFromInt(1234),
		"1,234.5": decimal.RequireFromString("1234.5"),
		"99.99":   decimal.RequireFromString("99.99"),
	}
	for want, in := range cases {
		if got := FCurrency(in); got != want {
			t.Errorf("FCurrency(%s) = %q, want %q", in, got, want)
		}
	}
}
