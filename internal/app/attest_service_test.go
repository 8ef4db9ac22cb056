package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestAttestServiceSignResult(t *testing.T) {
	secret := "test-secret"
	issuer := "droog"

	svc := NewAttestService(secret, issuer, time.Hour)
	tokenString, err := svc.SignResult(ResultClaims{
		MatchIDHash: "abc123",
		Winner:      "player-a",
		Loser:       "player-b",
		WinnerSales: 7,
		LoserSales:  4,
		PotAwarded:  1_800_000,
	})
	if err != nil {
		t.Fatalf("sign result error: %v", err)
	}

	claims := parseResultClaims(t, tokenString, secret)

	if got := stringClaim(t, claims, "iss"); got != issuer {
		t.Fatalf("iss = %s, want %s", got, issuer)
	}
	if got := stringClaim(t, claims, "sub"); got != "player-a" {
		t.Fatalf("sub = %s, want player-a", got)
	}
	if got := stringClaim(t, claims, "match"); got != "abc123" {
		t.Fatalf("match = %s, want abc123", got)
	}
	if got := stringClaim(t, claims, "loser"); got != "player-b" {
		t.Fatalf("loser = %s, want player-b", got)
	}
	// Numeric claims round-trip through JSON as float64.
	if got, ok := claims["winner_sales"].(float64); !ok || got != 7 {
		t.Fatalf("winner_sales = %v, want 7", claims["winner_sales"])
	}
	if got, ok := claims["pot"].(float64); !ok || got != 1_800_000 {
		t.Fatalf("pot = %v, want 1800000", claims["pot"])
	}
}

func TestAttestServiceSignResultRequiresConfig(t *testing.T) {
	svc := NewAttestService("", "droog", time.Hour)
	if _, err := svc.SignResult(ResultClaims{MatchIDHash: "abc", Winner: "p"}); err == nil {
		t.Fatal("expected error for missing attest config")
	}
}

func TestAttestServiceSignResultRequiresWinner(t *testing.T) {
	svc := NewAttestService("secret", "droog", time.Hour)
	if _, err := svc.SignResult(ResultClaims{MatchIDHash: "abc"}); err == nil {
		t.Fatal("expected error for missing winner")
	}
}

func TestAttestServiceSignResultRequiresMatchHash(t *testing.T) {
	svc := NewAttestService("secret", "droog", time.Hour)
	if _, err := svc.SignResult(ResultClaims{Winner: "p"}); err == nil {
		t.Fatal("expected error for missing match hash")
	}
}

func parseResultClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if !token.Valid {
		t.Fatal("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	return claims
}

func stringClaim(t *testing.T, claims jwt.MapClaims, name string) string {
	t.Helper()
	value, ok := claims[name]
	if !ok {
		t.Fatalf("missing %s claim", name)
	}
	str, ok := value.(string)
	if !ok {
		t.Fatalf("%s claim is not a string", name)
	}
	return str
}
