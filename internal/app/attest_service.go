package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// AttestService signs short-lived match result tokens. A client can present
// the token to external services (leaderboards, reward backends) as proof of
// an outcome without those services reading match storage.
type AttestService struct {
	secret string
	issuer string
	ttl    time.Duration
}

func NewAttestService(secret, issuer string, ttl time.Duration) *AttestService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AttestService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}
}

// ResultClaims is the attested match outcome.
type ResultClaims struct {
	MatchIDHash string
	Winner      string
	Loser       string
	WinnerSales uint32
	LoserSales  uint32
	PotAwarded  int64
}

// SignResult produces a signed HS256 token over a finalized match outcome.
func (s *AttestService) SignResult(rc ResultClaims) (string, error) {
	if s == nil {
		return "", fmt.Errorf("attest service is nil")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("attest config is incomplete")
	}
	if rc.MatchIDHash == "" {
		return "", fmt.Errorf("match id hash is required")
	}
	if rc.Winner == "" {
		return "", fmt.Errorf("winner is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":          s.issuer,
		"sub":          rc.Winner,
		"exp":          now.Add(s.ttl).Unix(),
		"iat":          now.Unix(),
		"jti":          fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
		"match":        rc.MatchIDHash,
		"loser":        rc.Loser,
		"winner_sales": rc.WinnerSales,
		"loser_sales":  rc.LoserSales,
		"pot":          rc.PotAwarded,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
