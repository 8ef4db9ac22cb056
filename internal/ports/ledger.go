package ports

import (
	"context"

	"droog/internal/domain"
)

// WalletUpdate represents a single currency change for a user, applied
// atomically with the record writes of the same commit.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// MatchRecords bundles the independently addressable per-match records.
// All of them are correlated only by the shared match identifier; the app
// layer cross-checks that identifier on every operation spanning records.
type MatchRecords struct {
	Match    *domain.Match
	Grow     *domain.GrowState
	Delivery *domain.DeliveryState
	Stake    *domain.Stake

	// EscrowBalance is the authoritative escrow value balance. The stake
	// record's escrowed fields are an accounting cache only. Reducing this
	// without a matching wallet credit destroys value (the burn).
	EscrowBalance int64

	// Versions holds per-record storage versions for optimistic
	// concurrency. Opaque to the app layer; owned by the ledger adapter.
	Versions map[string]string
}

// MatchLedger is the persistent atomic storage the core requires from its
// environment. Within one Create or Commit, all record writes and wallet
// moves succeed or fail together, and concurrent commits against the same
// match are serialized (a stale version fails the whole commit).
type MatchLedger interface {
	// Create persists a freshly initialized record set. Fails if any
	// record already exists for the match.
	Create(ctx context.Context, rec *MatchRecords, wallets []WalletUpdate) error

	// Load reads the full record set for a match.
	Load(ctx context.Context, matchID uint64) (*MatchRecords, error)

	// Commit writes the record set back together with any wallet moves.
	Commit(ctx context.Context, rec *MatchRecords, wallets []WalletUpdate) error
}
