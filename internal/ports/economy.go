package ports

import "context"

// EconomyPort exposes player wallet balances outside of a ledger commit.
// It serves the pre-stake balance check and onboarding grants; escrow
// movements themselves always travel through MatchLedger commits.
type EconomyPort interface {
	// GetBalance retrieves the current packs balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies multiple wallet changes.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
