package domain

import "math"

// StakeStatus is the escrow lifecycle tag. Transitions are one-directional:
// Pending -> Active (join + burn), Pending -> Cancelled (timeout refund),
// Active -> Finalized (payout). No other transition is legal.
type StakeStatus uint8

const (
	// StakePending: player A has escrowed, waiting for player B. No burn yet.
	StakePending StakeStatus = iota
	// StakeActive: both players escrowed, burn complete, match running.
	StakeActive
	// StakeFinalized: winner has been paid, escrow empty.
	StakeFinalized
	// StakeCancelled: player A refunded before player B joined, escrow empty.
	StakeCancelled
)

// String describes a status for logs and audit payloads.
func (s StakeStatus) String() string {
	switch s {
	case StakePending:
		return "pending"
	case StakeActive:
		return "active"
	case StakeFinalized:
		return "finalized"
	case StakeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Stake is the per-match escrow accounting record. The escrowed amounts are
// an accounting cache; the escrow ledger balance is authoritative for
// settlement.
type Stake struct {
	MatchID uint64 `json:"match_id"`
	IDHash  string `json:"id_hash"`

	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`

	Status StakeStatus `json:"status"`

	EscrowedA int64 `json:"escrowed_a"`
	EscrowedB int64 `json:"escrowed_b"`

	// SettledPot is the amount paid out at finalization, recorded because
	// the live escrow balance is zeroed by settlement.
	SettledPot int64 `json:"settled_pot"`

	CreatedAt int64 `json:"created_at"`
}

// CheckedAdd adds two non-negative amounts, surfacing overflow instead of
// wrapping. Money is never silently saturated.
func CheckedAdd(a, b int64) (int64, error) {
	if a > math.MaxInt64-b {
		return 0, ErrCalculationOverflow
	}
	return a + b, nil
}

// BurnAmount computes the activation burn with integer truncation.
func BurnAmount(totalEscrowed, burnPercent int64) int64 {
	return totalEscrowed * burnPercent / 100
}

// CanCancel reports whether player A may reclaim an unanswered stake:
// still pending, player B absent, and the timeout elapsed.
func (s *Stake) CanCancel(now int64, t Tuning) bool {
	return s.Status == StakePending && s.EscrowedB == 0 && now >= s.CreatedAt+t.CancelTimeout
}

// CanActivate reports whether both sides have escrowed while pending.
func (s *Stake) CanActivate() bool {
	return s.Status == StakePending && s.EscrowedA > 0 && s.EscrowedB > 0
}

// CanFinalize reports whether settlement may run.
func (s *Stake) CanFinalize() bool {
	return s.Status == StakeActive
}
