package domain

import (
	"errors"
	"math"
	"testing"
)

func TestBurnAmount(t *testing.T) {
	tests := []struct {
		total   int64
		percent int64
		want    int64
	}{
		{2_000_000, 10, 200_000},
		{2_000_000, 0, 0},
		// Integer truncation, never rounding.
		{15, 10, 1},
		{9, 10, 0},
	}
	for _, tt := range tests {
		if got := BurnAmount(tt.total, tt.percent); got != tt.want {
			t.Errorf("BurnAmount(%d, %d) = %d, want %d", tt.total, tt.percent, got, tt.want)
		}
	}
}

func TestCheckedAdd(t *testing.T) {
	if sum, err := CheckedAdd(1_000_000, 1_000_000); err != nil || sum != 2_000_000 {
		t.Errorf("CheckedAdd = %d, %v", sum, err)
	}
	if _, err := CheckedAdd(math.MaxInt64, 1); !errors.Is(err, ErrCalculationOverflow) {
		t.Errorf("overflow error = %v, want ErrCalculationOverflow", err)
	}
}

func TestCanCancel(t *testing.T) {
	tuning := FastTuning()

	tests := []struct {
		name  string
		stake Stake
		now   int64
		want  bool
	}{
		{
			"timeout elapsed",
			Stake{Status: StakePending, EscrowedA: 100, CreatedAt: 0},
			300, true,
		},
		{
			"one second early",
			Stake{Status: StakePending, EscrowedA: 100, CreatedAt: 0},
			299, false,
		},
		{
			"player B joined",
			Stake{Status: StakePending, EscrowedA: 100, EscrowedB: 100, CreatedAt: 0},
			1000, false,
		},
		{
			"already cancelled",
			Stake{Status: StakeCancelled, EscrowedA: 0, CreatedAt: 0},
			1000, false,
		},
		{
			"active match",
			Stake{Status: StakeActive, EscrowedA: 100, EscrowedB: 100, CreatedAt: 0},
			1000, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stake.CanCancel(tt.now, tuning); got != tt.want {
				t.Errorf("CanCancel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusTransitionsGates(t *testing.T) {
	s := Stake{Status: StakePending, EscrowedA: 100}
	if s.CanActivate() {
		t.Error("cannot activate before player B escrows")
	}
	s.EscrowedB = 100
	if !s.CanActivate() {
		t.Error("both escrowed while pending should activate")
	}
	if s.CanFinalize() {
		t.Error("pending stake cannot finalize")
	}
	s.Status = StakeActive
	if !s.CanFinalize() {
		t.Error("active stake should finalize")
	}
	s.Status = StakeFinalized
	if s.CanActivate() || s.CanFinalize() {
		t.Error("finalized is terminal")
	}
}

func TestStakeStatusString(t *testing.T) {
	tests := []struct {
		status StakeStatus
		want   string
	}{
		{StakePending, "pending"},
		{StakeActive, "active"},
		{StakeFinalized, "finalized"},
		{StakeCancelled, "cancelled"},
		{StakeStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
