package domain

import "testing"

func TestLayerFromIndexPartition(t *testing.T) {
	counts := map[int]int{}
	for i := 0; i < NumCustomers; i++ {
		counts[LayerFromIndex(i)]++
	}
	if counts[3] != 3 || counts[2] != 8 || counts[1] != 12 {
		t.Fatalf("expected partition 3/8/12 for layers 3/2/1, got %v", counts)
	}

	boundaries := []struct {
		index int
		layer int
	}{
		{0, 3}, {2, 3},
		{3, 2}, {10, 2},
		{11, 1}, {22, 1},
	}
	for _, b := range boundaries {
		if got := LayerFromIndex(b.index); got != b.layer {
			t.Errorf("LayerFromIndex(%d) = %d, want %d", b.index, got, b.layer)
		}
	}
}

func TestCustomerCooldown(t *testing.T) {
	tests := []struct {
		layer    int
		cooldown int64
	}{
		{1, 30},
		{2, 45},
		{3, 75},
		{4, 0},
	}
	for _, tt := range tests {
		if got := CustomerCooldown(tt.layer); got != tt.cooldown {
			t.Errorf("CustomerCooldown(%d) = %d, want %d", tt.layer, got, tt.cooldown)
		}
	}
}

func TestStrainCompatible(t *testing.T) {
	tests := []struct {
		name  string
		layer int
		level int
		want  bool
	}{
		{"outer accepts level 1", 1, 1, true},
		{"outer rejects level 2", 1, 2, false},
		{"outer rejects level 3", 1, 3, false},
		{"middle accepts level 1", 2, 1, true},
		{"middle accepts level 2", 2, 2, true},
		{"middle rejects level 3", 2, 3, false},
		{"inner rejects level 1", 3, 1, false},
		{"inner accepts level 2", 3, 2, true},
		{"inner accepts level 3", 3, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrainCompatible(tt.layer, tt.level); got != tt.want {
				t.Errorf("StrainCompatible(%d, %d) = %v, want %v", tt.layer, tt.level, got, tt.want)
			}
		})
	}
}

func TestReputationDelta(t *testing.T) {
	tests := []struct {
		layer int
		level int
		want  int32
	}{
		{1, 1, 1},
		{1, 2, -2},
		{1, 3, -2},
		{2, 2, 2},
		{2, 1, 1},
		{2, 3, -2},
		{3, 3, 3},
		{3, 2, 1},
		{3, 1, -3},
	}
	for _, tt := range tests {
		if got := ReputationDelta(tt.layer, tt.level); got != tt.want {
			t.Errorf("ReputationDelta(%d, %d) = %d, want %d", tt.layer, tt.level, got, tt.want)
		}
	}
}

func TestReputationStaysClamped(t *testing.T) {
	m := &Match{ID: 1, PlayerA: "a", PlayerB: "b", StartAt: 0, EndAt: 600}

	// Repeated worst-case sales can never push reputation below the floor.
	for i := 0; i < 1000; i++ {
		m.RecordSale(RoleA, 0, -3, int64(i))
		if m.ReputationA < RepMin || m.ReputationA > RepMax {
			t.Fatalf("reputation %d escaped [%d, %d]", m.ReputationA, RepMin, RepMax)
		}
	}
	if m.ReputationA != RepMin {
		t.Errorf("ReputationA = %d, want floor %d", m.ReputationA, RepMin)
	}

	for i := 0; i < 1000; i++ {
		m.RecordSale(RoleB, 0, 3, int64(i))
	}
	if m.ReputationB != RepMax {
		t.Errorf("ReputationB = %d, want ceiling %d", m.ReputationB, RepMax)
	}
}

func TestEnsureOpen(t *testing.T) {
	m := &Match{StartAt: 100, EndAt: 700}

	tests := []struct {
		name      string
		now       int64
		finalized bool
		wantErr   error
	}{
		{"before start", 99, false, ErrMatchNotStarted},
		{"at start", 100, false, nil},
		{"mid match", 400, false, nil},
		{"at end", 700, false, ErrMatchEnded},
		{"after end", 1000, false, ErrMatchEnded},
		{"finalized", 400, true, ErrMatchFinalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Finalized = tt.finalized
			if err := m.EnsureOpen(tt.now); err != tt.wantErr {
				t.Errorf("EnsureOpen(%d) = %v, want %v", tt.now, err, tt.wantErr)
			}
		})
	}
}

func TestCustomerAvailable(t *testing.T) {
	m := &Match{StartAt: 0, EndAt: 600}

	// Never served: always available.
	if !m.CustomerAvailable(0, 0) {
		t.Error("unserved customer should be available")
	}

	// Index 0 is layer 3, cooldown 75.
	m.Customers[0].LastServedAt = 100
	if m.CustomerAvailable(0, 174) {
		t.Error("customer should still be cooling down at 174")
	}
	if !m.CustomerAvailable(0, 175) {
		t.Error("customer should be available at 175")
	}

	// Index 11 is layer 1, cooldown 30.
	m.Customers[11].LastServedAt = 100
	if !m.CustomerAvailable(11, 130) {
		t.Error("outer customer should be available at 130")
	}

	if m.CustomerAvailable(-1, 0) || m.CustomerAvailable(NumCustomers, 0) {
		t.Error("out-of-range index should never be available")
	}
}

func TestWinnerTieBreak(t *testing.T) {
	tests := []struct {
		name       string
		salesA     uint32
		salesB     uint32
		wantWinner string
	}{
		{"A ahead", 5, 3, "a"},
		{"B ahead", 2, 4, "b"},
		{"tie goes to A", 3, 3, "a"},
		{"zero-zero goes to A", 0, 0, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{PlayerA: "a", PlayerB: "b", SalesA: tt.salesA, SalesB: tt.salesB}
			winner, loser, ws, ls := m.Winner()
			if winner != tt.wantWinner {
				t.Fatalf("winner = %q, want %q", winner, tt.wantWinner)
			}
			if winner == loser {
				t.Fatal("winner and loser must differ")
			}
			if ws < ls {
				t.Errorf("winner sales %d < loser sales %d", ws, ls)
			}
		})
	}
}

func TestRoleOf(t *testing.T) {
	m := &Match{PlayerA: "a", PlayerB: "b"}
	if role, err := m.RoleOf("a"); err != nil || role != RoleA {
		t.Errorf("RoleOf(a) = %v, %v", role, err)
	}
	if role, err := m.RoleOf("b"); err != nil || role != RoleB {
		t.Errorf("RoleOf(b) = %v, %v", role, err)
	}
	if _, err := m.RoleOf("c"); err != ErrInvalidPlayer {
		t.Errorf("RoleOf(c) error = %v, want ErrInvalidPlayer", err)
	}
}

func TestStrainActiveRotation(t *testing.T) {
	m := &Match{StartAt: 0, EndAt: 1800}

	// Level 1 pairs rotate every 10 minutes: [0,1] -> [1,2] -> [2,0].
	tests := []struct {
		strainID int
		now      int64
		want     bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 0, false},
		{0, 600, false},
		{1, 600, true},
		{2, 600, true},
		{0, 1200, true},
		{1, 1200, false},
		{2, 1200, true},
		// Level 2 singles rotate every 15 minutes: 3 -> 4 -> 5.
		{3, 0, true},
		{4, 0, false},
		{4, 900, true},
		{5, 1800, true},
		// Level 3 is always active.
		{6, 0, true},
		{6, 1799, true},
		// Out of range.
		{7, 0, false},
		{-1, 0, false},
		// Before the start the initial window applies; negative elapsed
		// must not index the pattern table negatively.
		{0, -700, true},
		{1, -700, true},
		{2, -700, false},
		{3, -700, true},
	}
	for _, tt := range tests {
		if got := m.StrainActive(tt.strainID, tt.now); got != tt.want {
			t.Errorf("StrainActive(%d, %d) = %v, want %v", tt.strainID, tt.now, got, tt.want)
		}
	}
}
