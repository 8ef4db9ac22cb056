package domain

import (
	"errors"
	"testing"
)

func newTestGrowState() (*Match, *GrowState) {
	m := &Match{
		ID:      12345,
		IDHash:  "cafe",
		StartAt: 0,
		EndAt:   600,
		PlayerA: "player-a",
		PlayerB: "player-b",
	}
	return m, NewGrowState(m)
}

func TestPlantValidation(t *testing.T) {
	tuning := FastTuning()

	tests := []struct {
		name    string
		slot    int
		level   int
		now     int64
		setup   func(g *GrowState)
		wantErr error
	}{
		{"valid", 0, 1, 0, nil, nil},
		{"invalid slot low", -1, 1, 0, nil, ErrInvalidSlotIndex},
		{"invalid slot high", SlotsPerPlayer, 1, 0, nil, ErrInvalidSlotIndex},
		{"invalid level low", 0, 0, 0, nil, ErrInvalidStrainLevel},
		{"invalid level high", 0, 4, 0, nil, ErrInvalidStrainLevel},
		{"endgame lock boundary", 0, 1, 540, nil, ErrEndgamePlantingLocked},
		{"just before endgame lock", 0, 1, 539, nil, nil},
		{
			"occupied", 0, 1, 0,
			func(g *GrowState) {
				if _, err := g.Plant(RoleA, 0, 1, 0, 600, FastTuning()); err != nil {
					t.Fatal(err)
				}
			},
			ErrSlotOccupied,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, g := newTestGrowState()
			if tt.setup != nil {
				tt.setup(g)
			}
			_, err := g.Plant(RoleA, tt.slot, tt.level, tt.now, 600, tuning)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Plant = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlantWontBeReady(t *testing.T) {
	// The legacy table's level 3 (660s growth, 300s lock) leaves a window
	// where planting is allowed but the plant cannot finish in time.
	tuning := LegacyTuning()
	m := &Match{ID: 1, StartAt: 0, EndAt: 1800, PlayerA: "a", PlayerB: "b"}
	g := NewGrowState(m)

	if _, err := g.Plant(RoleA, 0, 3, 1200, 1800, tuning); !errors.Is(err, ErrPlantWontBeReady) {
		t.Errorf("Plant at 1200 = %v, want ErrPlantWontBeReady", err)
	}
	// 1140 + 660 = 1800 exactly: ready at end is allowed.
	if _, err := g.Plant(RoleA, 0, 3, 1140, 1800, tuning); err != nil {
		t.Errorf("Plant at 1140 = %v, want nil", err)
	}
}

func TestGrowLifecycle(t *testing.T) {
	// Match starts at t=0, ends at t=600; level 1 grows in 10.
	tuning := FastTuning()
	_, g := newTestGrowState()

	if _, err := g.Plant(RoleA, 0, 1, 0, 600, tuning); err != nil {
		t.Fatal(err)
	}

	// At t=9 the slot still reads Growing.
	slot := &g.SlotsA[0]
	slot.AdvanceIfReady(9, tuning)
	if slot.Phase != PlantGrowing {
		t.Fatalf("phase at t=9 = %v, want Growing", slot.Phase)
	}

	// Harvesting while Growing fails without touching inventory.
	if _, _, err := g.Harvest(RoleA, 0, 9, tuning); !errors.Is(err, ErrGrowthTimeNotElapsed) {
		t.Fatalf("harvest at t=9 = %v, want ErrGrowthTimeNotElapsed", err)
	}
	if g.InventoryA.Total() != 0 {
		t.Fatal("failed harvest must not mutate inventory")
	}

	// At t=10 the slot reads Ready.
	slot.AdvanceIfReady(10, tuning)
	if slot.Phase != PlantReady {
		t.Fatalf("phase at t=10 = %v, want Ready", slot.Phase)
	}

	// Harvest credits inventory and frees the slot.
	level, _, err := g.Harvest(RoleA, 0, 10, tuning)
	if err != nil {
		t.Fatal(err)
	}
	if level != 1 || g.InventoryA.Level1 != 1 {
		t.Errorf("level = %d, inventory level1 = %d, want 1/1", level, g.InventoryA.Level1)
	}
	if slot.Phase != PlantEmpty || slot.LastHarvestedAt != 10 {
		t.Errorf("slot after harvest: phase=%v lastHarvested=%d", slot.Phase, slot.LastHarvestedAt)
	}

	// Slot is immediately replantable.
	if _, err := g.Plant(RoleA, 0, 2, 11, 600, tuning); err != nil {
		t.Errorf("replant after harvest: %v", err)
	}
}

func TestHarvestEmptySlot(t *testing.T) {
	tuning := FastTuning()
	_, g := newTestGrowState()
	if _, _, err := g.Harvest(RoleB, 3, 100, tuning); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("harvest of empty slot = %v, want ErrSlotEmpty", err)
	}
	if _, _, err := g.Harvest(RoleB, SlotsPerPlayer, 100, tuning); !errors.Is(err, ErrInvalidSlotIndex) {
		t.Errorf("harvest out of range = %v, want ErrInvalidSlotIndex", err)
	}
}

func TestHarvestInventoryFull(t *testing.T) {
	tuning := FastTuning()
	_, g := newTestGrowState()

	g.InventoryA = Inventory{Level1: 6}
	if _, err := g.Plant(RoleA, 0, 1, 0, 600, tuning); err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Harvest(RoleA, 0, 20, tuning); !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("harvest into full inventory = %v, want ErrInventoryFull", err)
	}
	// The plant must survive a refused harvest.
	if g.SlotsA[0].Phase != PlantReady {
		t.Error("refused harvest must leave the plant Ready")
	}
}

func TestVariantIDDeterministic(t *testing.T) {
	a := VariantID(12345, "player-a", 2, 777)
	b := VariantID(12345, "player-a", 2, 777)
	if a != b {
		t.Fatalf("same inputs produced %d and %d", a, b)
	}
	if a >= VariantCount {
		t.Fatalf("variant %d out of range", a)
	}

	// Different players should (overwhelmingly) disagree somewhere.
	varied := false
	for counter := int64(0); counter < 64; counter++ {
		if VariantID(12345, "player-a", 0, counter) != VariantID(12345, "player-b", 0, counter) {
			varied = true
			break
		}
	}
	if !varied {
		t.Error("variant never varied across players over 64 counters")
	}
}

func TestVariantForSaleRecency(t *testing.T) {
	tuning := FastTuning()
	_, g := newTestGrowState()

	// Two level-1 harvests at different times; the later one wins.
	for _, h := range []struct {
		slot      int
		plantedAt int64
	}{{0, 0}, {1, 5}} {
		if _, err := g.Plant(RoleA, h.slot, 1, h.plantedAt, 600, tuning); err != nil {
			t.Fatal(err)
		}
		if _, _, err := g.Harvest(RoleA, h.slot, h.plantedAt+10, tuning); err != nil {
			t.Fatal(err)
		}
	}

	variant, ok := g.VariantForSale(RoleA, 1)
	if !ok {
		t.Fatal("expected a variant for level 1")
	}
	if want := g.SlotsA[1].VariantID; variant != want {
		t.Errorf("variant = %d, want most recent harvest's %d", variant, want)
	}

	// No harvest for level 3 yet.
	if _, ok := g.VariantForSale(RoleA, 3); ok {
		t.Error("unexpected variant for unharvested level")
	}
}

func TestVariantBonus(t *testing.T) {
	tests := []struct {
		variant uint8
		want    int32
	}{{0, -1}, {1, 0}, {2, 1}}
	for _, tt := range tests {
		if got := VariantBonus(tt.variant); got != tt.want {
			t.Errorf("VariantBonus(%d) = %d, want %d", tt.variant, got, tt.want)
		}
	}
}

func TestSmellAccumulation(t *testing.T) {
	tuning := LegacyTuning() // long growth keeps plants Growing for minutes
	m := &Match{ID: 1, StartAt: 0, EndAt: 1800, PlayerA: "a", PlayerB: "b"}
	g := NewGrowState(m)

	if _, err := g.Plant(RoleA, 0, 1, 0, 1800, tuning); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Plant(RoleA, 1, 3, 0, 1800, tuning); err != nil {
		t.Fatal(err)
	}

	// After 2 minutes: level 1 contributes 2*1, level 3 contributes 2*4.
	if got := g.Smell(RoleA, 120); got != 10 {
		t.Errorf("smell at 120s = %d, want 10", got)
	}
	// Sub-minute elapsed contributes nothing.
	if got := g.Smell(RoleA, 59); got != 0 {
		t.Errorf("smell at 59s = %d, want 0", got)
	}
	// The opponent's plots carry no smell.
	if got := g.Smell(RoleB, 120); got != 0 {
		t.Errorf("opponent smell = %d, want 0", got)
	}
}
