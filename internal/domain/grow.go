package domain

// SlotsPerPlayer is the number of grow slots each player controls.
const SlotsPerPlayer = 6

// VariantCount is the number of deterministic plant variants.
const VariantCount = 3

// Smell accumulation rates per minute by strain level.
var smellRates = [3]uint16{1, 2, 4}

// PlantPhase is the lifecycle tag of a grow slot's plant.
// Slots are land and persist for the whole match; plants are ephemeral and
// destroyed by harvest.
type PlantPhase uint8

const (
	// PlantEmpty marks a slot available for planting.
	PlantEmpty PlantPhase = iota
	// PlantGrowing marks a plant whose growth time has not elapsed.
	PlantGrowing
	// PlantReady marks a plant available for harvest.
	PlantReady
)

// GrowSlot holds one slot's plant state. The phase is entirely
// reconstructible from PlantedAt plus the growth-time table; there is no
// stored countdown. AdvanceIfReady must run before any phase read.
type GrowSlot struct {
	Phase PlantPhase `json:"phase"`
	// PlantedAt is meaningful while Phase is PlantGrowing.
	PlantedAt int64 `json:"planted_at"`
	// StrainLevel is kept after harvest for variant lookup.
	StrainLevel int `json:"strain_level"`
	// VariantID is kept after harvest for variant lookup.
	VariantID uint8 `json:"variant_id"`
	// LastHarvestedAt is meaningful while Phase is PlantEmpty; it selects
	// the most recently harvested variant at sale time.
	LastHarvestedAt int64 `json:"last_harvested_at"`
}

// AdvanceIfReady lazily promotes Growing to Ready once the growth time has
// elapsed. Idempotent; no-op in any other phase.
func (s *GrowSlot) AdvanceIfReady(now int64, t Tuning) {
	if s.Phase != PlantGrowing {
		return
	}
	if now-s.PlantedAt >= t.GrowthTime(s.StrainLevel) {
		s.Phase = PlantReady
	}
}

// GrowState is the per-match grow record: both players' slots and
// inventories.
type GrowState struct {
	MatchID uint64 `json:"match_id"`
	IDHash  string `json:"id_hash"`

	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`

	SlotsA [SlotsPerPlayer]GrowSlot `json:"slots_a"`
	SlotsB [SlotsPerPlayer]GrowSlot `json:"slots_b"`

	InventoryA Inventory `json:"inventory_a"`
	InventoryB Inventory `json:"inventory_b"`
}

// NewGrowState creates the empty grow record paired with a match.
func NewGrowState(m *Match) *GrowState {
	return &GrowState{
		MatchID: m.ID,
		IDHash:  m.IDHash,
		PlayerA: m.PlayerA,
		PlayerB: m.PlayerB,
	}
}

// Slots returns the slot array for a role.
func (g *GrowState) Slots(role Role) *[SlotsPerPlayer]GrowSlot {
	if role == RoleA {
		return &g.SlotsA
	}
	return &g.SlotsB
}

// Inventory returns the inventory for a role.
func (g *GrowState) Inventory(role Role) *Inventory {
	if role == RoleA {
		return &g.InventoryA
	}
	return &g.InventoryB
}

func (g *GrowState) player(role Role) string {
	if role == RoleA {
		return g.PlayerA
	}
	return g.PlayerB
}

// Plant writes Growing state into an empty slot. The caller has already
// established that the match window contains now; Plant enforces the
// endgame lock, level and slot validity, the ready-before-end rule, and
// slot emptiness, then assigns the deterministic variant.
func (g *GrowState) Plant(role Role, slotIndex, strainLevel int, now, endAt int64, t Tuning) (uint8, error) {
	if now >= endAt-t.EndgameLock {
		return 0, ErrEndgamePlantingLocked
	}
	if strainLevel < 1 || strainLevel > 3 {
		return 0, ErrInvalidStrainLevel
	}
	if slotIndex < 0 || slotIndex >= SlotsPerPlayer {
		return 0, ErrInvalidSlotIndex
	}
	if now+t.GrowthTime(strainLevel) > endAt {
		return 0, ErrPlantWontBeReady
	}

	slot := &g.Slots(role)[slotIndex]
	if slot.Phase != PlantEmpty {
		return 0, ErrSlotOccupied
	}

	variant := VariantID(g.MatchID, g.player(role), slotIndex, now)
	slot.Phase = PlantGrowing
	slot.PlantedAt = now
	slot.StrainLevel = strainLevel
	slot.VariantID = variant
	return variant, nil
}

// Harvest consumes a Ready plant: the inventory is credited, the plant is
// destroyed, and the slot resets to Empty, immediately replantable. The
// harvest time is recorded for later variant lookup.
func (g *GrowState) Harvest(role Role, slotIndex int, now int64, t Tuning) (strainLevel int, variantID uint8, err error) {
	if slotIndex < 0 || slotIndex >= SlotsPerPlayer {
		return 0, 0, ErrInvalidSlotIndex
	}

	slot := &g.Slots(role)[slotIndex]
	slot.AdvanceIfReady(now, t)

	switch slot.Phase {
	case PlantEmpty:
		return 0, 0, ErrSlotEmpty
	case PlantGrowing:
		return 0, 0, ErrGrowthTimeNotElapsed
	}

	inv := g.Inventory(role)
	if !inv.HasSpace() {
		return 0, 0, ErrInventoryFull
	}

	strainLevel = slot.StrainLevel
	variantID = slot.VariantID
	inv.Increment(strainLevel)

	slot.Phase = PlantEmpty
	slot.PlantedAt = 0
	slot.LastHarvestedAt = now
	return strainLevel, variantID, nil
}

// VariantForSale finds the variant of the most recently harvested plant of
// the given level among the role's empty slots. Ties go to recency, not to
// slot index. The second return is false when no matching harvest exists.
func (g *GrowState) VariantForSale(role Role, strainLevel int) (uint8, bool) {
	var (
		best   uint8
		bestAt int64 = -1
	)
	for i := range g.Slots(role) {
		s := &g.Slots(role)[i]
		if s.Phase != PlantEmpty || s.StrainLevel != strainLevel {
			continue
		}
		if s.LastHarvestedAt > bestAt {
			bestAt = s.LastHarvestedAt
			best = s.VariantID
		}
	}
	if bestAt < 0 {
		return 0, false
	}
	return best, true
}

// VariantBonus maps a variant id to its reputation modifier, applied on top
// of the base delta at sale time.
func VariantBonus(variantID uint8) int32 {
	switch variantID {
	case 0:
		return -1
	case 2:
		return 1
	default:
		return 0
	}
}

// Smell computes the role's current smell from Growing plants only, derived
// purely from timestamps: elapsed whole minutes times the per-level rate.
func (g *GrowState) Smell(role Role, now int64) uint16 {
	var total uint16
	for i := range g.Slots(role) {
		s := &g.Slots(role)[i]
		if s.Phase != PlantGrowing {
			continue
		}
		elapsed := now - s.PlantedAt
		if elapsed < 0 {
			elapsed = 0
		}
		if s.StrainLevel >= 1 && s.StrainLevel <= 3 {
			total += uint16(elapsed/60) * smellRates[s.StrainLevel-1]
		}
	}
	return total
}
