package domain

// InventoryCapacity is the hard limit on total held items across all levels.
// It keeps production renewable instead of hoardable.
const InventoryCapacity = 6

// Inventory tracks a player's harvested strains by level.
type Inventory struct {
	Level1 uint8 `json:"level1"`
	Level2 uint8 `json:"level2"`
	Level3 uint8 `json:"level3"`
}

// Has reports whether at least one unit of the given level is held.
func (inv *Inventory) Has(strainLevel int) bool {
	return inv.Count(strainLevel) > 0
}

// Count returns the held units for a level, 0 for unknown levels.
func (inv *Inventory) Count(strainLevel int) uint8 {
	switch strainLevel {
	case 1:
		return inv.Level1
	case 2:
		return inv.Level2
	case 3:
		return inv.Level3
	default:
		return 0
	}
}

// Total returns the combined item count across all levels.
func (inv *Inventory) Total() uint8 {
	return inv.Level1 + inv.Level2 + inv.Level3
}

// HasSpace reports whether another item fits under InventoryCapacity.
func (inv *Inventory) HasSpace() bool {
	return inv.Total() < InventoryCapacity
}

// Increment adds one unit of the level. It does not check capacity; callers
// must verify HasSpace first so the capacity error stays explicit.
func (inv *Inventory) Increment(strainLevel int) {
	switch strainLevel {
	case 1:
		inv.Level1++
	case 2:
		inv.Level2++
	case 3:
		inv.Level3++
	}
}

// Decrement removes one unit of the level. It reports false and leaves the
// inventory unchanged when the level is already at zero.
func (inv *Inventory) Decrement(strainLevel int) bool {
	switch {
	case strainLevel == 1 && inv.Level1 > 0:
		inv.Level1--
	case strainLevel == 2 && inv.Level2 > 0:
		inv.Level2--
	case strainLevel == 3 && inv.Level3 > 0:
		inv.Level3--
	default:
		return false
	}
	return true
}
