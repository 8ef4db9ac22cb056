package domain

// NumCustomers is the fixed roster size for every match.
const NumCustomers = 23

// Reputation bounds. Reputation uses saturating arithmetic and is clamped
// after every update; overflow behavior is never relied upon.
const (
	RepMin int32 = -1000
	RepMax int32 = 1000
)

// Role identifies which side of the match a player occupies.
type Role uint8

const (
	RoleA Role = iota
	RoleB
)

// Customer tracks per-customer serve state. The customer's layer is never
// stored: it is always derived from the roster index via LayerFromIndex.
type Customer struct {
	LastServedAt int64  `json:"last_served_at"` // 0 if never served
	TotalServes  uint32 `json:"total_serves"`
	LastServedBy string `json:"last_served_by"`
}

// Match is the authoritative per-match game record.
type Match struct {
	ID      uint64 `json:"id"`
	IDHash  string `json:"id_hash"` // hex, canonical record correlation key
	StartAt int64  `json:"start_at"`
	EndAt   int64  `json:"end_at"`

	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`

	Customers [NumCustomers]Customer `json:"customers"`

	SalesA uint32 `json:"sales_a"`
	SalesB uint32 `json:"sales_b"`

	ReputationA int32 `json:"reputation_a"`
	ReputationB int32 `json:"reputation_b"`

	// Finalized is terminal: once set, no field of this record may change.
	Finalized bool `json:"finalized"`
}

// LayerFromIndex is the authoritative index-to-layer derivation:
// indices 0-2 are layer 3 (inner core), 3-10 layer 2 (middle ring),
// 11-22 layer 1 (outer ring).
func LayerFromIndex(customerIndex int) int {
	switch {
	case customerIndex < 3:
		return 3
	case customerIndex < 11:
		return 2
	default:
		return 1
	}
}

// CustomerCooldown returns the per-layer serve cooldown in seconds.
func CustomerCooldown(layer int) int64 {
	switch layer {
	case 1:
		return 30
	case 2:
		return 45
	case 3:
		return 75
	default:
		return 0
	}
}

// StrainCompatible reports whether a strain level can be sold to a customer
// of the given layer. Incompatible sales are rejected, not penalized.
func StrainCompatible(layer, strainLevel int) bool {
	switch layer {
	case 1:
		return strainLevel == 1
	case 2:
		return strainLevel == 1 || strainLevel == 2
	case 3:
		return strainLevel == 2 || strainLevel == 3
	default:
		return false
	}
}

// ReputationDelta returns the base reputation change for selling the given
// strain level to a customer of the given layer.
func ReputationDelta(layer, strainLevel int) int32 {
	switch layer {
	case 1:
		if strainLevel == 1 {
			return 1
		}
		return -2
	case 2:
		switch strainLevel {
		case 2:
			return 2
		case 1:
			return 1
		default:
			return -2
		}
	case 3:
		switch strainLevel {
		case 3:
			return 3
		case 2:
			return 1
		default:
			return -3
		}
	default:
		return 0
	}
}

// ClampReputation bounds a reputation value to [RepMin, RepMax].
func ClampReputation(rep int32) int32 {
	if rep < RepMin {
		return RepMin
	}
	if rep > RepMax {
		return RepMax
	}
	return rep
}

// EnsureOpen reports whether gameplay operations are currently allowed:
// the match window [StartAt, EndAt) contains now and the match is not
// finalized.
func (m *Match) EnsureOpen(now int64) error {
	if m.Finalized {
		return ErrMatchFinalized
	}
	if now < m.StartAt {
		return ErrMatchNotStarted
	}
	if now >= m.EndAt {
		return ErrMatchEnded
	}
	return nil
}

// RoleOf resolves the acting player's role from their identity.
func (m *Match) RoleOf(userID string) (Role, error) {
	switch userID {
	case m.PlayerA:
		return RoleA, nil
	case m.PlayerB:
		return RoleB, nil
	default:
		return 0, ErrInvalidPlayer
	}
}

// Player returns the identity occupying the given role.
func (m *Match) Player(role Role) string {
	if role == RoleA {
		return m.PlayerA
	}
	return m.PlayerB
}

// CustomerAvailable reports whether the customer's serve cooldown has
// elapsed. A never-served customer is always available.
func (m *Match) CustomerAvailable(customerIndex int, now int64) bool {
	if customerIndex < 0 || customerIndex >= NumCustomers {
		return false
	}
	c := &m.Customers[customerIndex]
	if c.LastServedAt == 0 {
		return true
	}
	return now >= c.LastServedAt+CustomerCooldown(LayerFromIndex(customerIndex))
}

// RecordSale applies the state mutation of one successful sale: customer
// serve bookkeeping, the acting player's sale counter, and the clamped
// reputation update.
func (m *Match) RecordSale(role Role, customerIndex int, delta int32, now int64) {
	c := &m.Customers[customerIndex]
	c.LastServedAt = now
	c.TotalServes++
	c.LastServedBy = m.Player(role)

	if role == RoleA {
		m.SalesA++
		m.ReputationA = ClampReputation(m.ReputationA + delta)
	} else {
		m.SalesB++
		m.ReputationB = ClampReputation(m.ReputationB + delta)
	}
}

// Winner determines the match outcome by sales count. Ties are broken in
// favor of player A; this first-mover advantage is explicit policy.
func (m *Match) Winner() (winner, loser string, winnerSales, loserSales uint32) {
	if m.SalesA >= m.SalesB {
		return m.PlayerA, m.PlayerB, m.SalesA, m.SalesB
	}
	return m.PlayerB, m.PlayerA, m.SalesB, m.SalesA
}

// Strain rotation periods for the legacy rule set, which identifies
// individual strains 0-6 rather than bare levels. Level-1 strains (0-2)
// rotate as sliding pairs, level-2 strains (3-5) as singles, and the sole
// level-3 strain (6) is always active.
const (
	level1RotationPeriod int64 = 10 * 60
	level2RotationPeriod int64 = 15 * 60
)

// StrainActive reports whether a strain id is active under the rotation
// schedule at the given time. Rotation intervals are half-open so adjacent
// windows never overlap.
func (m *Match) StrainActive(strainID int, now int64) bool {
	elapsed := now - m.StartAt
	if elapsed < 0 {
		// Go's truncating modulo would index negatively before the start.
		elapsed = 0
	}

	if strainID < 0 {
		return false
	}

	if strainID < 3 {
		patterns := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
		active := patterns[(elapsed/level1RotationPeriod)%3]
		return strainID == active[0] || strainID == active[1]
	}

	if strainID < 6 {
		return strainID == 3+int((elapsed/level2RotationPeriod)%3)
	}

	return strainID == 6
}
