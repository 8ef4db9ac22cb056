package nakama

import (
	"strconv"

	"droog/internal/domain"
	"droog/internal/ports"
)

// MatchSnapshot is the client-facing view of a match. Everything in it is
// public information: the game state lives in system-owned storage and is
// recomputable from the records, so neither player learns anything their
// opponent cannot.
type MatchSnapshot struct {
	MatchID string `json:"match_id"`
	IDHash  string `json:"id_hash"`
	StartAt int64  `json:"start_at"`
	EndAt   int64  `json:"end_at"`

	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`

	SalesA      uint32 `json:"sales_a"`
	SalesB      uint32 `json:"sales_b"`
	ReputationA int32  `json:"reputation_a"`
	ReputationB int32  `json:"reputation_b"`
	Finalized   bool   `json:"finalized"`

	Customers []CustomerSnapshot `json:"customers"`

	DeliverySpots   []uint8 `json:"delivery_spots"`
	DeliveryUpdated int64   `json:"delivery_updated"`

	SlotsA     []SlotSnapshot   `json:"slots_a"`
	SlotsB     []SlotSnapshot   `json:"slots_b"`
	InventoryA domain.Inventory `json:"inventory_a"`
	InventoryB domain.Inventory `json:"inventory_b"`

	StakeStatus string `json:"stake_status"`
	Pot         int64  `json:"pot"`

	ActiveStrains []int `json:"active_strains"`
}

// CustomerSnapshot is one roster entry with its derived layer.
type CustomerSnapshot struct {
	Index        int    `json:"index"`
	Layer        int    `json:"layer"`
	LastServedAt int64  `json:"last_served_at"`
	TotalServes  uint32 `json:"total_serves"`
	LastServedBy string `json:"last_served_by"`
}

// SlotSnapshot is one grow slot's visible state.
type SlotSnapshot struct {
	Phase       uint8 `json:"phase"`
	PlantedAt   int64 `json:"planted_at"`
	StrainLevel int   `json:"strain_level"`
	VariantID   uint8 `json:"variant_id"`
}

func buildSnapshot(rec *ports.MatchRecords, activeStrains []int) MatchSnapshot {
	m := rec.Match

	customers := make([]CustomerSnapshot, domain.NumCustomers)
	for i := range m.Customers {
		customers[i] = CustomerSnapshot{
			Index:        i,
			Layer:        domain.LayerFromIndex(i),
			LastServedAt: m.Customers[i].LastServedAt,
			TotalServes:  m.Customers[i].TotalServes,
			LastServedBy: m.Customers[i].LastServedBy,
		}
	}

	spots := make([]uint8, 0, rec.Delivery.ActiveCount)
	for i := 0; i < int(rec.Delivery.ActiveCount); i++ {
		spots = append(spots, rec.Delivery.Spots[i])
	}

	return MatchSnapshot{
		MatchID:         strconv.FormatUint(m.ID, 10),
		IDHash:          m.IDHash,
		StartAt:         m.StartAt,
		EndAt:           m.EndAt,
		PlayerA:         m.PlayerA,
		PlayerB:         m.PlayerB,
		SalesA:          m.SalesA,
		SalesB:          m.SalesB,
		ReputationA:     m.ReputationA,
		ReputationB:     m.ReputationB,
		Finalized:       m.Finalized,
		Customers:       customers,
		DeliverySpots:   spots,
		DeliveryUpdated: rec.Delivery.LastUpdateAt,
		SlotsA:          slotSnapshots(&rec.Grow.SlotsA),
		SlotsB:          slotSnapshots(&rec.Grow.SlotsB),
		InventoryA:      rec.Grow.InventoryA,
		InventoryB:      rec.Grow.InventoryB,
		StakeStatus:     rec.Stake.Status.String(),
		Pot:             rec.EscrowBalance,
		ActiveStrains:   activeStrains,
	}
}

func slotSnapshots(slots *[domain.SlotsPerPlayer]domain.GrowSlot) []SlotSnapshot {
	out := make([]SlotSnapshot, len(slots))
	for i, s := range slots {
		out[i] = SlotSnapshot{
			Phase:       uint8(s.Phase),
			PlantedAt:   s.PlantedAt,
			StrainLevel: s.StrainLevel,
			VariantID:   s.VariantID,
		}
	}
	return out
}
