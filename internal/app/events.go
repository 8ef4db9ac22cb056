package app

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventMatchInitialized EventKind = "match_initialized"
	EventMatchActivated   EventKind = "match_activated"
	EventMatchCancelled   EventKind = "match_cancelled"
	EventPlanted          EventKind = "planted"
	EventHarvested        EventKind = "harvested"
	EventSale             EventKind = "sale"
	EventDeliveryRotated  EventKind = "delivery_rotated"
	EventMatchFinalized   EventKind = "match_finalized"
	EventStakePayout      EventKind = "stake_payout"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type MatchInitializedPayload struct {
	MatchID uint64
	IDHash  string
	PlayerA string
	StartAt int64
	EndAt   int64
}

type MatchActivatedPayload struct {
	MatchID  uint64
	PlayerB  string
	Total    int64
	Burned   int64
	FinalPot int64
}

type MatchCancelledPayload struct {
	MatchID  uint64
	Refunded int64
}

type PlantedPayload struct {
	UserID      string
	SlotIndex   int
	StrainLevel uint8
	VariantID   uint8
	ReadyAt     int64
}

type HarvestedPayload struct {
	UserID      string
	SlotIndex   int
	StrainLevel uint8
	Inventory   InventorySnapshot
}

type SalePayload struct {
	UserID        string
	CustomerIndex int
	StrainLevel   uint8
	// VariantID is -1 when no harvest record matched the sold level, in
	// which case no variant bonus was applied.
	VariantID  int
	RepDelta   int32
	Reputation int32
	Sales      uint32
}

type DeliveryRotatedPayload struct {
	MatchID    uint64
	Bucket     int64
	PrevSpots  []uint8
	Spots      []uint8
	ActiveFrom int64
}

type MatchFinalizedPayload struct {
	MatchID    uint64
	Winner     string
	SalesA     uint32
	SalesB     uint32
	RepA       int32
	RepB       int32
	PotAwarded int64
}

type StakePayoutPayload struct {
	MatchID uint64
	UserID  string
	Amount  int64
}

// InventorySnapshot mirrors a player's held product counts for clients.
type InventorySnapshot struct {
	Level1 uint8 `json:"level1"`
	Level2 uint8 `json:"level2"`
	Level3 uint8 `json:"level3"`
}
