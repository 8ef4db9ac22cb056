package domain

import "errors"

// Timing violations. The caller decides whether to retry once the
// real-world condition (time, rotation, opponent action) changes.
var (
	ErrMatchNotStarted         = errors.New("match has not started yet")
	ErrMatchEnded              = errors.New("match has already ended")
	ErrGrowthTimeNotElapsed    = errors.New("plant growth time has not elapsed")
	ErrCustomerOnCooldown      = errors.New("customer cooldown has not passed")
	ErrEndgamePlantingLocked   = errors.New("planting is locked during the endgame window")
	ErrDeliveryRotationTooSoon = errors.New("delivery slots have not rotated yet")
	ErrCancelTooEarly          = errors.New("cancel timeout has not elapsed")
	ErrFinalizeTooEarly        = errors.New("match cannot be finalized before end time")
)

// State-consistency violations.
var (
	ErrMatchFinalized         = errors.New("match has already been finalized")
	ErrMatchNotPending        = errors.New("match stake is not in pending status")
	ErrMatchNotActive         = errors.New("match stake is not in active status")
	ErrSlotOccupied           = errors.New("grow slot is already occupied")
	ErrSlotEmpty              = errors.New("grow slot is empty")
	ErrAlreadyStaked          = errors.New("player has already staked")
	ErrPlayerBAlreadyJoined   = errors.New("cannot cancel: player B has already joined")
	ErrMatchIDMismatch        = errors.New("match id mismatch between records")
	ErrCustomerNotDeliverable = errors.New("customer is not in the active delivery set")
)

// Authorization violations.
var (
	ErrInvalidPlayer        = errors.New("player is not part of this match")
	ErrUnauthorizedFinalize = errors.New("only match participants can finalize the match")
)

// Capacity and resource violations.
var (
	ErrInventoryFull            = errors.New("inventory is at capacity")
	ErrInsufficientInventory    = errors.New("insufficient inventory to complete this sale")
	ErrInsufficientStakeBalance = errors.New("insufficient balance for staking")
)

// Input validation.
var (
	ErrInvalidCustomerIndex = errors.New("invalid customer index")
	ErrInvalidStrainLevel   = errors.New("strain level is invalid or incompatible")
	ErrInvalidSlotIndex     = errors.New("invalid grow slot index")
	ErrPlantWontBeReady     = errors.New("plant will not be ready before match ends")
)

// Arithmetic violations. Never silently saturated for money.
var ErrCalculationOverflow = errors.New("arithmetic overflow in stake calculation")
