package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"droog/internal/domain"
	"droog/internal/ports"
)

// Service contains droog use-cases operating on domain state. Every method
// is one atomic transaction: it loads the match records, re-validates all
// preconditions against persisted state, applies the mutation, and commits
// records and wallet movements in a single ledger step.
type Service struct {
	ledger  ports.MatchLedger
	economy ports.EconomyPort
	clock   ports.Clock
	tuning  domain.Tuning
}

// NewService constructs a Service over the given ledger, economy, and clock.
func NewService(ledger ports.MatchLedger, economy ports.EconomyPort, clock ports.Clock, tuning domain.Tuning) *Service {
	return &Service{
		ledger:  ledger,
		economy: economy,
		clock:   clock,
		tuning:  tuning,
	}
}

// Tuning returns the rule-set values this service was built with.
func (s *Service) Tuning() domain.Tuning { return s.tuning }

// CreateMatch mints a new match, escrows player A's stake, and persists the
// four match records with the stake pending. Player B is unknown until join.
func (s *Service) CreateMatch(ctx context.Context, playerA string, startAt int64) (*ports.MatchRecords, []Event, error) {
	if playerA == "" {
		return nil, nil, domain.ErrInvalidPlayer
	}
	now := s.clock.Now()
	if startAt < now {
		startAt = now
	}

	balance, err := s.economy.GetBalance(ctx, playerA)
	if err != nil {
		return nil, nil, fmt.Errorf("read balance for %s: %w", playerA, err)
	}
	if balance < s.tuning.StakeAmount {
		return nil, nil, domain.ErrInsufficientStakeBalance
	}

	matchID, idHash := domain.MatchIdentity(uuid.NewString())

	m := &domain.Match{
		ID:      matchID,
		IDHash:  idHash,
		StartAt: startAt,
		EndAt:   startAt + s.tuning.MatchDuration,
		PlayerA: playerA,
	}

	rec := &ports.MatchRecords{
		Match:    m,
		Grow:     domain.NewGrowState(m),
		Delivery: domain.NewDeliveryState(matchID, startAt),
		Stake: &domain.Stake{
			MatchID:   matchID,
			IDHash:    idHash,
			PlayerA:   playerA,
			Status:    domain.StakePending,
			EscrowedA: s.tuning.StakeAmount,
			CreatedAt: now,
		},
		EscrowBalance: s.tuning.StakeAmount,
	}

	wallets := []ports.WalletUpdate{{
		UserID: playerA,
		Amount: -s.tuning.StakeAmount,
		Metadata: map[string]interface{}{
			"reason":   "stake_escrow",
			"match_id": idHash,
		},
	}}

	if err := s.ledger.Create(ctx, rec, wallets); err != nil {
		return nil, nil, fmt.Errorf("create match records: %w", err)
	}

	return rec, []Event{{
		Kind: EventMatchInitialized,
		Payload: MatchInitializedPayload{
			MatchID: matchID,
			IDHash:  idHash,
			PlayerA: playerA,
			StartAt: m.StartAt,
			EndAt:   m.EndAt,
		},
	}}, nil
}

// JoinStake commits player B's stake, burns the activation cut, and
// transitions the stake to active. The burn and the activation are one
// atomic step; a partially burned pending stake is never observable.
func (s *Service) JoinStake(ctx context.Context, matchID uint64, playerB string) (*ports.MatchRecords, []Event, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}

	stake := rec.Stake
	if stake.Status != domain.StakePending {
		return nil, nil, domain.ErrMatchNotPending
	}
	if playerB == "" || playerB == stake.PlayerA {
		return nil, nil, domain.ErrInvalidPlayer
	}
	if stake.EscrowedB != 0 || stake.PlayerB != "" {
		return nil, nil, domain.ErrAlreadyStaked
	}

	balance, err := s.economy.GetBalance(ctx, playerB)
	if err != nil {
		return nil, nil, fmt.Errorf("read balance for %s: %w", playerB, err)
	}
	if balance < s.tuning.StakeAmount {
		return nil, nil, domain.ErrInsufficientStakeBalance
	}

	stake.PlayerB = playerB
	stake.EscrowedB = s.tuning.StakeAmount
	if !stake.CanActivate() {
		return nil, nil, domain.ErrMatchNotPending
	}

	total, err := domain.CheckedAdd(stake.EscrowedA, stake.EscrowedB)
	if err != nil {
		return nil, nil, err
	}
	burned := domain.BurnAmount(total, s.tuning.BurnPercent)

	stake.Status = domain.StakeActive
	rec.Match.PlayerB = playerB
	rec.Grow.PlayerB = playerB
	// Burned value is destroyed: the escrow balance drops with no
	// corresponding wallet credit anywhere.
	rec.EscrowBalance = total - burned

	wallets := []ports.WalletUpdate{{
		UserID: playerB,
		Amount: -s.tuning.StakeAmount,
		Metadata: map[string]interface{}{
			"reason":   "stake_escrow",
			"match_id": stake.IDHash,
		},
	}}

	if err := s.ledger.Commit(ctx, rec, wallets); err != nil {
		return nil, nil, fmt.Errorf("commit stake activation: %w", err)
	}

	return rec, []Event{{
		Kind: EventMatchActivated,
		Payload: MatchActivatedPayload{
			MatchID:  matchID,
			PlayerB:  playerB,
			Total:    total,
			Burned:   burned,
			FinalPot: rec.EscrowBalance,
		},
	}}, nil
}

// CancelMatch refunds player A's full escrow when player B never answered
// within the cancel timeout. No burn ever occurred on a pending stake.
func (s *Service) CancelMatch(ctx context.Context, matchID uint64, actor string) ([]Event, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	stake := rec.Stake
	if actor != stake.PlayerA {
		return nil, domain.ErrInvalidPlayer
	}
	if stake.Status != domain.StakePending {
		return nil, domain.ErrMatchNotPending
	}
	if stake.EscrowedB != 0 || stake.PlayerB != "" {
		return nil, domain.ErrPlayerBAlreadyJoined
	}

	now := s.clock.Now()
	if !stake.CanCancel(now, s.tuning) {
		return nil, domain.ErrCancelTooEarly
	}

	refund := rec.EscrowBalance
	stake.Status = domain.StakeCancelled
	rec.EscrowBalance = 0

	wallets := []ports.WalletUpdate{{
		UserID: stake.PlayerA,
		Amount: refund,
		Metadata: map[string]interface{}{
			"reason":   "stake_refund",
			"match_id": stake.IDHash,
		},
	}}

	if err := s.ledger.Commit(ctx, rec, wallets); err != nil {
		return nil, fmt.Errorf("commit stake cancellation: %w", err)
	}

	return []Event{{
		Kind: EventMatchCancelled,
		Payload: MatchCancelledPayload{
			MatchID:  matchID,
			Refunded: refund,
		},
	}}, nil
}

// Plant puts a strain into one of the acting player's empty grow slots.
func (s *Service) Plant(ctx context.Context, matchID uint64, actor string, slotIndex, strainLevel int) ([]Event, error) {
	rec, err := s.loadActive(ctx, matchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := rec.Match.EnsureOpen(now); err != nil {
		return nil, err
	}
	role, err := rec.Match.RoleOf(actor)
	if err != nil {
		return nil, err
	}

	variant, err := rec.Grow.Plant(role, slotIndex, strainLevel, now, rec.Match.EndAt, s.tuning)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Commit(ctx, rec, nil); err != nil {
		return nil, fmt.Errorf("commit plant: %w", err)
	}

	return []Event{{
		Kind: EventPlanted,
		Payload: PlantedPayload{
			UserID:      actor,
			SlotIndex:   slotIndex,
			StrainLevel: uint8(strainLevel),
			VariantID:   variant,
			ReadyAt:     now + s.tuning.GrowthTime(strainLevel),
		},
	}}, nil
}

// Harvest moves a ready plant into the acting player's inventory.
func (s *Service) Harvest(ctx context.Context, matchID uint64, actor string, slotIndex int) ([]Event, error) {
	rec, err := s.loadActive(ctx, matchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := rec.Match.EnsureOpen(now); err != nil {
		return nil, err
	}
	role, err := rec.Match.RoleOf(actor)
	if err != nil {
		return nil, err
	}

	strainLevel, _, err := rec.Grow.Harvest(role, slotIndex, now, s.tuning)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Commit(ctx, rec, nil); err != nil {
		return nil, fmt.Errorf("commit harvest: %w", err)
	}

	inv := rec.Grow.Inventory(role)
	return []Event{{
		Kind: EventHarvested,
		Payload: HarvestedPayload{
			UserID:      actor,
			SlotIndex:   slotIndex,
			StrainLevel: uint8(strainLevel),
			Inventory: InventorySnapshot{
				Level1: inv.Level1,
				Level2: inv.Level2,
				Level3: inv.Level3,
			},
		},
	}}, nil
}

// Sell executes one sale to a roster customer: delivery presence, cooldown,
// strain compatibility, and inventory are all re-validated against persisted
// state, then the customer bookkeeping, sale counter, and clamped reputation
// update land in a single commit.
func (s *Service) Sell(ctx context.Context, matchID uint64, actor string, customerIndex, strainLevel int) ([]Event, error) {
	rec, err := s.loadActive(ctx, matchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := rec.Match
	if err := m.EnsureOpen(now); err != nil {
		return nil, err
	}
	if customerIndex < 0 || customerIndex >= domain.NumCustomers {
		return nil, domain.ErrInvalidCustomerIndex
	}
	role, err := m.RoleOf(actor)
	if err != nil {
		return nil, err
	}

	// The delivery set is the authoritative sale gate. An absent customer is
	// a hard failure even when every other precondition holds.
	if !rec.Delivery.Available(uint8(customerIndex)) {
		return nil, domain.ErrCustomerNotDeliverable
	}
	if !m.CustomerAvailable(customerIndex, now) {
		return nil, domain.ErrCustomerOnCooldown
	}

	layer := domain.LayerFromIndex(customerIndex)
	if !domain.StrainCompatible(layer, strainLevel) {
		return nil, domain.ErrInvalidStrainLevel
	}

	inv := rec.Grow.Inventory(role)
	if !inv.Has(strainLevel) {
		return nil, domain.ErrInsufficientInventory
	}
	if !inv.Decrement(strainLevel) {
		// Unreachable after the Has check; a failure here means the records
		// disagree with themselves.
		return nil, domain.ErrInsufficientInventory
	}

	// A sale without a matching harvest record carries no variant bonus.
	delta := domain.ReputationDelta(layer, strainLevel)
	variantID := -1
	if variant, ok := rec.Grow.VariantForSale(role, strainLevel); ok {
		delta += domain.VariantBonus(variant)
		variantID = int(variant)
	}
	m.RecordSale(role, customerIndex, delta, now)

	if err := s.ledger.Commit(ctx, rec, nil); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	rep := m.ReputationA
	sales := m.SalesA
	if role == domain.RoleB {
		rep = m.ReputationB
		sales = m.SalesB
	}

	return []Event{{
		Kind: EventSale,
		Payload: SalePayload{
			UserID:        actor,
			CustomerIndex: customerIndex,
			StrainLevel:   uint8(strainLevel),
			VariantID:     variantID,
			RepDelta:      delta,
			Reputation:    rep,
			Sales:         sales,
		},
	}}, nil
}

// RefreshDelivery rotates the active customer set once the rotation interval
// has elapsed. The new set depends only on the match id and the time bucket,
// so any observer can verify it by recomputation.
func (s *Service) RefreshDelivery(ctx context.Context, matchID uint64) ([]Event, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := rec.Match.EnsureOpen(now); err != nil {
		return nil, err
	}

	prev := activeSpots(rec.Delivery)
	if err := rec.Delivery.Refresh(now); err != nil {
		return nil, err
	}

	if err := s.ledger.Commit(ctx, rec, nil); err != nil {
		return nil, fmt.Errorf("commit delivery rotation: %w", err)
	}

	return []Event{{
		Kind: EventDeliveryRotated,
		Payload: DeliveryRotatedPayload{
			MatchID:    matchID,
			Bucket:     int64(domain.RotationBucket(now)),
			PrevSpots:  prev,
			Spots:      activeSpots(rec.Delivery),
			ActiveFrom: rec.Delivery.LastUpdateAt,
		},
	}}, nil
}

// Finalize closes the match after its end time and settles the stake: the
// whole remaining escrow balance transfers to the winner in the same atomic
// step that marks the match finalized.
func (s *Service) Finalize(ctx context.Context, matchID uint64, actor string) ([]Event, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	m := rec.Match
	if m.Finalized {
		return nil, domain.ErrMatchFinalized
	}
	if actor != m.PlayerA && actor != m.PlayerB {
		return nil, domain.ErrUnauthorizedFinalize
	}

	now := s.clock.Now()
	if now < m.EndAt {
		return nil, domain.ErrFinalizeTooEarly
	}

	stake := rec.Stake
	if !stake.CanFinalize() {
		return nil, domain.ErrMatchNotActive
	}

	winner, _, winnerSales, _ := m.Winner()

	// The live escrow balance is authoritative over the cached escrow
	// accounting fields.
	pot := rec.EscrowBalance
	m.Finalized = true
	stake.Status = domain.StakeFinalized
	stake.SettledPot = pot
	rec.EscrowBalance = 0

	var wallets []ports.WalletUpdate
	if pot > 0 {
		wallets = append(wallets, ports.WalletUpdate{
			UserID: winner,
			Amount: pot,
			Metadata: map[string]interface{}{
				"reason":   "stake_payout",
				"match_id": m.IDHash,
				"sales":    winnerSales,
			},
		})
	}

	if err := s.ledger.Commit(ctx, rec, wallets); err != nil {
		return nil, fmt.Errorf("commit finalization: %w", err)
	}

	return []Event{
		{
			Kind: EventMatchFinalized,
			Payload: MatchFinalizedPayload{
				MatchID:    matchID,
				Winner:     winner,
				SalesA:     m.SalesA,
				SalesB:     m.SalesB,
				RepA:       m.ReputationA,
				RepB:       m.ReputationB,
				PotAwarded: pot,
			},
		},
		{
			Kind: EventStakePayout,
			Payload: StakePayoutPayload{
				MatchID: matchID,
				UserID:  winner,
				Amount:  pot,
			},
		},
	}, nil
}

// Snapshot loads the current match records without mutating anything.
func (s *Service) Snapshot(ctx context.Context, matchID uint64) (*ports.MatchRecords, error) {
	return s.load(ctx, matchID)
}

// Smell reports a player's current smell reading, derived purely from the
// persisted planting timestamps.
func (s *Service) Smell(ctx context.Context, matchID uint64, actor string) (uint16, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return 0, err
	}
	role, err := rec.Match.RoleOf(actor)
	if err != nil {
		return 0, err
	}
	return rec.Grow.Smell(role, s.clock.Now()), nil
}

// load fetches the match records and verifies they describe the same match.
func (s *Service) load(ctx context.Context, matchID uint64) (*ports.MatchRecords, error) {
	rec, err := s.ledger.Load(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	if rec.Match == nil || rec.Grow == nil || rec.Delivery == nil || rec.Stake == nil {
		return nil, errors.New("match records incomplete")
	}
	if rec.Match.ID != matchID || rec.Grow.MatchID != matchID ||
		rec.Delivery.MatchID != matchID || rec.Stake.MatchID != matchID {
		return nil, domain.ErrMatchIDMismatch
	}
	return rec, nil
}

// loadActive is load plus the requirement that the stake has been activated.
// Gameplay never runs against a pending or settled stake.
func (s *Service) loadActive(ctx context.Context, matchID uint64) (*ports.MatchRecords, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec.Stake.Status != domain.StakeActive {
		return nil, domain.ErrMatchNotActive
	}
	return rec, nil
}

// ActiveStrains lists the strain ids currently active under the rotation
// schedule. Informational: clients use it to surface the shop rotation.
func (s *Service) ActiveStrains(ctx context.Context, matchID uint64) ([]int, error) {
	rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var active []int
	for id := 0; id <= 6; id++ {
		if rec.Match.StrainActive(id, now) {
			active = append(active, id)
		}
	}
	return active, nil
}

func activeSpots(d *domain.DeliveryState) []uint8 {
	out := make([]uint8, 0, d.ActiveCount)
	for i := 0; i < int(d.ActiveCount); i++ {
		out = append(out, d.Spots[i])
	}
	return out
}
