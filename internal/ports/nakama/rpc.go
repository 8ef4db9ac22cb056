package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"droog/internal/app"
	"droog/internal/config"
	"droog/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC-style status codes used with runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeInternal           = 13
)

// newAppService wires the app service over the live Nakama runtime.
func newAppService(nk runtime.NakamaModule) *app.Service {
	return app.NewService(NewNakamaMatchLedger(nk), NewNakamaEconomyAdapter(nk), NewSystemClock(), config.Tuning())
}

// toRuntimeError maps domain failures to client-facing Nakama errors with
// appropriate status codes. Internal detail stays in server logs.
func toRuntimeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCustomerIndex),
		errors.Is(err, domain.ErrInvalidStrainLevel),
		errors.Is(err, domain.ErrInvalidSlotIndex):
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, domain.ErrInvalidPlayer),
		errors.Is(err, domain.ErrUnauthorizedFinalize):
		return runtime.NewError(err.Error(), codePermissionDenied)
	case errors.Is(err, ErrMatchRecordsNotFound):
		return runtime.NewError("match not found", codeNotFound)
	case errors.Is(err, domain.ErrMatchNotStarted),
		errors.Is(err, domain.ErrMatchEnded),
		errors.Is(err, domain.ErrMatchFinalized),
		errors.Is(err, domain.ErrMatchNotPending),
		errors.Is(err, domain.ErrMatchNotActive),
		errors.Is(err, domain.ErrGrowthTimeNotElapsed),
		errors.Is(err, domain.ErrCustomerOnCooldown),
		errors.Is(err, domain.ErrCustomerNotDeliverable),
		errors.Is(err, domain.ErrEndgamePlantingLocked),
		errors.Is(err, domain.ErrDeliveryRotationTooSoon),
		errors.Is(err, domain.ErrCancelTooEarly),
		errors.Is(err, domain.ErrFinalizeTooEarly),
		errors.Is(err, domain.ErrSlotOccupied),
		errors.Is(err, domain.ErrSlotEmpty),
		errors.Is(err, domain.ErrAlreadyStaked),
		errors.Is(err, domain.ErrPlayerBAlreadyJoined),
		errors.Is(err, domain.ErrInventoryFull),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrInsufficientStakeBalance),
		errors.Is(err, domain.ErrPlantWontBeReady):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	default:
		return runtime.NewError("internal error", codeInternal)
	}
}

func callerID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("authentication required", codePermissionDenied)
	}
	return userID, nil
}

func parseMatchID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, runtime.NewError("invalid match_id", codeInvalidArgument)
	}
	return id, nil
}

type matchIDRequest struct {
	MatchID string `json:"match_id"`
}

func decodeMatchIDRequest(payload string) (uint64, error) {
	var req matchIDRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return 0, runtime.NewError("invalid payload", codeInvalidArgument)
	}
	return parseMatchID(req.MatchID)
}

func marshalResponse(logger runtime.Logger, v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal RPC response: %v", err)
		return "", runtime.NewError("internal error", codeInternal)
	}
	return string(b), nil
}

// CreateMatchResponse describes a freshly created match.
type CreateMatchResponse struct {
	MatchID     string `json:"match_id"`
	IDHash      string `json:"id_hash"`
	NakamaMatch string `json:"nakama_match"`
	StartAt     int64  `json:"start_at"`
	EndAt       int64  `json:"end_at"`
	Stake       int64  `json:"stake"`
}

// RpcCreateMatchFn creates the match records with the caller as player A and
// spins up the realtime match the players exchange messages through.
func RpcCreateMatchFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	rec, _, err := svc.CreateMatch(ctx, userID, 0)
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}

	matchIDStr := strconv.FormatUint(rec.Match.ID, 10)
	nakamaMatchID, err := nk.MatchCreate(ctx, MatchNameDroog, map[string]interface{}{
		"match_id": matchIDStr,
	})
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: MatchCreate failed: %v", userID, err)
		return "", runtime.NewError("internal error", codeInternal)
	}

	logger.Info("RpcCreateMatch [User:%s]: Created match %s (%s)", userID, matchIDStr, nakamaMatchID)
	return marshalResponse(logger, CreateMatchResponse{
		MatchID:     matchIDStr,
		IDHash:      rec.Match.IDHash,
		NakamaMatch: nakamaMatchID,
		StartAt:     rec.Match.StartAt,
		EndAt:       rec.Match.EndAt,
		Stake:       rec.Stake.EscrowedA,
	})
}

// JoinStakeResponse describes the activated match economy.
type JoinStakeResponse struct {
	MatchID string `json:"match_id"`
	Total   int64  `json:"total"`
	Burned  int64  `json:"burned"`
	Pot     int64  `json:"pot"`
}

// RpcJoinMatchStakeFn commits the caller's stake as player B, burning the
// activation cut and opening gameplay.
func RpcJoinMatchStakeFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	rec, events, err := svc.JoinStake(ctx, matchID, userID)
	if err != nil {
		logger.Error("RpcJoinMatchStake [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}

	activated := events[0].Payload.(app.MatchActivatedPayload)
	logger.Info("RpcJoinMatchStake [User:%s]: Activated match %d (pot %d, burned %d)", userID, matchID, activated.FinalPot, activated.Burned)
	return marshalResponse(logger, JoinStakeResponse{
		MatchID: strconv.FormatUint(rec.Match.ID, 10),
		Total:   activated.Total,
		Burned:  activated.Burned,
		Pot:     activated.FinalPot,
	})
}

// CancelMatchResponse describes a refunded cancellation.
type CancelMatchResponse struct {
	MatchID  string `json:"match_id"`
	Refunded int64  `json:"refunded"`
}

// RpcCancelMatchFn refunds the caller's unanswered stake after the cancel timeout.
func RpcCancelMatchFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	events, err := svc.CancelMatch(ctx, matchID, userID)
	if err != nil {
		logger.Error("RpcCancelMatch [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}

	cancelled := events[0].Payload.(app.MatchCancelledPayload)
	logger.Info("RpcCancelMatch [User:%s]: Cancelled match %d, refunded %d", userID, matchID, cancelled.Refunded)
	return marshalResponse(logger, CancelMatchResponse{
		MatchID:  strconv.FormatUint(matchID, 10),
		Refunded: cancelled.Refunded,
	})
}

// FinalizeMatchResponse describes the settled outcome.
type FinalizeMatchResponse struct {
	MatchID    string `json:"match_id"`
	Winner     string `json:"winner"`
	SalesA     uint32 `json:"sales_a"`
	SalesB     uint32 `json:"sales_b"`
	PotAwarded int64  `json:"pot_awarded"`
}

// RpcFinalizeMatchFn closes an ended match and pays the pot to the winner.
func RpcFinalizeMatchFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	events, err := svc.Finalize(ctx, matchID, userID)
	if err != nil {
		logger.Error("RpcFinalizeMatch [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}

	final := events[0].Payload.(app.MatchFinalizedPayload)
	logger.Info("RpcFinalizeMatch [User:%s]: Match %d won by %s (pot %d)", userID, matchID, final.Winner, final.PotAwarded)
	return marshalResponse(logger, FinalizeMatchResponse{
		MatchID:    strconv.FormatUint(matchID, 10),
		Winner:     final.Winner,
		SalesA:     final.SalesA,
		SalesB:     final.SalesB,
		PotAwarded: final.PotAwarded,
	})
}

// RpcMatchStateFn returns the full current snapshot of a match.
func RpcMatchStateFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	rec, err := svc.Snapshot(ctx, matchID)
	if err != nil {
		logger.Error("RpcMatchState [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}
	if userID != rec.Match.PlayerA && userID != rec.Match.PlayerB {
		return "", runtime.NewError("not a match participant", codePermissionDenied)
	}

	strains, err := svc.ActiveStrains(ctx, matchID)
	if err != nil {
		return "", toRuntimeError(err)
	}
	return marshalResponse(logger, buildSnapshot(rec, strains))
}

// MatchSmellResponse carries a player's current smell reading.
type MatchSmellResponse struct {
	MatchID string `json:"match_id"`
	Smell   uint16 `json:"smell"`
}

// RpcMatchSmellFn reports how much smell the caller's growing plants are
// putting out right now.
func RpcMatchSmellFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	svc := newAppService(nk)
	smell, err := svc.Smell(ctx, matchID, userID)
	if err != nil {
		logger.Error("RpcMatchSmell [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}

	return marshalResponse(logger, MatchSmellResponse{
		MatchID: strconv.FormatUint(matchID, 10),
		Smell:   smell,
	})
}

// ResultTokenResponse carries a signed attestation of a finalized outcome.
type ResultTokenResponse struct {
	Token string `json:"token"`
}

// RpcResultTokenFn signs a result token for a finalized match. Either
// participant may request it.
func RpcResultTokenFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	matchID, err := decodeMatchIDRequest(payload)
	if err != nil {
		return "", err
	}

	cfg := config.GetGameConfig()
	if cfg == nil || cfg.AttestSecret == "" {
		return "", runtime.NewError("result tokens are not enabled", codeFailedPrecondition)
	}

	svc := newAppService(nk)
	rec, err := svc.Snapshot(ctx, matchID)
	if err != nil {
		logger.Error("RpcResultToken [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}
	if userID != rec.Match.PlayerA && userID != rec.Match.PlayerB {
		return "", runtime.NewError("not a match participant", codePermissionDenied)
	}
	if !rec.Match.Finalized {
		return "", toRuntimeError(domain.ErrFinalizeTooEarly)
	}

	winner, loser, winnerSales, loserSales := rec.Match.Winner()
	attest := app.NewAttestService(cfg.AttestSecret, cfg.AttestIssuer, time.Hour)
	token, err := attest.SignResult(app.ResultClaims{
		MatchIDHash: rec.Match.IDHash,
		Winner:      winner,
		Loser:       loser,
		WinnerSales: winnerSales,
		LoserSales:  loserSales,
		PotAwarded:  rec.Stake.SettledPot,
	})
	if err != nil {
		logger.Error("RpcResultToken [User:%s]: %v", userID, err)
		return "", runtime.NewError("internal error", codeInternal)
	}

	return marshalResponse(logger, ResultTokenResponse{Token: token})
}
