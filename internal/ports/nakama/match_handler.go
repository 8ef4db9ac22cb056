package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"droog/internal/app"
	"droog/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// matchLabel is the queryable JSON label kept on the realtime match.
type matchLabel struct {
	Game    string `json:"game"`
	Open    int    `json:"open"`
	Phase   string `json:"phase"` // pending | active | finalized
	MatchID string `json:"match_id"`
	PlayerA string `json:"player_a"`
}

// MatchState holds the authoritative runtime state for the Nakama match
// handler. All rule state lives in the ledger records; the handler keeps only
// routing data and caches that are safe to lose on a node restart.
type MatchState struct {
	MatchID uint64 `json:"match_id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	EndAt   int64  `json:"end_at"`

	LastRotationAt int64 `json:"last_rotation_at"`
	Finalized      bool  `json:"finalized"`

	Presences map[string]runtime.Presence `json:"-"`
	App       *app.Service                `json:"-"`
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created. The ledger records already
// exist: the creating RPC passes their match id through params.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	raw, _ := params["match_id"].(string)
	matchID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		logger.Error("MatchInit: missing or invalid match_id param: %q", raw)
		return nil, 0, ""
	}

	svc := newAppService(nk)
	rec, err := svc.Snapshot(ctx, matchID)
	if err != nil {
		logger.Error("MatchInit: failed to load match %d: %v", matchID, err)
		return nil, 0, ""
	}

	state := &MatchState{
		MatchID:        matchID,
		PlayerA:        rec.Match.PlayerA,
		PlayerB:        rec.Match.PlayerB,
		EndAt:          rec.Match.EndAt,
		LastRotationAt: rec.Delivery.LastUpdateAt,
		Finalized:      rec.Match.Finalized,
		Presences:      make(map[string]runtime.Presence),
		App:            svc,
	}

	labelBytes, err := json.Marshal(state.label())
	if err != nil {
		logger.Error("MatchInit: failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (ms *MatchState) label() matchLabel {
	open := 0
	phase := "active"
	if ms.PlayerB == "" {
		open = 1
		phase = "pending"
	}
	if ms.Finalized {
		phase = "finalized"
	}
	return matchLabel{
		Game:    "droog",
		Open:    open,
		Phase:   phase,
		MatchID: strconv.FormatUint(ms.MatchID, 10),
		PlayerA: ms.PlayerA,
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if userID == matchState.PlayerA || userID == matchState.PlayerB {
		return state, true, ""
	}
	if matchState.PlayerB != "" {
		return state, false, "match full"
	}

	// The open seat is player B's; joining it commits a stake, so check the
	// balance before letting the presence in.
	balance, err := NewNakamaEconomyAdapter(nk).GetBalance(ctx, userID)
	if err != nil {
		logger.Error("MatchJoinAttempt: balance check for %s failed: %v", userID, err)
		return state, false, "balance unavailable"
	}
	if balance < matchState.App.Tuning().StakeAmount {
		return state, false, "insufficient packs"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if userID == matchState.PlayerA || userID == matchState.PlayerB {
			continue
		}

		// A new second player: commit their stake, burning the activation cut.
		_, events, err := matchState.App.JoinStake(ctx, matchState.MatchID, userID)
		if err != nil {
			logger.Error("MatchJoin: stake join for %s failed: %v", userID, err)
			delete(matchState.Presences, userID)
			if kickErr := dispatcher.MatchKick([]runtime.Presence{p}); kickErr != nil {
				logger.Error("MatchJoin: failed to kick %s: %v", userID, kickErr)
			}
			continue
		}

		matchState.PlayerB = userID
		mh.updateLabel(matchState, dispatcher, logger)
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
		logger.Info("MatchJoin: match %d activated with player B %s", matchState.MatchID, userID)
	}

	mh.broadcastSnapshot(ctx, matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match. The rule
// state is persistent, so a leaver can rejoin; the realtime match only ends
// once it is finalized or abandoned past its end time.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		over := matchState.Finalized || time.Now().Unix() >= matchState.EndAt
		if over {
			logger.Info("MatchLeave: match %d empty and over, terminating.", matchState.MatchID)
			return nil
		}
	}

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpPlant:
			mh.handlePlant(ctx, matchState, dispatcher, logger, msg)
		case OpHarvest:
			mh.handleHarvest(ctx, matchState, dispatcher, logger, msg)
		case OpSell:
			mh.handleSell(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.maybeRotateDelivery(ctx, matchState, dispatcher, logger)

	return matchState
}

// maybeRotateDelivery drives the delivery rotation on the server clock so
// clients see fresh spots without polling. Rotation is deterministic in the
// match id and time bucket, so a missed tick changes nothing observable.
func (mh *matchHandler) maybeRotateDelivery(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.PlayerB == "" || state.Finalized {
		return
	}
	now := time.Now().Unix()
	if now >= state.EndAt || now < state.LastRotationAt+domain.DeliveryRotationInterval {
		return
	}

	events, err := state.App.RefreshDelivery(ctx, state.MatchID)
	if err != nil {
		// Another writer may have rotated first; the recomputed set for this
		// bucket is identical anyway. Try again next bucket.
		state.LastRotationAt = now
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
		if p, ok := ev.Payload.(app.DeliveryRotatedPayload); ok {
			state.LastRotationAt = p.ActiveFrom
		}
	}
}

type plantRequest struct {
	Slot        int `json:"slot"`
	StrainLevel int `json:"strain_level"`
}

type harvestRequest struct {
	Slot int `json:"slot"`
}

type sellRequest struct {
	CustomerIndex int `json:"customer_index"`
	StrainLevel   int `json:"strain_level"`
}

func (mh *matchHandler) handlePlant(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var req plantRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handlePlant: invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidArgument, "invalid plant request")
		return
	}

	events, err := state.App.Plant(ctx, state.MatchID, senderID, req.Slot, req.StrainLevel)
	if err != nil {
		logger.Warn("handlePlant: %s slot %d level %d: %v", senderID, req.Slot, req.StrainLevel, err)
		mh.sendError(state, dispatcher, logger, senderID, codeFailedPrecondition, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleHarvest(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var req harvestRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleHarvest: invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidArgument, "invalid harvest request")
		return
	}

	events, err := state.App.Harvest(ctx, state.MatchID, senderID, req.Slot)
	if err != nil {
		logger.Warn("handleHarvest: %s slot %d: %v", senderID, req.Slot, err)
		mh.sendError(state, dispatcher, logger, senderID, codeFailedPrecondition, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleSell(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var req sellRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSell: invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidArgument, "invalid sell request")
		return
	}

	events, err := state.App.Sell(ctx, state.MatchID, senderID, req.CustomerIndex, req.StrainLevel)
	if err != nil {
		logger.Warn("handleSell: %s customer %d level %d: %v", senderID, req.CustomerIndex, req.StrainLevel, err)
		mh.sendError(state, dispatcher, logger, senderID, codeFailedPrecondition, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastSnapshot sends the full match view to everyone connected.
func (mh *matchHandler) broadcastSnapshot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	rec, err := state.App.Snapshot(ctx, state.MatchID)
	if err != nil {
		logger.Error("broadcastSnapshot: %v", err)
		return
	}
	strains, err := state.App.ActiveStrains(ctx, state.MatchID)
	if err != nil {
		logger.Error("broadcastSnapshot: %v", err)
		return
	}

	bytes, err := json.Marshal(buildSnapshot(rec, strains))
	if err != nil {
		logger.Error("broadcastSnapshot: marshal failed: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, bytes, nil, nil, true); err != nil {
		logger.Error("broadcastSnapshot: broadcast failed: %v", err)
	}
}

// broadcastEvent converts an app event to its wire opcode and dispatches it.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	switch ev.Kind {
	case app.EventMatchActivated:
		opCode = OpMatchActivated
	case app.EventPlanted:
		opCode = OpPlanted
	case app.EventHarvested:
		opCode = OpHarvested
	case app.EventSale:
		opCode = OpSale
	case app.EventDeliveryRotated:
		opCode = OpDeliveryRotated
	default:
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast).
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

type errorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(errorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(state.label())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
