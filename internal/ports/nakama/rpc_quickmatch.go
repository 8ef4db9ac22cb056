package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients looking for an opponent.
type QuickMatchResponse struct {
	MatchID     string `json:"match_id"`
	NakamaMatch string `json:"nakama_match"`
	IsNew       bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:     rpcQuickMatch,
		RpcCreateMatch:    RpcCreateMatchFn,
		RpcJoinMatchStake: RpcJoinMatchStakeFn,
		RpcCancelMatch:    RpcCancelMatchFn,
		RpcFinalizeMatch:  RpcFinalizeMatchFn,
		RpcMatchState:     RpcMatchStateFn,
		RpcMatchSmell:     RpcMatchSmellFn,
		RpcResultToken:    RpcResultTokenFn,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// rpcQuickMatch finds a match still waiting for player B, or creates a new
// one with the caller as player A. Joining the returned realtime match as
// the second player commits the caller's stake.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	// Find any droog match with an open seat.
	query := "+label.game:droog +label.open:>=1"

	limit := 10
	authoritative := true

	minSize := 1
	maxSize := 1 // exactly one seated player: the waiting creator

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("internal error", codeInternal)
	}

	for _, m := range matches {
		var label matchLabel
		if err := json.Unmarshal([]byte(m.GetLabel().GetValue()), &label); err != nil {
			continue
		}
		// Never pair a player with their own waiting match.
		if label.PlayerA == userID {
			continue
		}
		resp := QuickMatchResponse{MatchID: label.MatchID, NakamaMatch: m.MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// No open match: create one with the caller as player A.
	svc := newAppService(nk)
	rec, _, err := svc.CreateMatch(ctx, userID, 0)
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: CreateMatch failed: %v", userID, err)
		return "", toRuntimeError(err)
	}

	matchIDStr := strconv.FormatUint(rec.Match.ID, 10)
	nakamaMatchID, err := nk.MatchCreate(ctx, MatchNameDroog, map[string]interface{}{
		"match_id": matchIDStr,
	})
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchCreate failed: %v", userID, err)
		return "", runtime.NewError("internal error", codeInternal)
	}

	resp := QuickMatchResponse{MatchID: matchIDStr, NakamaMatch: nakamaMatchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
