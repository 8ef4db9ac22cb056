package nakama

const (
	// RpcQuickMatch finds an open match waiting for an opponent or creates
	// a fresh one for the caller.
	RpcQuickMatch = "quick_match"

	// RpcCreateMatch creates a match with the caller as player A, escrowing
	// their stake.
	RpcCreateMatch = "create_match"

	// RpcJoinMatchStake commits the caller as player B: escrow, burn, and
	// activation in one step.
	RpcJoinMatchStake = "join_match_stake"

	// RpcCancelMatch refunds an unanswered stake after the cancel timeout.
	RpcCancelMatch = "cancel_match"

	// RpcFinalizeMatch closes an ended match and pays the pot to the winner.
	RpcFinalizeMatch = "finalize_match"

	// RpcMatchState returns the full current match snapshot.
	RpcMatchState = "match_state"

	// RpcMatchSmell reports the caller's current smell reading.
	RpcMatchSmell = "match_smell"

	// RpcResultToken signs an attestation token over a finalized result.
	RpcResultToken = "result_token"

	// MatchNameDroog is the authoritative match handler name registered with Nakama.
	MatchNameDroog = "droog_match"

	// CurrencyPacks is the wallet changeset key for the game currency.
	CurrencyPacks = "packs"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpPlant   int64 = 1
	OpHarvest int64 = 2
	OpSell    int64 = 3

	// Server -> Client events
	OpMatchState      int64 = 101
	OpMatchActivated  int64 = 102
	OpPlanted         int64 = 103
	OpHarvested       int64 = 104
	OpSale            int64 = 105
	OpDeliveryRotated int64 = 106
	OpGameError       int64 = 107
)
