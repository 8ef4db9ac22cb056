package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"droog/internal/domain"
	"droog/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	matchCollection = "droog_matches"

	keyMatch    = "match"
	keyGrow     = "grow"
	keyDelivery = "delivery"
	keyStake    = "stake"
	keyEscrow   = "escrow"
)

var recordKeys = []string{keyMatch, keyGrow, keyDelivery, keyStake, keyEscrow}

// ErrMatchRecordsNotFound is returned by Load when the match has no records.
var ErrMatchRecordsNotFound = errors.New("match records not found")

// escrowRecord is the authoritative escrow value balance, stored alongside
// the other match records. Reducing it without a wallet credit in the same
// commit destroys value.
type escrowRecord struct {
	MatchID uint64 `json:"match_id"`
	Balance int64  `json:"balance"`
}

// storageAPI is the slice of the Nakama runtime the ledger needs. Narrow so
// tests can substitute an in-memory implementation.
type storageAPI interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error)
}

var _ storageAPI = runtime.NakamaModule(nil)

// NakamaMatchLedger implements ports.MatchLedger over Nakama storage objects
// and wallets. All records are system-owned and closed to clients. One
// Create or Commit maps to exactly one MultiUpdate, so record writes and
// wallet moves succeed or fail together; storage versions serialize
// concurrent commits against the same match.
type NakamaMatchLedger struct {
	nk storageAPI
}

// NewNakamaMatchLedger creates a new match ledger adapter.
func NewNakamaMatchLedger(nk storageAPI) *NakamaMatchLedger {
	return &NakamaMatchLedger{nk: nk}
}

func recordKey(kind string, matchID uint64) string {
	return kind + ":" + strconv.FormatUint(matchID, 10)
}

// Create persists a fresh record set. Every write carries version "*" so the
// whole MultiUpdate fails if any record already exists.
func (l *NakamaMatchLedger) Create(ctx context.Context, rec *ports.MatchRecords, wallets []ports.WalletUpdate) error {
	versions := map[string]string{}
	for _, key := range recordKeys {
		versions[key] = "*"
	}
	writes, err := l.storageWrites(rec, versions)
	if err != nil {
		return err
	}

	if _, _, err := l.nk.MultiUpdate(ctx, nil, writes, nil, toRuntimeWallets(wallets), true); err != nil {
		return fmt.Errorf("create match %d: %w", rec.Match.ID, err)
	}
	return nil
}

// Load reads the full record set for a match and captures the storage
// versions for the next Commit's compare-and-swap.
func (l *NakamaMatchLedger) Load(ctx context.Context, matchID uint64) (*ports.MatchRecords, error) {
	reads := make([]*runtime.StorageRead, 0, len(recordKeys))
	for _, key := range recordKeys {
		reads = append(reads, &runtime.StorageRead{
			Collection: matchCollection,
			Key:        recordKey(key, matchID),
		})
	}

	objects, err := l.nk.StorageRead(ctx, reads)
	if err != nil {
		return nil, fmt.Errorf("read match %d: %w", matchID, err)
	}

	byKey := make(map[string]*api.StorageObject, len(objects))
	for _, obj := range objects {
		byKey[obj.Key] = obj
	}

	rec := &ports.MatchRecords{
		Match:    &domain.Match{},
		Grow:     &domain.GrowState{},
		Delivery: &domain.DeliveryState{},
		Stake:    &domain.Stake{},
		Versions: make(map[string]string, len(recordKeys)),
	}
	var escrow escrowRecord

	targets := map[string]interface{}{
		keyMatch:    rec.Match,
		keyGrow:     rec.Grow,
		keyDelivery: rec.Delivery,
		keyStake:    rec.Stake,
		keyEscrow:   &escrow,
	}
	for _, key := range recordKeys {
		obj, ok := byKey[recordKey(key, matchID)]
		if !ok {
			return nil, fmt.Errorf("match %d record %s: %w", matchID, key, ErrMatchRecordsNotFound)
		}
		if err := json.Unmarshal([]byte(obj.Value), targets[key]); err != nil {
			return nil, fmt.Errorf("unmarshal match %d record %s: %w", matchID, key, err)
		}
		rec.Versions[key] = obj.Version
	}

	rec.EscrowBalance = escrow.Balance
	return rec, nil
}

// Commit writes the record set back under the versions captured at Load.
// A concurrent commit in between fails the whole MultiUpdate, wallet moves
// included.
func (l *NakamaMatchLedger) Commit(ctx context.Context, rec *ports.MatchRecords, wallets []ports.WalletUpdate) error {
	if len(rec.Versions) != len(recordKeys) {
		return errors.New("commit requires records obtained from Load")
	}
	writes, err := l.storageWrites(rec, rec.Versions)
	if err != nil {
		return err
	}

	if _, _, err := l.nk.MultiUpdate(ctx, nil, writes, nil, toRuntimeWallets(wallets), true); err != nil {
		return fmt.Errorf("commit match %d: %w", rec.Match.ID, err)
	}
	return nil
}

func (l *NakamaMatchLedger) storageWrites(rec *ports.MatchRecords, versions map[string]string) ([]*runtime.StorageWrite, error) {
	matchID := rec.Match.ID
	payloads := map[string]interface{}{
		keyMatch:    rec.Match,
		keyGrow:     rec.Grow,
		keyDelivery: rec.Delivery,
		keyStake:    rec.Stake,
		keyEscrow:   escrowRecord{MatchID: matchID, Balance: rec.EscrowBalance},
	}

	writes := make([]*runtime.StorageWrite, 0, len(recordKeys))
	for _, key := range recordKeys {
		value, err := json.Marshal(payloads[key])
		if err != nil {
			return nil, fmt.Errorf("marshal match %d record %s: %w", matchID, key, err)
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      matchCollection,
			Key:             recordKey(key, matchID),
			Value:           string(value),
			Version:         versions[key],
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	return writes, nil
}

func toRuntimeWallets(wallets []ports.WalletUpdate) []*runtime.WalletUpdate {
	if len(wallets) == 0 {
		return nil
	}
	out := make([]*runtime.WalletUpdate, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, &runtime.WalletUpdate{
			UserID:    w.UserID,
			Changeset: map[string]int64{CurrencyPacks: w.Amount},
			Metadata:  w.Metadata,
		})
	}
	return out
}

var _ ports.MatchLedger = (*NakamaMatchLedger)(nil)
