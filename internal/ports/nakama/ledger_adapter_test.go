package nakama

import (
	"context"
	"strconv"
	"testing"

	"droog/internal/domain"
	"droog/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeStorage is an in-memory storageAPI honoring Nakama's version semantics:
// "*" is create-only, a concrete version is compare-and-swap, and a
// MultiUpdate applies all writes and wallet moves or none.
type fakeStorage struct {
	objects map[string]*api.StorageObject
	seq     int

	wallets []*runtime.WalletUpdate
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]*api.StorageObject)}
}

func (f *fakeStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[r.Collection+"/"+r.Key]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeStorage) MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error) {
	// Validate every write before applying any, mirroring transactionality.
	for _, w := range storageWrites {
		existing, ok := f.objects[w.Collection+"/"+w.Key]
		switch w.Version {
		case "":
		case "*":
			if ok {
				return nil, nil, runtime.ErrStorageRejectedVersion
			}
		default:
			if !ok || existing.Version != w.Version {
				return nil, nil, runtime.ErrStorageRejectedVersion
			}
		}
	}
	for _, w := range storageWrites {
		f.seq++
		f.objects[w.Collection+"/"+w.Key] = &api.StorageObject{
			Collection: w.Collection,
			Key:        w.Key,
			Value:      w.Value,
			Version:    "v" + strconv.Itoa(f.seq),
		}
	}
	f.wallets = append(f.wallets, walletUpdates...)
	return nil, nil, nil
}

func newLedgerRecords(matchID uint64) *ports.MatchRecords {
	m := &domain.Match{
		ID:      matchID,
		IDHash:  "hash",
		StartAt: 1000,
		EndAt:   1600,
		PlayerA: "player-a",
	}
	return &ports.MatchRecords{
		Match:    m,
		Grow:     domain.NewGrowState(m),
		Delivery: domain.NewDeliveryState(matchID, 1000),
		Stake: &domain.Stake{
			MatchID:   matchID,
			IDHash:    "hash",
			PlayerA:   "player-a",
			Status:    domain.StakePending,
			EscrowedA: 1_000_000,
			CreatedAt: 1000,
		},
		EscrowBalance: 1_000_000,
	}
}

func TestLedgerCreateLoadRoundTrip(t *testing.T) {
	storage := newFakeStorage()
	ledger := NewNakamaMatchLedger(storage)
	ctx := context.Background()

	rec := newLedgerRecords(42)
	wallets := []ports.WalletUpdate{{UserID: "player-a", Amount: -1_000_000}}
	if err := ledger.Create(ctx, rec, wallets); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if len(storage.wallets) != 1 || storage.wallets[0].Changeset[CurrencyPacks] != -1_000_000 {
		t.Fatalf("unexpected wallet updates: %+v", storage.wallets)
	}

	loaded, err := ledger.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Match.PlayerA != "player-a" || loaded.Match.EndAt != 1600 {
		t.Fatalf("match record corrupted: %+v", loaded.Match)
	}
	if loaded.EscrowBalance != 1_000_000 {
		t.Fatalf("escrow balance = %d, want 1000000", loaded.EscrowBalance)
	}
	if loaded.Delivery.ActiveCount < 3 {
		t.Fatalf("delivery record corrupted: %+v", loaded.Delivery)
	}
	if len(loaded.Versions) != 5 {
		t.Fatalf("versions = %v, want 5 entries", loaded.Versions)
	}
}

func TestLedgerCreateRejectsExisting(t *testing.T) {
	storage := newFakeStorage()
	ledger := NewNakamaMatchLedger(storage)
	ctx := context.Background()

	if err := ledger.Create(ctx, newLedgerRecords(42), nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := ledger.Create(ctx, newLedgerRecords(42), nil); err == nil {
		t.Fatal("expected duplicate create to fail")
	}
}

func TestLedgerCommitSerializesConcurrentWriters(t *testing.T) {
	storage := newFakeStorage()
	ledger := NewNakamaMatchLedger(storage)
	ctx := context.Background()

	if err := ledger.Create(ctx, newLedgerRecords(42), nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	first, err := ledger.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	second, err := ledger.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	first.Match.SalesA = 1
	if err := ledger.Commit(ctx, first, nil); err != nil {
		t.Fatalf("first Commit error: %v", err)
	}

	// The second writer holds stale versions and must be rejected whole,
	// wallet move included.
	second.Match.SalesB = 1
	err = ledger.Commit(ctx, second, []ports.WalletUpdate{{UserID: "player-b", Amount: 5}})
	if err == nil {
		t.Fatal("expected stale commit to fail")
	}
	if len(storage.wallets) != 0 {
		t.Fatalf("wallet moves applied despite rejected commit: %+v", storage.wallets)
	}

	reloaded, err := ledger.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Match.SalesA != 1 || reloaded.Match.SalesB != 0 {
		t.Fatalf("persisted sales = (%d,%d), want (1,0)", reloaded.Match.SalesA, reloaded.Match.SalesB)
	}
}

func TestLedgerCommitRequiresLoadedVersions(t *testing.T) {
	ledger := NewNakamaMatchLedger(newFakeStorage())

	rec := newLedgerRecords(42)
	if err := ledger.Commit(context.Background(), rec, nil); err == nil {
		t.Fatal("expected commit without versions to fail")
	}
}

func TestLedgerLoadMissingMatch(t *testing.T) {
	ledger := NewNakamaMatchLedger(newFakeStorage())

	if _, err := ledger.Load(context.Background(), 99); err == nil {
		t.Fatal("expected load of missing match to fail")
	}
}
