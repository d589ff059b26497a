package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertCoinIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertCoin(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}
	second, err := store.UpsertCoin(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("Second UpsertCoin failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Upsert assigned a new id: got %d, want %d", second.ID, first.ID)
	}

	coins, err := store.Coins(ctx)
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	if len(coins) != 1 {
		t.Errorf("Expected 1 coin after duplicate upsert, got %d", len(coins))
	}
}

func TestUpsertCoinPreservesFavourite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coin, err := store.UpsertCoin(ctx, "ethereum")
	if err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}
	if err := store.SetCoinFavourite(ctx, coin.ID, true); err != nil {
		t.Fatalf("SetCoinFavourite failed: %v", err)
	}

	// Re-upserting the same external id must not reset the flag.
	again, err := store.UpsertCoin(ctx, "ethereum")
	if err != nil {
		t.Fatalf("Second UpsertCoin failed: %v", err)
	}
	if !again.Favourite {
		t.Error("Favourite flag lost after re-upsert")
	}
}

func TestCoinLookupMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.CoinByExternalID(ctx, "no-such-coin")
	if err != nil {
		t.Fatalf("CoinByExternalID failed: %v", err)
	}
	if found {
		t.Error("Expected miss for unknown external id")
	}

	_, found, err = store.CoinByID(ctx, 9999)
	if err != nil {
		t.Fatalf("CoinByID failed: %v", err)
	}
	if found {
		t.Error("Expected miss for unknown id")
	}
}

func TestSetCoinFavouriteUnknownID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetCoinFavourite(ctx, 42, true); err == nil {
		t.Error("Expected error updating favourite of unknown coin")
	}
}

func TestInsertMissingCoins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.UpsertCoin(ctx, "bitcoin"); err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}

	ids := []string{"bitcoin", "ethereum", "dogecoin"}
	if err := store.InsertMissingCoins(ctx, ids); err != nil {
		t.Fatalf("InsertMissingCoins failed: %v", err)
	}

	coins, err := store.Coins(ctx)
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	if len(coins) != 3 {
		t.Fatalf("Expected 3 coins, got %d", len(coins))
	}

	// A second pass adds nothing.
	if err := store.InsertMissingCoins(ctx, ids); err != nil {
		t.Fatalf("Second InsertMissingCoins failed: %v", err)
	}
	coins, err = store.Coins(ctx)
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	if len(coins) != 3 {
		t.Errorf("Expected 3 coins after repeat hydration, got %d", len(coins))
	}
}

func TestCoinsOrderedByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zcash", "aave", "monero"} {
		if _, err := store.UpsertCoin(ctx, id); err != nil {
			t.Fatalf("UpsertCoin failed: %v", err)
		}
	}

	coins, err := store.Coins(ctx)
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	for i := 1; i < len(coins); i++ {
		if coins[i].ID <= coins[i-1].ID {
			t.Errorf("Coins not ordered by id: %d after %d", coins[i].ID, coins[i-1].ID)
		}
	}
}

func TestVsCurrencyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	currency, err := store.UpsertVsCurrency(ctx, "usd")
	if err != nil {
		t.Fatalf("UpsertVsCurrency failed: %v", err)
	}

	byName, found, err := store.VsCurrencyByName(ctx, "usd")
	if err != nil || !found {
		t.Fatalf("VsCurrencyByName failed: found=%v err=%v", found, err)
	}
	if byName.ID != currency.ID {
		t.Errorf("Lookup returned id %d, want %d", byName.ID, currency.ID)
	}

	if err := store.SetVsCurrencyFavourite(ctx, currency.ID, true); err != nil {
		t.Fatalf("SetVsCurrencyFavourite failed: %v", err)
	}
	byID, found, err := store.VsCurrencyByID(ctx, currency.ID)
	if err != nil || !found {
		t.Fatalf("VsCurrencyByID failed: found=%v err=%v", found, err)
	}
	if !byID.Favourite {
		t.Error("Favourite flag not persisted")
	}
}

func TestInsertTriggerAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coin, err := store.UpsertCoin(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}
	currency, err := store.UpsertVsCurrency(ctx, "usd")
	if err != nil {
		t.Fatalf("UpsertVsCurrency failed: %v", err)
	}

	trigger, err := store.InsertTrigger(ctx, coin.ID, currency.ID, 50000, 60000)
	if err != nil {
		t.Fatalf("InsertTrigger failed: %v", err)
	}
	if trigger.ID == 0 {
		t.Error("Expected non-zero trigger id")
	}
	if trigger.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	got, found, err := store.TriggerByID(ctx, trigger.ID)
	if err != nil || !found {
		t.Fatalf("TriggerByID failed: found=%v err=%v", found, err)
	}
	if got.CoinID != coin.ID || got.CurrencyID != currency.ID {
		t.Errorf("Trigger references wrong: got coin=%d currency=%d", got.CoinID, got.CurrencyID)
	}
	if got.InitialPrice != 50000 || got.TargetPrice != 60000 {
		t.Errorf("Trigger prices wrong: got initial=%v target=%v", got.InitialPrice, got.TargetPrice)
	}
}

func TestDeleteTriggerIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coin, _ := store.UpsertCoin(ctx, "bitcoin")
	currency, _ := store.UpsertVsCurrency(ctx, "usd")
	trigger, err := store.InsertTrigger(ctx, coin.ID, currency.ID, 100, 200)
	if err != nil {
		t.Fatalf("InsertTrigger failed: %v", err)
	}

	if err := store.DeleteTrigger(ctx, trigger.ID); err != nil {
		t.Fatalf("DeleteTrigger failed: %v", err)
	}
	// Deleting again must not fail.
	if err := store.DeleteTrigger(ctx, trigger.ID); err != nil {
		t.Errorf("Second DeleteTrigger failed: %v", err)
	}
	// Neither must deleting an id that never existed.
	if err := store.DeleteTrigger(ctx, 987654); err != nil {
		t.Errorf("DeleteTrigger of unknown id failed: %v", err)
	}

	_, found, err := store.TriggerByID(ctx, trigger.ID)
	if err != nil {
		t.Fatalf("TriggerByID failed: %v", err)
	}
	if found {
		t.Error("Trigger still present after delete")
	}
}

func TestTriggerIDsNotReused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coin, _ := store.UpsertCoin(ctx, "bitcoin")
	currency, _ := store.UpsertVsCurrency(ctx, "usd")

	first, err := store.InsertTrigger(ctx, coin.ID, currency.ID, 100, 200)
	if err != nil {
		t.Fatalf("InsertTrigger failed: %v", err)
	}
	if err := store.DeleteTrigger(ctx, first.ID); err != nil {
		t.Fatalf("DeleteTrigger failed: %v", err)
	}

	second, err := store.InsertTrigger(ctx, coin.ID, currency.ID, 100, 200)
	if err != nil {
		t.Fatalf("Second InsertTrigger failed: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("Trigger id reused: got %d after deleting %d", second.ID, first.ID)
	}
}

func TestInsertTriggerUnknownReference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.InsertTrigger(ctx, 1, 1, 100, 200); err == nil {
		t.Error("Expected foreign key error for unknown references")
	}
}
