package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: For any valid pair of prices, inserting a trigger and reading it
// back produces an equivalent trigger (round-trip consistency), and the
// derived direction matches the price relationship.
func TestProperty_TriggerRoundTripConsistency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "triggers_property.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	coin, err := store.UpsertCoin(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("Failed to upsert coin: %v", err)
	}
	currency, err := store.UpsertVsCurrency(ctx, "usd")
	if err != nil {
		t.Fatalf("Failed to upsert currency: %v", err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	priceGen := gen.Float64Range(0.00000001, 1000000.0)

	properties.Property("Trigger round-trip: insert then retrieve produces equivalent data", prop.ForAll(
		func(initialPrice, targetPrice float64) bool {
			trigger, err := store.InsertTrigger(ctx, coin.ID, currency.ID, initialPrice, targetPrice)
			if err != nil {
				t.Logf("Failed to insert trigger: %v", err)
				return false
			}

			retrieved, found, err := store.TriggerByID(ctx, trigger.ID)
			if err != nil || !found {
				t.Logf("Failed to retrieve trigger %d: found=%v err=%v", trigger.ID, found, err)
				return false
			}

			if math.Abs(retrieved.InitialPrice-initialPrice) > 1e-9 {
				t.Logf("Initial price mismatch: got %v, want %v", retrieved.InitialPrice, initialPrice)
				return false
			}
			if math.Abs(retrieved.TargetPrice-targetPrice) > 1e-9 {
				t.Logf("Target price mismatch: got %v, want %v", retrieved.TargetPrice, targetPrice)
				return false
			}
			if retrieved.CoinID != coin.ID || retrieved.CurrencyID != currency.ID {
				t.Logf("Reference mismatch: got coin=%d currency=%d", retrieved.CoinID, retrieved.CurrencyID)
				return false
			}

			increase := targetPrice > initialPrice
			if increase != (retrieved.Direction() == "increase") {
				t.Logf("Direction mismatch for initial=%v target=%v: got %s", initialPrice, targetPrice, retrieved.Direction())
				return false
			}

			return store.DeleteTrigger(ctx, trigger.ID) == nil
		},
		priceGen,
		priceGen,
	))

	properties.TestingRun(t)
}

// Property: Hydrating any set of external ids is idempotent; repeating the
// hydration never changes the row count and every id resolves afterwards.
func TestProperty_HydrationIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hydration_property.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	countGen := gen.IntRange(1, 30)

	properties.Property("Repeated hydration adds nothing and resolves every id", prop.ForAll(
		func(count int) bool {
			ctx := context.Background()

			ids := make([]string, count)
			prefix := time.Now().UnixNano()
			for i := range ids {
				ids[i] = fmt.Sprintf("coin-%d-%d", prefix, i)
			}

			if err := store.InsertMissingCoins(ctx, ids); err != nil {
				t.Logf("First hydration failed: %v", err)
				return false
			}
			before, err := store.Coins(ctx)
			if err != nil {
				t.Logf("Failed to list coins: %v", err)
				return false
			}

			if err := store.InsertMissingCoins(ctx, ids); err != nil {
				t.Logf("Second hydration failed: %v", err)
				return false
			}
			after, err := store.Coins(ctx)
			if err != nil {
				t.Logf("Failed to list coins: %v", err)
				return false
			}

			if len(after) != len(before) {
				t.Logf("Row count changed on repeat hydration: %d -> %d", len(before), len(after))
				return false
			}

			for _, id := range ids {
				if _, found, err := store.CoinByExternalID(ctx, id); err != nil || !found {
					t.Logf("External id %q did not resolve: found=%v err=%v", id, found, err)
					return false
				}
			}
			return true
		},
		countGen,
	))

	properties.TestingRun(t)
}
