// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"gecko-watch/internal/models"
)

// Store defines the interface for durable Coin, VsCurrency and Trigger
// persistence. Surrogate ids are assigned on insert and never reused.
type Store interface {
	// Coins
	UpsertCoin(ctx context.Context, externalID string) (models.Coin, error)
	CoinByExternalID(ctx context.Context, externalID string) (models.Coin, bool, error)
	CoinByID(ctx context.Context, id int64) (models.Coin, bool, error)
	Coins(ctx context.Context) ([]models.Coin, error)
	SetCoinFavourite(ctx context.Context, id int64, favourite bool) error

	// VsCurrencies
	UpsertVsCurrency(ctx context.Context, name string) (models.VsCurrency, error)
	VsCurrencyByName(ctx context.Context, name string) (models.VsCurrency, bool, error)
	VsCurrencyByID(ctx context.Context, id int64) (models.VsCurrency, bool, error)
	VsCurrencies(ctx context.Context) ([]models.VsCurrency, error)
	SetVsCurrencyFavourite(ctx context.Context, id int64, favourite bool) error

	// Triggers
	InsertTrigger(ctx context.Context, coinID, currencyID int64, initialPrice, targetPrice float64) (models.Trigger, error)
	Triggers(ctx context.Context) ([]models.Trigger, error)
	TriggerByID(ctx context.Context, id int64) (models.Trigger, bool, error)
	// DeleteTrigger is idempotent: deleting an absent id is not an error.
	DeleteTrigger(ctx context.Context, id int64) error

	// Hydration
	InsertMissingCoins(ctx context.Context, externalIDs []string) error
	InsertMissingVsCurrencies(ctx context.Context, names []string) error

	// Lifecycle
	Close() error
}
