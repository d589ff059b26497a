// Package cache provides the caching client: the single entry point for
// reference data and trigger persistence. Reference data (coins, quote
// currencies) is fetched from the upstream provider at most once per
// process and served from the local store afterwards; triggers always go
// to the store directly.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gecko-watch/internal/coingecko"
	"gecko-watch/internal/errors"
	"gecko-watch/internal/logging"
	"gecko-watch/internal/models"
	"gecko-watch/internal/store"
)

// Client mediates between the upstream provider and the local store.
type Client struct {
	api    coingecko.Client
	store  store.Store
	logger zerolog.Logger

	// Hydration guards. Each flag flips true exactly once, under its
	// mutex, after the corresponding catalog has been recorded in full.
	// Concurrent first calls serialize on the mutex so the network fetch
	// runs at most once per process.
	coinsMu       sync.Mutex
	coinsHydrated bool

	currenciesMu       sync.Mutex
	currenciesHydrated bool
}

// NewClient creates a new caching client.
func NewClient(api coingecko.Client, st store.Store, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		store:  st,
		logger: logging.WithComponent(logger, "cache"),
	}
}

// hydrateCoins fetches the coin catalog once and records any coins the
// store has not seen. On failure nothing is recorded and the flag stays
// false, so a later call retries the fetch.
func (c *Client) hydrateCoins(ctx context.Context) error {
	c.coinsMu.Lock()
	defer c.coinsMu.Unlock()

	if c.coinsHydrated {
		return nil
	}

	ids, err := c.api.ListCoins(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching coin list")
	}

	if err := c.store.InsertMissingCoins(ctx, ids); err != nil {
		return errors.Wrap(err, "recording coin list")
	}

	c.coinsHydrated = true
	c.logger.Debug().Int("count", len(ids)).Msg("Coin catalog hydrated")
	return nil
}

func (c *Client) hydrateVsCurrencies(ctx context.Context) error {
	c.currenciesMu.Lock()
	defer c.currenciesMu.Unlock()

	if c.currenciesHydrated {
		return nil
	}

	names, err := c.api.ListVsCurrencies(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching currency list")
	}

	if err := c.store.InsertMissingVsCurrencies(ctx, names); err != nil {
		return errors.Wrap(err, "recording currency list")
	}

	c.currenciesHydrated = true
	c.logger.Debug().Int("count", len(names)).Msg("Currency catalog hydrated")
	return nil
}

// Coins returns the full coin catalog from the local store, hydrating it
// from the provider on first use.
func (c *Client) Coins(ctx context.Context) ([]models.Coin, error) {
	if err := c.hydrateCoins(ctx); err != nil {
		return nil, err
	}
	return c.store.Coins(ctx)
}

// FavouriteCoins returns the coins flagged as favourite.
func (c *Client) FavouriteCoins(ctx context.Context) ([]models.Coin, error) {
	coins, err := c.Coins(ctx)
	if err != nil {
		return nil, err
	}

	var favourites []models.Coin
	for _, coin := range coins {
		if coin.Favourite {
			favourites = append(favourites, coin)
		}
	}
	return favourites, nil
}

// VsCurrencies returns the full quote currency catalog from the local
// store, hydrating it from the provider on first use.
func (c *Client) VsCurrencies(ctx context.Context) ([]models.VsCurrency, error) {
	if err := c.hydrateVsCurrencies(ctx); err != nil {
		return nil, err
	}
	return c.store.VsCurrencies(ctx)
}

// FavouriteVsCurrencies returns the currencies flagged as favourite.
func (c *Client) FavouriteVsCurrencies(ctx context.Context) ([]models.VsCurrency, error) {
	currencies, err := c.VsCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	var favourites []models.VsCurrency
	for _, currency := range currencies {
		if currency.Favourite {
			favourites = append(favourites, currency)
		}
	}
	return favourites, nil
}

// SetCoinFavourite updates a coin's favourite flag in the store.
func (c *Client) SetCoinFavourite(ctx context.Context, id int64, favourite bool) error {
	return c.store.SetCoinFavourite(ctx, id, favourite)
}

// SetVsCurrencyFavourite updates a currency's favourite flag in the store.
func (c *Client) SetVsCurrencyFavourite(ctx context.Context, id int64, favourite bool) error {
	return c.store.SetVsCurrencyFavourite(ctx, id, favourite)
}

// Price fetches current prices live from the provider; price data is never
// cached. Every requested coin and currency key must be present in the
// response or the call fails with ErrUnknownKey.
func (c *Client) Price(ctx context.Context, coinIDs, vsCurrencies []string) (map[string]map[string]float64, error) {
	prices, err := c.api.SimplePrice(ctx, coinIDs, vsCurrencies)
	if err != nil {
		return nil, err
	}

	for _, coinID := range coinIDs {
		byCurrency, ok := prices[coinID]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownKey, "coin %q", coinID)
		}
		for _, currency := range vsCurrencies {
			if _, ok := byCurrency[currency]; !ok {
				return nil, errors.Wrapf(errors.ErrUnknownKey, "coin %q currency %q", coinID, currency)
			}
		}
	}

	return prices, nil
}

// MarketChartRange fetches historical prices live from the provider.
func (c *Client) MarketChartRange(ctx context.Context, coinID, vsCurrency string, from, to time.Time) ([]models.PricePoint, error) {
	return c.api.MarketChartRange(ctx, coinID, vsCurrency, from, to)
}

// AddTrigger validates both references and records a new trigger. The
// initial price is the live price observed by the caller at creation time.
func (c *Client) AddTrigger(ctx context.Context, coinID, currencyID int64, initialPrice, targetPrice float64) (models.Trigger, error) {
	if initialPrice < 0 {
		return models.Trigger{}, errors.NewValidationError("initial_price", initialPrice, "must be non-negative")
	}
	if targetPrice < 0 {
		return models.Trigger{}, errors.NewValidationError("target_price", targetPrice, "must be non-negative")
	}

	if _, ok, err := c.store.CoinByID(ctx, coinID); err != nil {
		return models.Trigger{}, err
	} else if !ok {
		return models.Trigger{}, errors.Wrapf(errors.ErrUnknownReference, "coin %d", coinID)
	}

	if _, ok, err := c.store.VsCurrencyByID(ctx, currencyID); err != nil {
		return models.Trigger{}, err
	} else if !ok {
		return models.Trigger{}, errors.Wrapf(errors.ErrUnknownReference, "currency %d", currencyID)
	}

	return c.store.InsertTrigger(ctx, coinID, currencyID, initialPrice, targetPrice)
}

// Triggers returns all stored triggers. Triggers are never cached; every
// call reads the store.
func (c *Client) Triggers(ctx context.Context) ([]models.Trigger, error) {
	return c.store.Triggers(ctx)
}

// DeleteTrigger removes a trigger. Idempotent: the trigger may already
// have been removed by a concurrent monitor sweep.
func (c *Client) DeleteTrigger(ctx context.Context, id int64) error {
	return c.store.DeleteTrigger(ctx, id)
}

// CoinByID resolves a coin by surrogate id.
func (c *Client) CoinByID(ctx context.Context, id int64) (models.Coin, bool, error) {
	return c.store.CoinByID(ctx, id)
}

// VsCurrencyByID resolves a currency by surrogate id.
func (c *Client) VsCurrencyByID(ctx context.Context, id int64) (models.VsCurrency, bool, error) {
	return c.store.VsCurrencyByID(ctx, id)
}
