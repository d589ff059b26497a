// Package monitor runs the background sweep that turns stored triggers
// into notifications.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gecko-watch/internal/logging"
	"gecko-watch/internal/models"
	"gecko-watch/internal/notify"
)

// Client is the slice of the caching client the monitor consumes.
type Client interface {
	Coins(ctx context.Context) ([]models.Coin, error)
	VsCurrencies(ctx context.Context) ([]models.VsCurrency, error)
	Triggers(ctx context.Context) ([]models.Trigger, error)
	Price(ctx context.Context, coinIDs, vsCurrencies []string) (map[string]map[string]float64, error)
	DeleteTrigger(ctx context.Context, id int64) error
}

// Monitor periodically evaluates stored triggers against live prices,
// firing a notification and deleting each trigger whose condition is met.
type Monitor struct {
	client   Client
	notifier notify.Notifier
	interval time.Duration
	logger   zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Monitor sweeping at the given interval.
func New(client Client, notifier notify.Notifier, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Monitor{
		client:   client,
		notifier: notifier,
		interval: interval,
		logger:   logging.WithComponent(logger, "monitor"),
	}
}

// Start launches the sweep loop. The loop runs until ctx is cancelled or
// Stop is called; cancellation is observed at sweep boundaries.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx)
}

// Stop cancels the sweep loop and waits for the current sweep to finish.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial sweep before the first tick
	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep evaluates every stored trigger once. A failure loading reference
// data or the trigger list aborts this sweep; the loop retries at the
// next interval. A failure evaluating one trigger only skips that
// trigger.
func (m *Monitor) sweep(ctx context.Context) {
	start := time.Now()

	coins, err := m.client.Coins(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Sweep aborted: loading coins failed")
		return
	}
	currencies, err := m.client.VsCurrencies(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Sweep aborted: loading currencies failed")
		return
	}
	triggers, err := m.client.Triggers(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Sweep aborted: loading triggers failed")
		return
	}

	coinsByID := make(map[int64]models.Coin, len(coins))
	for _, c := range coins {
		coinsByID[c.ID] = c
	}
	currenciesByID := make(map[int64]models.VsCurrency, len(currencies))
	for _, v := range currencies {
		currenciesByID[v.ID] = v
	}

	var fired, skipped int
	for _, trigger := range triggers {
		select {
		case <-ctx.Done():
			return
		default:
		}

		didFire, wasSkipped := m.evaluate(ctx, trigger, coinsByID, currenciesByID)
		if didFire {
			fired++
		}
		if wasSkipped {
			skipped++
		}
	}

	logging.LogSweep(m.logger, len(triggers), fired, skipped, time.Since(start))
}

// evaluate checks a single trigger. It reports whether the trigger fired
// and whether it had to be skipped (unresolvable references or a failed
// price fetch).
func (m *Monitor) evaluate(ctx context.Context, trigger models.Trigger, coinsByID map[int64]models.Coin, currenciesByID map[int64]models.VsCurrency) (bool, bool) {
	coin, ok := coinsByID[trigger.CoinID]
	if !ok {
		m.logger.Warn().
			Int64("trigger_id", trigger.ID).
			Int64("coin_id", trigger.CoinID).
			Msg("Trigger references unknown coin, skipping")
		return false, true
	}
	currency, ok := currenciesByID[trigger.CurrencyID]
	if !ok {
		m.logger.Warn().
			Int64("trigger_id", trigger.ID).
			Int64("currency_id", trigger.CurrencyID).
			Msg("Trigger references unknown currency, skipping")
		return false, true
	}

	prices, err := m.client.Price(ctx, []string{coin.ExternalID}, []string{currency.Name})
	if err != nil {
		m.logger.Warn().Err(err).
			Int64("trigger_id", trigger.ID).
			Str("coin", coin.ExternalID).
			Str("currency", currency.Name).
			Msg("Price fetch failed, skipping trigger this sweep")
		return false, true
	}
	livePrice := prices[coin.ExternalID][currency.Name]

	if !trigger.ShouldFire(livePrice) {
		return false, false
	}

	logging.LogTriggerFired(m.logger, trigger.ID, coin.ExternalID, currency.Name, trigger.TargetPrice, livePrice)

	// Delivery failure is logged, never fatal: the trigger already fired.
	if err := m.notifier.SendTriggerFired(ctx, trigger, coin, currency, livePrice); err != nil {
		m.logger.Error().Err(err).
			Int64("trigger_id", trigger.ID).
			Msg("Notification delivery failed")
	}

	if err := m.client.DeleteTrigger(ctx, trigger.ID); err != nil {
		m.logger.Error().Err(err).
			Int64("trigger_id", trigger.ID).
			Msg("Deleting fired trigger failed")
	}

	return true, false
}
