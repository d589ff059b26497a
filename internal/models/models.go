// Package models provides domain models for the price watcher.
package models

import "time"

// Coin identifies a cryptocurrency known to the upstream provider.
// ID is the locally assigned surrogate key; ExternalID is the provider's
// identifier (e.g. "bitcoin") and never changes once recorded.
type Coin struct {
	ID         int64
	ExternalID string
	Favourite  bool
}

// VsCurrency identifies a quote currency (e.g. "usd").
type VsCurrency struct {
	ID        int64
	Name      string
	Favourite bool
}

// Direction is the side a trigger watches: whether the target price lies
// above or below the price observed when the trigger was created.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Trigger is a stored price alert. Triggers are immutable after creation;
// they are removed either by the user or by the monitor once fired.
type Trigger struct {
	ID           int64
	CoinID       int64
	CurrencyID   int64
	InitialPrice float64
	TargetPrice  float64
	CreatedAt    time.Time
}

// Direction derives the watch side from the stored prices. Not persisted;
// target above initial means increase, everything else decrease.
func (t Trigger) Direction() Direction {
	if t.TargetPrice > t.InitialPrice {
		return DirectionIncrease
	}
	return DirectionDecrease
}

// ShouldFire reports whether the trigger condition is satisfied by the
// given live price.
func (t Trigger) ShouldFire(livePrice float64) bool {
	switch t.Direction() {
	case DirectionIncrease:
		return livePrice >= t.TargetPrice
	default:
		return livePrice <= t.TargetPrice
	}
}

// PricePoint is a single observation from a historical market chart.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}
