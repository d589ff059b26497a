// Package notify provides notification delivery for fired triggers.
package notify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"gecko-watch/internal/config"
	"gecko-watch/internal/models"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendTriggerFired(ctx context.Context, trigger models.Trigger, coin models.Coin, currency models.VsCurrency, currentPrice float64) error
	SendError(ctx context.Context, err error, errContext string) error
}

// Channel defines the interface for a notification channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Body      string
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTrigger NotificationType = "trigger"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// MultiNotifier sends notifications to multiple channels. A channel
// failure never blocks the remaining channels.
type MultiNotifier struct {
	channels []Channel
	enabled  bool
	mu       sync.RWMutex
}

// NewMultiNotifier creates a new MultiNotifier with the given configuration.
func NewMultiNotifier(cfg *config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]Channel, 0),
		enabled:  cfg.Enabled,
	}

	if cfg.Desktop.Enabled {
		mn.channels = append(mn.channels, NewDesktopNotifier(cfg.Desktop))
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramNotifier(cfg.Telegram))
	}

	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if !mn.enabled {
		return nil
	}

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendTriggerFired sends a notification for a fired price trigger.
func (mn *MultiNotifier) SendTriggerFired(ctx context.Context, trigger models.Trigger, coin models.Coin, currency models.VsCurrency, currentPrice float64) error {
	var emoji string
	if trigger.Direction() == models.DirectionIncrease {
		emoji = "📈"
	} else {
		emoji = "📉"
	}

	title := fmt.Sprintf("%s Price trigger fired: %s/%s", emoji, coin.ExternalID, currency.Name)
	body := fmt.Sprintf(
		"Coin: %s\nCurrency: %s\nInitial price: %s\nTarget price: %s\nCurrent price: %s\nDifference: %s",
		coin.ExternalID,
		currency.Name,
		formatPrice(trigger.InitialPrice),
		formatPrice(trigger.TargetPrice),
		formatPrice(currentPrice),
		formatPrice(math.Abs(currentPrice-trigger.TargetPrice)),
	)

	return mn.Send(ctx, Notification{
		Type:  NotificationTrigger,
		Title: title,
		Body:  body,
	})
}

// SendError sends an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	title := "❌ gecko-watch error"
	body := fmt.Sprintf("Context: %s\nError: %v\nTime: %s",
		errContext, err, time.Now().Format("15:04:05"))

	return mn.Send(ctx, Notification{
		Type:  NotificationError,
		Title: title,
		Body:  body,
	})
}

// formatPrice renders a price for notification bodies. Small prices keep
// more precision; CoinGecko quotes can be far below one cent.
func formatPrice(price float64) string {
	if price != 0 && math.Abs(price) < 0.01 {
		return fmt.Sprintf("%.8f", price)
	}
	return fmt.Sprintf("%.2f", price)
}
