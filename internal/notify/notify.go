package notify

import (
	"context"

	"auction-engine/utils"
)

// Kind selects the notification template.
type Kind string

const (
	KindAuctionWon             Kind = "auction_won"
	KindAuctionAwaitingPayment Kind = "auction_awaiting_payment"
	KindAuctionCancelled       Kind = "auction_cancelled"
)

// Notifier delivers best-effort messages to users. Implementations never
// return errors; delivery failure is logged and swallowed so settlement
// state can never depend on it.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind Kind, fields map[string]any)
}

// LogNotifier writes notifications to the structured log. It is the
// default dispatcher when no broker is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier instance
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the notification
func (n *LogNotifier) Notify(ctx context.Context, userID string, kind Kind, fields map[string]any) {
	logFields := map[string]any{
		"user_id": userID,
		"kind":    string(kind),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	utils.Info("notification dispatched", logFields)
}
