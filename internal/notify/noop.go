package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded deals. It is used
// when no webhook is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards deals with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendDeal logs and discards a single deal.
func (n *NoOpNotifier) SendDeal(_ context.Context, deal *DealPayload) error {
	n.log.Debug("notification discarded (no webhook configured)",
		"search", deal.SearchName,
		"listing", deal.Title,
		"total", deal.Total,
	)
	return nil
}

// SendBatchDeals logs and discards a batch of deals.
func (n *NoOpNotifier) SendBatchDeals(_ context.Context, deals []DealPayload, searchName string) error {
	n.log.Debug("batch notification discarded (no webhook configured)",
		"search", searchName,
		"count", len(deals),
	)
	return nil
}
