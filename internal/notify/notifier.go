// Package notify defines the notification interface and implementations
// for top-deal delivery.
package notify

import (
	"context"
)

// DealPayload contains the data needed to announce a high-scoring listing.
type DealPayload struct {
	SearchName   string
	Title        string
	URL          string
	Price        string
	VirtualPrice string
	MarketPrice  string
	Total        float64
	Deal         float64
	Confidence   float64
	KScam        float64
}

// Notifier defines the interface for sending top-deal notifications.
type Notifier interface {
	SendDeal(ctx context.Context, deal *DealPayload) error
	SendBatchDeals(ctx context.Context, deals []DealPayload, searchName string) error
}
