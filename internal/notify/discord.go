package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	colorGreen  = 0x2ECC71 // total 85+
	colorYellow = 0xF1C40F // total 75-84
	colorOrange = 0xE67E22 // below 75
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendDeal sends a single deal as a Discord embed.
func (d *DiscordNotifier) SendDeal(ctx context.Context, deal *DealPayload) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(deal)},
	}
	return d.post(ctx, payload)
}

// SendBatchDeals sends multiple deals as a single Discord message.
func (d *DiscordNotifier) SendBatchDeals(
	ctx context.Context,
	deals []DealPayload,
	searchName string,
) error {
	embeds := make([]discordEmbed, 0, len(deals))

	// Discord allows max 10 embeds per message.
	limit := min(len(deals), 10)

	for i := range limit {
		embeds = append(embeds, buildEmbed(&deals[i]))
	}

	if len(deals) > 10 {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("... and %d more deals for %s", len(deals)-10, searchName),
			Color:       colorYellow,
			Description: "Check the dashboard for the full list.",
		})
	}

	payload := discordWebhookPayload{Embeds: embeds}
	return d.post(ctx, payload)
}

func buildEmbed(deal *DealPayload) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Total", Value: fmt.Sprintf("%.1f/100", deal.Total), Inline: true},
		{Name: "Deal", Value: fmt.Sprintf("%.0f/100", deal.Deal), Inline: true},
		{Name: "Confidence", Value: fmt.Sprintf("%.0f/100", deal.Confidence), Inline: true},
		{Name: "Price", Value: deal.Price, Inline: true},
	}
	if deal.VirtualPrice != "" {
		fields = append(fields, discordEmbedField{
			Name: "With repairs", Value: deal.VirtualPrice, Inline: true,
		})
	}
	if deal.MarketPrice != "" {
		fields = append(fields, discordEmbedField{
			Name: "Market estimate", Value: deal.MarketPrice, Inline: true,
		})
	}

	return discordEmbed{
		Title:  fmt.Sprintf("Top deal: %s", deal.Title),
		URL:    deal.URL,
		Color:  totalColor(deal.Total),
		Fields: fields,
	}
}

func totalColor(total float64) int {
	switch {
	case total >= 85:
		return colorGreen
	case total >= 75:
		return colorYellow
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
