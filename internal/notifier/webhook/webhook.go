// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/trendscreen/internal/notifier"
)

// Webhook posts run summaries as JSON
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

type orderPayload struct {
	Symbol         string   `json:"symbol"`
	Action         string   `json:"action"`
	Side           string   `json:"side"`
	Quantity       string   `json:"quantity"`
	RefPrice       *float64 `json:"ref_price,omitempty"`
	TargetNotional *float64 `json:"target_notional,omitempty"`
	Note           string   `json:"note,omitempty"`
}

type payload struct {
	Type         string         `json:"type"`
	RunID        string         `json:"run_id"`
	AsOf         string         `json:"asof"`
	PreviousAsOf string         `json:"previous_asof,omitempty"`
	GeneratedAt  string         `json:"generated_at"`
	DryRun       bool           `json:"dry_run"`
	Picks        []string       `json:"picks"`
	Orders       []orderPayload `json:"orders"`
	Failed       []string       `json:"failed_symbols,omitempty"`
	Text         string         `json:"text"`
}

func toPayload(s notifier.Summary) payload {
	p := payload{
		Type:         "screen",
		RunID:        s.RunID,
		AsOf:         s.AsOf,
		PreviousAsOf: s.PreviousAsOf,
		GeneratedAt:  s.GeneratedAt.UTC().Format(time.RFC3339),
		DryRun:       s.DryRun,
		Picks:        s.Picks,
		Orders:       make([]orderPayload, len(s.Orders)),
		Failed:       s.Failed,
		Text:         notifier.Text(s),
	}
	if p.Picks == nil {
		p.Picks = []string{}
	}
	for i, o := range s.Orders {
		p.Orders[i] = orderPayload{
			Symbol:         o.Symbol,
			Action:         string(o.Action),
			Side:           string(o.Side),
			Quantity:       o.Quantity.String(),
			RefPrice:       o.RefPrice,
			TargetNotional: o.TargetNotional,
			Note:           o.Note,
		}
	}
	return p
}

func (w *Webhook) Notify(ctx context.Context, s notifier.Summary) error {
	body, err := json.Marshal(toPayload(s))
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
