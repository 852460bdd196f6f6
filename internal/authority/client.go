// Package authority is the HTTP client for the remote banca authority:
// bet submission plus the draw-rules and financial-snapshot read models.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lotobanca/bolita-terminal/internal/authority/dto"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/finance"
	"github.com/lotobanca/bolita-terminal/internal/rules"
)

// Rejection codes returned by the authority.
const (
	CodeDrawClosed      = "draw_closed"
	CodeValidationError = "validation_error"
)

// RejectionError is a terminal business rejection: retrying the same bet
// would never succeed, so the queue must not keep it.
type RejectionError struct {
	Code   string
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return "bet rejected: " + e.Code
	}
	return fmt.Sprintf("bet rejected: %s (%s)", e.Code, e.Reason)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// PlaceBet posts one queued slip. The idempotency token travels both in
// the body and as a header so intermediaries can dedup without parsing.
// A nil return means the authority owns the bet. A *RejectionError means
// a terminal business rejection; anything else is network-class and
// retryable.
func (c *Client) PlaceBet(ctx context.Context, offlineID, drawID, nodeID string, entries []entry.Entry) error {
	payload := dto.PlaceBetRequest{
		OfflineID: offlineID,
		DrawID:    drawID,
		NodeID:    nodeID,
		Entries:   wireEntries(entries),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/bets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", offlineID)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("post bets: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode < 300:
		return nil
	case res.StatusCode >= 400 && res.StatusCode < 500:
		var rej dto.RejectionResponse
		if jerr := json.NewDecoder(res.Body).Decode(&rej); jerr != nil || rej.Code == "" {
			rej = dto.RejectionResponse{Code: CodeValidationError, Reason: res.Status}
		}
		return &RejectionError{Code: rej.Code, Reason: rej.Reason}
	default:
		// 5xx is the authority having a bad moment, not a verdict on
		// the bet.
		return fmt.Errorf("post bets: http %d", res.StatusCode)
	}
}

// FetchDrawRules loads a draw's rule set.
func (c *Client) FetchDrawRules(ctx context.Context, drawID string) (rules.DrawRules, error) {
	var out rules.DrawRules
	if err := c.getJSON(ctx, "/draws/"+drawID+"/rules", &out); err != nil {
		return rules.DrawRules{}, err
	}
	return out, nil
}

// FetchNodeFinancials loads the financial snapshot of one node.
func (c *Client) FetchNodeFinancials(ctx context.Context, nodeID string) (finance.Summary, error) {
	var out finance.Summary
	if err := c.getJSON(ctx, "/nodes/"+nodeID+"/financials", &out); err != nil {
		return finance.Summary{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("get %s: http %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(dst)
}

func wireEntries(entries []entry.Entry) []dto.BetEntry {
	out := make([]dto.BetEntry, 0, len(entries))
	for _, e := range entries {
		w := dto.BetEntry{Type: string(e.Game), Numbers: e.Numbers()}
		if e.Game == entry.GameFijo {
			w.Amounts = dto.Amounts{Fijo: e.AmountFijo, Corrido: e.AmountCorrido}
		} else {
			w.Amounts = dto.Amounts{Amount: e.Amount}
		}
		out = append(out, w)
	}
	return out
}
