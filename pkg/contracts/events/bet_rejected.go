package events

import "time"

// BetRejected is emitted on the bet_rejected topic when the authority
// turns a submission away for a business reason (draw closed, rule
// violation). Network-level failures never produce this event.
type BetRejected struct {
	OfflineID string    `json:"offline_id"`
	DrawID    string    `json:"draw_id"`
	NodeID    string    `json:"node_id"`
	Code      string    `json:"code"` // "draw_closed" | "validation_error"
	Reason    string    `json:"reason,omitempty"`
	Ts        time.Time `json:"ts"`
}
