package events

import "time"

// BetAccepted is emitted on the bet_accepted topic once the authority has
// taken ownership of a submitted slip.
type BetAccepted struct {
	OfflineID string    `json:"offline_id"`
	DrawID    string    `json:"draw_id"`
	NodeID    string    `json:"node_id"`
	Entries   int       `json:"entries"`
	Total     int64     `json:"total"`
	Ts        time.Time `json:"ts"`
}
