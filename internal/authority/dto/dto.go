package dto

// PlaceBetRequest is the body of POST /bets. The offline id doubles as
// an idempotency token so a replay of the same slip (app killed
// mid-drain) is detected server-side instead of double-charged.
type PlaceBetRequest struct {
	OfflineID string     `json:"offline_id"`
	DrawID    string     `json:"draw_id"`
	NodeID    string     `json:"node_id"`
	Entries   []BetEntry `json:"entries"`
}

type BetEntry struct {
	Type    string   `json:"type"` // "fijo" | "corrido" | "centena" | "parlet"
	Numbers []string `json:"numbers"`
	Amounts Amounts  `json:"amounts"`
}

type Amounts struct {
	Amount  int64 `json:"amount,omitempty"`
	Fijo    int64 `json:"fijo,omitempty"`
	Corrido int64 `json:"corrido,omitempty"`
}

type PlaceBetResponse struct {
	BetID  string `json:"bet_id"`
	Status string `json:"status"` // ACCEPTED | DUPLICATE
}

// RejectionResponse is the typed 4xx body for business rejections.
type RejectionResponse struct {
	Code   string `json:"code"` // "draw_closed" | "validation_error"
	Reason string `json:"reason,omitempty"`
}
