// Package syncqueue gives submitted bet slips at-least-once delivery to
// the remote authority under intermittent connectivity. Slips are owned
// by the queue from enqueue until the authority acknowledges them or a
// terminal rejection is recorded.
package syncqueue

import (
	"context"
	"errors"
	"time"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
)

// PendingBet is one queued slip plus its offline bookkeeping. OfflineID
// is the locally minted idempotency token; it is stable across replays
// so the authority can spot duplicates.
type PendingBet struct {
	OfflineID  string        `json:"offline_id"`
	DrawID     string        `json:"draw_id"`
	NodeID     string        `json:"node_id"`
	Entries    []entry.Entry `json:"entries"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
	Attempts   int           `json:"attempts"`
	LastError  string        `json:"last_error,omitempty"`
}

// RejectedBet is a pending bet the authority turned away for good. It is
// kept for the operator to see; the money was never taken.
type RejectedBet struct {
	PendingBet
	Code       string    `json:"code"`
	Reason     string    `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejected_at"`
}

// Store is the durable pending-bet capability. Implementations must list
// in enqueue order; the queue is the single serialized gateway on top,
// so stores need no locking of their own beyond the driver's.
type Store interface {
	Append(ctx context.Context, pb PendingBet) error
	ListAll(ctx context.Context) ([]PendingBet, error)
	RemoveByID(ctx context.Context, offlineID string) error
	MarkRetry(ctx context.Context, offlineID string, attempts int, lastError string) error
}

// Sender posts one pending bet to the authority. A *authority.RejectionError
// return is terminal; any other error is network-class and retryable.
type Sender interface {
	PlaceBet(ctx context.Context, offlineID, drawID, nodeID string, entries []entry.Entry) error
}

// ErrDrainInFlight means a drain was requested while one was already
// running; rapid connectivity flapping and the manual retry button share
// a single gate.
var ErrDrainInFlight = errors.New("drain already in progress")
