package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lotobanca/bolita-terminal/internal/authority"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
)

// maxRejectedKept bounds the rejected-bet report shown to the operator.
const maxRejectedKept = 50

// Queue is the serialized gateway over the pending-bet store. All
// enqueue/drain/report access goes through it, so concurrent triggers
// (connectivity flip plus manual retry) cannot lose updates.
type Queue struct {
	Log    *zap.Logger
	Store  Store
	Sender Sender

	NodeID           string
	SendTimeout      time.Duration
	DrainInterval    time.Duration
	SurfaceThreshold int

	mu       sync.Mutex
	draining bool
	// overflow holds bets whose durable append failed; they are retried
	// on the next queue action instead of being dropped.
	overflow []PendingBet
	rejected []RejectedBet
}

func New(log *zap.Logger, store Store, sender Sender, nodeID string, sendTimeout, drainInterval time.Duration, surfaceThreshold int) *Queue {
	return &Queue{
		Log:              log,
		Store:            store,
		Sender:           sender,
		NodeID:           nodeID,
		SendTimeout:      sendTimeout,
		DrainInterval:    drainInterval,
		SurfaceThreshold: surfaceThreshold,
	}
}

// Enqueue takes ownership of a finalized slip. The offline id minted
// here is the bet's idempotency token for the rest of its life. A
// storage failure does not lose the bet: it parks in the in-memory
// overflow and re-appends on the next queue action.
func (q *Queue) Enqueue(ctx context.Context, slip entry.Slip) (PendingBet, error) {
	if len(slip.Entries) == 0 {
		return PendingBet{}, errors.New("refusing to enqueue empty slip")
	}

	pb := PendingBet{
		OfflineID:  uuid.NewString(),
		DrawID:     slip.DrawID,
		NodeID:     q.NodeID,
		Entries:    slip.Entries,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.flushOverflowLocked(ctx)
	if err := q.Store.Append(ctx, pb); err != nil {
		storageFailures.Inc()
		q.Log.Error("pending store append failed, holding bet in memory",
			zap.String("offline_id", pb.OfflineID), zap.Error(err))
		q.overflow = append(q.overflow, pb)
	}
	betsEnqueued.Inc()
	q.updateDepthLocked(ctx)
	return pb, nil
}

// Pending lists everything still owed to the authority, durable store
// first, overflow after.
func (q *Queue) Pending(ctx context.Context) ([]PendingBet, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pendingLocked(ctx)
}

func (q *Queue) pendingLocked(ctx context.Context) ([]PendingBet, error) {
	stored, err := q.Store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending bets: %w", err)
	}
	out := make([]PendingBet, 0, len(stored)+len(q.overflow))
	out = append(out, stored...)
	out = append(out, q.overflow...)
	return out, nil
}

// Rejected returns the recent terminal rejections for the UI.
func (q *Queue) Rejected() []RejectedBet {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]RejectedBet, len(q.rejected))
	copy(out, q.rejected)
	return out
}

// DrainReport summarizes one drain cycle.
type DrainReport struct {
	Attempted    int `json:"attempted"`
	Acknowledged int `json:"acknowledged"`
	Rejected     int `json:"rejected"`
	Retryable    int `json:"retryable"`
}

// Drain replays queued bets sequentially in enqueue order. Acknowledged
// and terminally rejected bets leave the queue; the first network-class
// failure stops the cycle with the failing bet left queued, preserving
// FIFO for the next drain. Only one drain runs at a time.
func (q *Queue) Drain(ctx context.Context) (DrainReport, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return DrainReport{}, ErrDrainInFlight
	}
	q.draining = true
	q.flushOverflowLocked(ctx)
	items, err := q.pendingLocked(ctx)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.updateDepthLocked(ctx)
		q.mu.Unlock()
	}()

	if err != nil {
		return DrainReport{}, err
	}

	drainsStarted.Inc()
	var rep DrainReport
	for _, pb := range items {
		// Between items is the only safe place to honor cancellation.
		if ctx.Err() != nil {
			break
		}
		rep.Attempted++
		if stop := q.sendOne(ctx, pb, &rep); stop {
			break
		}
	}

	q.Log.Info("drain finished",
		zap.Int("attempted", rep.Attempted),
		zap.Int("acknowledged", rep.Acknowledged),
		zap.Int("rejected", rep.Rejected),
		zap.Int("retryable", rep.Retryable),
	)
	return rep, nil
}

// sendOne posts a single pending bet and applies the per-item policy.
// The returned bool asks the drain loop to stop.
func (q *Queue) sendOne(ctx context.Context, pb PendingBet, rep *DrainReport) bool {
	// The send context is detached from the drain context on purpose:
	// aborting a POST that may have already reached the authority risks
	// an orphaned charge with no local record. The timeout alone bounds
	// the send.
	sendCtx, cancel := context.WithTimeout(context.Background(), q.SendTimeout)
	err := q.Sender.PlaceBet(sendCtx, pb.OfflineID, pb.DrawID, pb.NodeID, pb.Entries)
	cancel()

	switch {
	case err == nil:
		q.remove(ctx, pb.OfflineID)
		betsAcknowledged.Inc()
		rep.Acknowledged++
		return false

	case isRejection(err):
		// Terminal: retrying would never succeed and would only mask a
		// real operational problem (e.g. submitted after cutoff).
		var rej *authority.RejectionError
		errors.As(err, &rej)
		q.remove(ctx, pb.OfflineID)
		q.recordRejected(pb, rej)
		betsRejected.Inc()
		rep.Rejected++
		q.Log.Warn("bet rejected by authority",
			zap.String("offline_id", pb.OfflineID),
			zap.String("code", rej.Code),
			zap.String("reason", rej.Reason),
		)
		return false

	default:
		// Network-class failure: the wager still needs capital
		// protection, so it stays queued for the next cycle.
		pb.Attempts++
		if merr := q.Store.MarkRetry(ctx, pb.OfflineID, pb.Attempts, err.Error()); merr != nil {
			q.Log.Warn("mark retry failed", zap.String("offline_id", pb.OfflineID), zap.Error(merr))
		}
		sendRetries.Inc()
		rep.Retryable++
		level := q.Log.Debug
		if pb.Attempts >= q.SurfaceThreshold {
			level = q.Log.Warn
		}
		level("bet send failed, will retry",
			zap.String("offline_id", pb.OfflineID),
			zap.Int("attempts", pb.Attempts),
			zap.Error(err),
		)
		return true
	}
}

// Run drains on start, on every connectivity restore and on a periodic
// cadence while reachable. Overlapping triggers collapse into the single
// drain gate. The in-flight send finishes naturally on shutdown; we
// never abort a POST that may already have reached the authority.
func (q *Queue) Run(ctx context.Context, reachable func() bool, restored <-chan bool) {
	drain := func() {
		if _, err := q.Drain(ctx); err != nil && !errors.Is(err, ErrDrainInFlight) {
			q.Log.Error("drain failed", zap.Error(err))
		}
	}

	if reachable() {
		drain()
	}

	ticker := time.NewTicker(q.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case up := <-restored:
			if up {
				drain()
			}
		case <-ticker.C:
			if reachable() {
				drain()
			}
		}
	}
}

func (q *Queue) remove(ctx context.Context, offlineID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, pb := range q.overflow {
		if pb.OfflineID == offlineID {
			q.overflow = append(q.overflow[:i], q.overflow[i+1:]...)
			return
		}
	}
	if err := q.Store.RemoveByID(ctx, offlineID); err != nil {
		q.Log.Error("pending store remove failed", zap.String("offline_id", offlineID), zap.Error(err))
	}
}

func (q *Queue) recordRejected(pb PendingBet, rej *authority.RejectionError) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rejected = append(q.rejected, RejectedBet{
		PendingBet: pb,
		Code:       rej.Code,
		Reason:     rej.Reason,
		RejectedAt: time.Now().UTC(),
	})
	if len(q.rejected) > maxRejectedKept {
		q.rejected = q.rejected[len(q.rejected)-maxRejectedKept:]
	}
}

// flushOverflowLocked retries durable appends for bets parked in memory.
func (q *Queue) flushOverflowLocked(ctx context.Context) {
	if len(q.overflow) == 0 {
		return
	}
	kept := q.overflow[:0]
	for _, pb := range q.overflow {
		if err := q.Store.Append(ctx, pb); err != nil {
			kept = append(kept, pb)
			continue
		}
		q.Log.Info("overflow bet persisted", zap.String("offline_id", pb.OfflineID))
	}
	q.overflow = kept
}

func (q *Queue) updateDepthLocked(ctx context.Context) {
	if stored, err := q.Store.ListAll(ctx); err == nil {
		queueDepth.Set(float64(len(stored) + len(q.overflow)))
	}
}

func isRejection(err error) bool {
	var rej *authority.RejectionError
	return errors.As(err, &rej)
}
