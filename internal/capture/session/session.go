// Package session hosts the live capture machines: one per open slip.
// It serializes message dispatch per session and performs the one side
// effect the pure reducer asks for, handing a finalized slip to the sync
// queue.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/capture/machine"
	"github.com/lotobanca/bolita-terminal/internal/rules"
	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
)

var ErrNotFound = errors.New("session not found")

// RulesProvider resolves the rule set injected into a new machine.
type RulesProvider interface {
	Get(ctx context.Context, drawID string) (rules.DrawRules, error)
}

// Enqueuer is the slice of the sync queue the session layer needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, slip entry.Slip) (syncqueue.PendingBet, error)
}

// Session is one open capture screen. The mutex makes dispatch
// sequential: exactly one writer per slip.
type Session struct {
	ID string

	mu    sync.Mutex
	model machine.Model
}

// Model returns the current snapshot.
func (s *Session) Model() machine.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Registry tracks open sessions for the terminal process.
type Registry struct {
	Log   *zap.Logger
	Rules RulesProvider
	Queue Enqueuer

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(log *zap.Logger, rp RulesProvider, q Enqueuer) *Registry {
	return &Registry{
		Log:      log,
		Rules:    rp,
		Queue:    q,
		sessions: make(map[string]*Session),
	}
}

// Open starts a capture session for one draw, loading the draw's rules
// up front so every later transition is pure and offline-safe.
func (r *Registry) Open(ctx context.Context, drawID string) (*Session, error) {
	dr, err := r.Rules.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:    uuid.NewString(),
		model: machine.New(drawID, dr),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.Log.Info("capture session opened", zap.String("session_id", s.ID), zap.String("draw_id", drawID))
	return s, nil
}

// Get returns an open session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close discards a session. An unsubmitted slip dies with it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	r.Log.Info("capture session closed", zap.String("session_id", id))
	return nil
}

// Dispatch runs one message through the session's machine and performs
// the submit hand-off when the reducer asks for it.
func (r *Registry) Dispatch(ctx context.Context, id string, msg machine.Msg) (machine.Model, error) {
	s, err := r.Get(id)
	if err != nil {
		return machine.Model{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = machine.Reduce(s.model, msg)

	if s.model.Phase == machine.PhaseSubmitting && s.model.Outbox != nil {
		slip := *s.model.Outbox
		if pb, qerr := r.Queue.Enqueue(ctx, slip); qerr != nil {
			r.Log.Error("slip hand-off failed", zap.String("session_id", id), zap.Error(qerr))
			s.model = machine.Reduce(s.model, machine.SubmitFailed{Reason: qerr.Error()})
		} else {
			r.Log.Info("slip queued for sync",
				zap.String("session_id", id),
				zap.String("offline_id", pb.OfflineID),
				zap.Int("entries", len(slip.Entries)),
				zap.Int64("total", slip.Total()),
			)
			s.model = machine.Reduce(s.model, machine.SubmitAccepted{})
		}
	}

	return s.model, nil
}
