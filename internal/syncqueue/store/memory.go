package store

import (
	"context"
	"errors"
	"sync"

	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
)

// Memory is an in-memory pending store. Used in tests and as a stand-in
// when the terminal runs without its local database.
type Memory struct {
	mu    sync.Mutex
	items []syncqueue.PendingBet

	// FailAppends makes Append error, for exercising the queue's
	// storage-failure overflow path in tests.
	FailAppends bool
	FailErr     error
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(ctx context.Context, pb syncqueue.PendingBet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppends {
		if m.FailErr != nil {
			return m.FailErr
		}
		return errors.New("append failed")
	}
	for _, it := range m.items {
		if it.OfflineID == pb.OfflineID {
			return nil
		}
	}
	m.items = append(m.items, pb)
	return nil
}

func (m *Memory) ListAll(ctx context.Context) ([]syncqueue.PendingBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]syncqueue.PendingBet, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *Memory) RemoveByID(ctx context.Context, offlineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.OfflineID == offlineID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) MarkRetry(ctx context.Context, offlineID string, attempts int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.OfflineID == offlineID {
			m.items[i].Attempts = attempts
			m.items[i].LastError = lastError
			return nil
		}
	}
	return nil
}
