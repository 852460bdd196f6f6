package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lotobanca/bolita-terminal/pkg/remotedata"
)

// Fetcher loads a node's snapshot from the remote authority.
type Fetcher interface {
	FetchNodeFinancials(ctx context.Context, nodeID string) (Summary, error)
}

// Store maintains the per-node snapshot map behind the selector. Redis
// keeps fetched snapshots warm across terminal restarts; the in-memory
// map carries the RemoteData fetch state the UI folds over.
type Store struct {
	Rdb     *redis.Client
	Fetcher Fetcher
	TTL     time.Duration

	mu    sync.RWMutex
	snaps Snapshots
}

func NewStore(rdb *redis.Client, f Fetcher, ttl time.Duration) *Store {
	return &Store{Rdb: rdb, Fetcher: f, TTL: ttl, snaps: Snapshots{}}
}

func key(nodeID string) string { return "financials:node:" + nodeID }

// Snapshot returns a copy of the current map for pure selection.
func (s *Store) Snapshot() Snapshots {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshots, len(s.snaps))
	for k, v := range s.snaps {
		out[k] = v
	}
	return out
}

// Select projects one node's summary from the current snapshot map.
func (s *Store) Select(nodeID string) remotedata.RemoteData[Summary] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectNodeFinancialSummary(s.snaps, nodeID)
}

// Refresh re-fetches one node's snapshot. keepStale opts into showing the
// previous summary while the fetch runs; otherwise the node re-enters
// plain Loading.
func (s *Store) Refresh(ctx context.Context, nodeID string, keepStale bool) remotedata.RemoteData[Summary] {
	s.mu.Lock()
	s.snaps[nodeID] = remotedata.Refresh(s.snaps[nodeID], keepStale)
	s.mu.Unlock()

	sum, err := s.load(ctx, nodeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.snaps[nodeID] = remotedata.Failure[Summary](err)
	} else {
		s.snaps[nodeID] = remotedata.Success(sum)
	}
	return s.snaps[nodeID]
}

// load prefers the redis copy and falls back to the authority, writing
// back through the cache on success. A broken cache is treated as a
// miss: the terminal must not lose its financial view just because
// redis is down.
func (s *Store) load(ctx context.Context, nodeID string) (Summary, error) {
	if b, err := s.Rdb.Get(ctx, key(nodeID)).Bytes(); err == nil {
		var sum Summary
		if jerr := json.Unmarshal(b, &sum); jerr == nil {
			return sum, nil
		}
	}

	sum, err := s.Fetcher.FetchNodeFinancials(ctx, nodeID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch node financials: %w", err)
	}
	if raw, merr := json.Marshal(sum); merr == nil {
		_ = s.Rdb.Set(ctx, key(nodeID), raw, s.TTL).Err()
	}
	return sum, nil
}
