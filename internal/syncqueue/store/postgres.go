// Package store provides the durable pending-bet stores behind the sync
// queue: Postgres for the terminal's local database and an in-memory
// variant for tests and the storage-failure overflow path.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
)

// Postgres persists pending bets in the terminal-local database so the
// queue survives process restarts and power loss in the field.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema creates the pending_bets table on first run. The terminal
// owns its local database, so schema setup lives here rather than in an
// external migration pipeline.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pending_bets (
			offline_id  TEXT PRIMARY KEY,
			draw_id     TEXT NOT NULL,
			node_id     TEXT NOT NULL,
			entries     JSONB NOT NULL,
			enqueued_at TIMESTAMPTZ NOT NULL,
			attempts    INT NOT NULL DEFAULT 0,
			last_error  TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("ensure pending_bets schema: %w", err)
	}
	return nil
}

func (p *Postgres) Append(ctx context.Context, pb syncqueue.PendingBet) error {
	raw, err := json.Marshal(pb.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO pending_bets (offline_id, draw_id, node_id, entries, enqueued_at, attempts, last_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (offline_id) DO NOTHING`,
		pb.OfflineID, pb.DrawID, pb.NodeID, raw, pb.EnqueuedAt, pb.Attempts, pb.LastError,
	)
	if err != nil {
		return fmt.Errorf("append pending bet: %w", err)
	}
	return nil
}

func (p *Postgres) ListAll(ctx context.Context) ([]syncqueue.PendingBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT offline_id, draw_id, node_id, entries, enqueued_at, attempts, last_error
		FROM pending_bets
		ORDER BY enqueued_at, offline_id`)
	if err != nil {
		return nil, fmt.Errorf("list pending bets: %w", err)
	}
	defer rows.Close()

	var out []syncqueue.PendingBet
	for rows.Next() {
		var pb syncqueue.PendingBet
		var raw []byte
		if err := rows.Scan(&pb.OfflineID, &pb.DrawID, &pb.NodeID, &raw, &pb.EnqueuedAt, &pb.Attempts, &pb.LastError); err != nil {
			return nil, fmt.Errorf("scan pending bet: %w", err)
		}
		if err := json.Unmarshal(raw, &pb.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal entries: %w", err)
		}
		pb.Entries = normalize(pb.Entries)
		out = append(out, pb)
	}
	return out, rows.Err()
}

func (p *Postgres) RemoveByID(ctx context.Context, offlineID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM pending_bets WHERE offline_id=$1`, offlineID)
	return err
}

func (p *Postgres) MarkRetry(ctx context.Context, offlineID string, attempts int, lastError string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE pending_bets SET attempts=$1, last_error=$2 WHERE offline_id=$3`,
		attempts, lastError, offlineID)
	return err
}

func normalize(entries []entry.Entry) []entry.Entry {
	if entries == nil {
		return []entry.Entry{}
	}
	return entries
}
