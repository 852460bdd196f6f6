// Package finance projects read-only aggregate views (totals,
// commissions) out of cached per-node financial snapshots. It never
// computes money itself: the authority is the source of truth and a node
// that was never fetched stays NotAsked rather than showing fake zeros.
package finance

import (
	"time"

	"github.com/lotobanca/bolita-terminal/pkg/remotedata"
)

// Summary is one node's financial snapshot as reported by the authority.
type Summary struct {
	NodeID          string    `json:"node_id"`
	SalesTotal      int64     `json:"sales_total"`
	CommissionTotal int64     `json:"commission_total"`
	PrizesTotal     int64     `json:"prizes_total"`
	NetTotal        int64     `json:"net_total"`
	CollectedAt     time.Time `json:"collected_at"`
}

// Snapshots is the in-memory projection source: one RemoteData per node,
// replaced wholesale by the refresher on every fetch transition.
type Snapshots map[string]remotedata.RemoteData[Summary]

// SelectNodeFinancialSummary is a pure projection over the snapshot map.
// Unknown nodes come back NotAsked.
func SelectNodeFinancialSummary(s Snapshots, nodeID string) remotedata.RemoteData[Summary] {
	if rd, ok := s[nodeID]; ok {
		return rd
	}
	return remotedata.NotAsked[Summary]()
}
