// authority-simulator is a local stand-in for the remote banca
// authority: it accepts bet submissions with idempotency-token dedup,
// rejects bets for closed draws, serves draw rules and node financial
// snapshots, and exposes the /ws endpoint terminals use as their
// reachability signal. Accepted and rejected bets are published to
// Kafka the way the production authority feeds its settlement pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	adto "github.com/lotobanca/bolita-terminal/internal/authority/dto"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/finance"
	"github.com/lotobanca/bolita-terminal/internal/rules"
	"github.com/lotobanca/bolita-terminal/internal/shared/config"
	"github.com/lotobanca/bolita-terminal/internal/shared/kafka"
	"github.com/lotobanca/bolita-terminal/internal/shared/logger"
	"github.com/lotobanca/bolita-terminal/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	betsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authority_bets_accepted_total",
		Help: "Bets accepted",
	})
	betsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authority_bets_rejected_total",
		Help: "Bets rejected (business rule)",
	})
	betsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authority_bets_duplicate_total",
		Help: "Replays detected via idempotency token",
	})
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authority_ws_connections",
		Help: "Terminals currently connected",
	})
)

// drawCatalog seeds the simulated draws. The evening draw closes almost
// immediately so the draw-closed path is easy to exercise.
func drawCatalog(now time.Time) map[string]rules.DrawRules {
	limits := map[entry.GameType]rules.TypeLimits{
		entry.GameFijo:    {MinAmount: 1, MaxAmount: 5000},
		entry.GameCorrido: {MinAmount: 1, MaxAmount: 5000},
		entry.GameCentena: {MinAmount: 1, MaxAmount: 2000},
		entry.GameParlet:  {MinAmount: 5, MaxAmount: 1000},
	}
	return map[string]rules.DrawRules{
		"DIA-001": {
			DrawID:   "DIA-001",
			Limits:   limits,
			Limited:  []string{"13", "69"},
			ClosesAt: now.Add(6 * time.Hour),
		},
		"NOCHE-001": {
			DrawID:   "NOCHE-001",
			Limits:   limits,
			Limited:  nil,
			ClosesAt: now.Add(30 * time.Second),
		},
	}
}

type server struct {
	log   *zap.Logger
	draws map[string]rules.DrawRules

	mu   sync.Mutex
	seen map[string]string // idempotency token -> bet id

	acceptedW kafkaWriter
	rejectedW kafkaWriter
}

type kafkaWriter interface {
	WriteTo(ctx context.Context, key string, payload []byte) error
}

func (s *server) placeBet(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req adto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	token := req.OfflineID
	if token == "" {
		token = r.Header.Get("Idempotency-Key")
	}
	if token == "" || req.DrawID == "" || len(req.Entries) == 0 {
		s.reject(w, r.Context(), req, "validation_error", "offline_id, draw_id and entries required")
		return
	}

	// Replays of an already-settled token are acknowledged, not
	// double-charged.
	s.mu.Lock()
	if betID, dup := s.seen[token]; dup {
		s.mu.Unlock()
		betsDuplicate.Inc()
		s.log.Info("duplicate submission", zap.String("offline_id", token))
		writeJSON(w, http.StatusOK, adto.PlaceBetResponse{BetID: betID, Status: "DUPLICATE"})
		return
	}
	s.mu.Unlock()

	dr, ok := s.draws[req.DrawID]
	if !ok {
		s.reject(w, r.Context(), req, "validation_error", "unknown draw")
		return
	}
	if time.Now().After(dr.ClosesAt) {
		s.reject(w, r.Context(), req, "draw_closed", "draw closed at "+dr.ClosesAt.Format(time.RFC3339))
		return
	}
	for _, e := range req.Entries {
		for _, n := range e.Numbers {
			if dr.NumberLimited(n) {
				s.reject(w, r.Context(), req, "validation_error", "number "+n+" is limited")
				return
			}
		}
	}

	betID := "BOL-" + safePrefix(token, 8)
	s.mu.Lock()
	s.seen[token] = betID
	s.mu.Unlock()
	betsAccepted.Inc()

	var total int64
	for _, e := range req.Entries {
		total += e.Amounts.Amount + e.Amounts.Fijo + e.Amounts.Corrido
	}
	ev := events.BetAccepted{
		OfflineID: token,
		DrawID:    req.DrawID,
		NodeID:    req.NodeID,
		Entries:   len(req.Entries),
		Total:     total,
		Ts:        time.Now().UTC(),
	}
	if b, err := json.Marshal(ev); err == nil {
		if err := s.acceptedW.WriteTo(r.Context(), token, b); err != nil {
			s.log.Warn("publish bet_accepted", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, adto.PlaceBetResponse{BetID: betID, Status: "ACCEPTED"})
}

func (s *server) reject(w http.ResponseWriter, ctx context.Context, req adto.PlaceBetRequest, code, reason string) {
	betsRejected.Inc()
	ev := events.BetRejected{
		OfflineID: req.OfflineID,
		DrawID:    req.DrawID,
		NodeID:    req.NodeID,
		Code:      code,
		Reason:    reason,
		Ts:        time.Now().UTC(),
	}
	if b, err := json.Marshal(ev); err == nil {
		if err := s.rejectedW.WriteTo(ctx, req.OfflineID, b); err != nil {
			s.log.Warn("publish bet_rejected", zap.Error(err))
		}
	}
	status := http.StatusConflict
	if code == "validation_error" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, adto.RejectionResponse{Code: code, Reason: reason})
}

func (s *server) drawRules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dr, ok := s.draws[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown draw"})
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (s *server) nodeFinancials(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Deterministic figures derived from the node id keep the simulator
	// stateless while still giving each node distinct numbers.
	var seed int64
	for _, c := range id {
		seed += int64(c)
	}
	sum := finance.Summary{
		NodeID:          id,
		SalesTotal:      seed * 100,
		CommissionTotal: seed * 10,
		PrizesTotal:     seed * 35,
		NetTotal:        seed*100 - seed*10 - seed*35,
		CollectedAt:     time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, sum)
}

// safePrefix avoids a panic on tokens shorter than n.
func safePrefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(betsAccepted, betsRejected, betsDuplicate, wsConnections)

	acceptedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetAccepted)
	defer acceptedW.Close()
	rejectedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetRejected)
	defer rejectedW.Close()

	s := &server{
		log:       log,
		draws:     drawCatalog(time.Now()),
		seen:      make(map[string]string),
		acceptedW: writerFunc(func(ctx context.Context, key string, payload []byte) error {
			return kafka.WriteJSON(ctx, acceptedW, key, payload)
		}),
		rejectedW: writerFunc(func(ctx context.Context, key string, payload []byte) error {
			return kafka.WriteJSON(ctx, rejectedW, key, payload)
		}),
	}

	appMux := chi.NewRouter()
	appMux.Post("/bets", s.placeBet)
	appMux.Get("/draws/{id}/rules", s.drawRules)
	appMux.Get("/nodes/{id}/financials", s.nodeFinancials)

	// /ws is the terminals' reachability probe: an open socket means the
	// authority is up. Payloads are heartbeats the clients ignore.
	appMux.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		wsConnections.Inc()
		go func() {
			defer func() {
				wsConnections.Dec()
				_ = conn.Close()
			}()
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := conn.WriteJSON(map[string]any{"type": "heartbeat", "ts": time.Now().UTC()}); err != nil {
					return
				}
				<-ticker.C
			}
		}()
	})

	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("authority simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("authority simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/bets,/draws/{id}/rules,/nodes/{id}/financials,/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}

// writerFunc adapts a closure to the kafkaWriter interface.
type writerFunc func(ctx context.Context, key string, payload []byte) error

func (f writerFunc) WriteTo(ctx context.Context, key string, payload []byte) error {
	return f(ctx, key, payload)
}
