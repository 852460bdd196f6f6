// Package httpapi is the local HTTP surface the UI shell drives. It owns
// no business rules: messages go into the capture machines, snapshots
// and queue reports come back out.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lotobanca/bolita-terminal/internal/capture/session"
	"github.com/lotobanca/bolita-terminal/internal/finance"
	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
	"github.com/lotobanca/bolita-terminal/pkg/remotedata"
)

// QueueAPI is the slice of the sync queue the UI reads and pokes.
type QueueAPI interface {
	Pending(ctx context.Context) ([]syncqueue.PendingBet, error)
	Rejected() []syncqueue.RejectedBet
	Drain(ctx context.Context) (syncqueue.DrainReport, error)
}

// FinanceAPI serves per-node financial summaries.
type FinanceAPI interface {
	Select(nodeID string) remotedata.RemoteData[finance.Summary]
	Refresh(ctx context.Context, nodeID string, keepStale bool) remotedata.RemoteData[finance.Summary]
}

type Server struct {
	Log      *zap.Logger
	Sessions *session.Registry
	Queue    QueueAPI
	Finance  FinanceAPI
}

func NewServer(log *zap.Logger, reg *session.Registry, q QueueAPI, f FinanceAPI) *Server {
	return &Server{Log: log, Sessions: reg, Queue: q, Finance: f}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/sessions", s.openSession)
	r.Get("/v1/sessions/{id}", s.getSession)
	r.Delete("/v1/sessions/{id}", s.closeSession)
	r.Post("/v1/sessions/{id}/msgs", s.dispatchMsg)
	r.Get("/v1/sync/pending", s.listPending)
	r.Get("/v1/sync/rejected", s.listRejected)
	r.Post("/v1/sync/drain", s.triggerDrain)
	r.Get("/v1/nodes/{id}/financials", s.nodeFinancials)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DrawID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "draw_id required"})
		return
	}

	sess, err := s.Sessions.Open(r.Context(), req.DrawID)
	if err != nil {
		s.Log.Error("open session", zap.String("draw_id", req.DrawID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "draw rules unavailable"})
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID, Model: sess.Model()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Model: sess.Model()})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Close(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchMsg(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req msgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	msg, err := decodeMsg(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	model, err := s.Sessions.Dispatch(r.Context(), id, msg)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Model: model})
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.Queue.Pending(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) listRejected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Queue.Rejected())
}

// triggerDrain is the manual retry button. It shares the queue's single
// drain gate with connectivity-driven drains.
func (s *Server) triggerDrain(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Queue.Drain(r.Context())
	if err != nil {
		if errors.Is(err, syncqueue.ErrDrainInFlight) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "drain already running"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// financialView flattens RemoteData for the wire.
type financialView struct {
	State   string           `json:"state"` // not_asked | loading | success | failure | refreshing
	Summary *finance.Summary `json:"summary,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (s *Server) nodeFinancials(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")

	rd := s.Finance.Select(nodeID)
	if r.URL.Query().Get("refresh") == "1" {
		keepStale := r.URL.Query().Get("keep_stale") == "1"
		rd = s.Finance.Refresh(r.Context(), nodeID, keepStale)
	}

	view := remotedata.FoldStale(rd,
		func() financialView { return financialView{State: "not_asked"} },
		func() financialView { return financialView{State: "loading"} },
		func(sum finance.Summary) financialView { return financialView{State: "success", Summary: &sum} },
		func(err error) financialView { return financialView{State: "failure", Error: err.Error()} },
		func(sum finance.Summary) financialView { return financialView{State: "refreshing", Summary: &sum} },
	)
	writeJSON(w, http.StatusOK, view)
}
