// Package server exposes the deduplication engine over HTTP: scan trigger,
// candidate review, alias lookup for the ingest pipeline, and audit queries.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/review"
	"github.com/barstream/catalog-dedupe/internal/scan"
	"github.com/barstream/catalog-dedupe/internal/store"
)

// Scanner triggers duplicate scans. Satisfied by scan.Scanner.
type Scanner interface {
	Run(ctx context.Context, tenantID string, opts scan.Options) (*model.ScanSummary, error)
}

// Reviewer lists and decides candidates. Satisfied by review.Workflow.
type Reviewer interface {
	ListPending(ctx context.Context, tenantID string, limit int) ([]model.DuplicateCandidate, error)
	Decide(ctx context.Context, candidateID string, decision model.MergeDecision, reviewerID string) (*review.Outcome, error)
}

// Server wires the engine's components behind an HTTP API.
type Server struct {
	store    store.Store
	scanner  Scanner
	reviewer Reviewer
}

// New creates a Server.
func New(st store.Store, scanner Scanner, reviewer Reviewer) *Server {
	return &Server{store: st, scanner: scanner, reviewer: reviewer}
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scans", s.handleTriggerScan)
		r.Get("/scans", s.handleListScanRuns)
		r.Get("/candidates", s.handleListPending)
		r.Post("/candidates/{candidateID}/decision", s.handleDecide)
		r.Get("/alias/resolve", s.handleResolveAlias)
		r.Get("/aliases", s.handleListAliases)
		r.Get("/audit", s.handleListAudit)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID      string  `json:"tenant_id"`
		MinConfidence float64 `json:"min_confidence"`
		MaxProducts   int     `json:"max_products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrValidation))
		return
	}

	summary, err := s.scanner.Run(r.Context(), req.TenantID, scan.Options{
		MinConfidence: req.MinConfidence,
		MaxProducts:   req.MaxProducts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListScanRuns(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation))
		return
	}
	runs, err := s.store.ListScanRuns(r.Context(), tenantID, queryLimit(r, 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": orEmpty(runs)})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation))
		return
	}
	candidates, err := s.reviewer.ListPending(r.Context(), tenantID, queryLimit(r, 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": orEmpty(candidates)})
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	var req struct {
		Action         string `json:"action"`
		KeepProductID  string `json:"keep_product_id"`
		MergeProductID string `json:"merge_product_id"`
		ReviewerID     string `json:"reviewer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrValidation))
		return
	}

	outcome, err := s.reviewer.Decide(r.Context(), candidateID, model.MergeDecision{
		Action:         model.DecisionAction(req.Action),
		KeepProductID:  req.KeepProductID,
		MergeProductID: req.MergeProductID,
	}, req.ReviewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleResolveAlias(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	rawName := q.Get("name")
	if tenantID == "" || rawName == "" {
		writeError(w, fmt.Errorf("%w: tenant_id and name are required", apperrors.ErrValidation))
		return
	}
	canonical, err := s.store.ResolveAlias(r.Context(), tenantID, rawName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"canonical_name": canonical})
}

func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation))
		return
	}
	aliases, err := s.store.ListAliases(r.Context(), tenantID, queryLimit(r, 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": orEmpty(aliases)})
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation))
		return
	}
	entries, err := s.store.ListMergeAudit(r.Context(), tenantID, queryLimit(r, 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": orEmpty(entries)})
}

func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// orEmpty keeps empty lists rendering as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
