// Package scan runs batch duplicate detection over a tenant's catalog.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/match"
	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/store"
)

// Default scan parameters.
const (
	DefaultMinConfidence = 0.70
	DefaultMaxProducts   = 500
	highConfidenceCutoff = 0.90
)

// Options tune a single scan invocation. Zero values take defaults.
type Options struct {
	// MinConfidence is the score below which a pair is not recorded.
	MinConfidence float64
	// MaxProducts caps how many products are considered, highest revenue
	// first. The pair loop is O(n²), so the cap bounds both comparisons and
	// existence lookups.
	MaxProducts int
}

func (o Options) withDefaults() Options {
	if o.MinConfidence == 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.MaxProducts == 0 {
		o.MaxProducts = DefaultMaxProducts
	}
	return o
}

func (o Options) validate() error {
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return eris.Wrapf(apperrors.ErrValidation, "scan: min confidence %v outside [0,1]", o.MinConfidence)
	}
	if o.MaxProducts < 0 {
		return eris.Wrapf(apperrors.ErrValidation, "scan: max products %d is negative", o.MaxProducts)
	}
	return nil
}

// RunError wraps an unrecoverable mid-scan failure. The scan run row is
// already marked failed by the time a RunError is returned.
type RunError struct {
	ScanID string
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("scan %s failed: %v", e.ScanID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Scanner performs duplicate scans and persists candidates.
type Scanner struct {
	store   store.Store
	scorer  *match.Scorer
	limiter *rate.Limiter
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithPairRate throttles pair comparisons (and their existence lookups) to
// the given rate per second. Zero or negative disables throttling.
func WithPairRate(perSecond float64) ScannerOption {
	return func(s *Scanner) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewScanner creates a Scanner.
func NewScanner(st store.Store, scorer *match.Scorer, opts ...ScannerOption) *Scanner {
	s := &Scanner{store: st, scorer: scorer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one scan for the tenant. It creates a ScanRun row up front
// and always finalizes it: completed with counts on success, failed with the
// cause otherwise. Cancelling the context stops the pair loop and marks the
// run failed rather than leaving it running.
func (s *Scanner) Run(ctx context.Context, tenantID string, opts Options) (*model.ScanSummary, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, eris.Wrap(apperrors.ErrValidation, "scan: tenant id is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	run, err := s.store.CreateScanRun(ctx, tenantID)
	if err != nil {
		return nil, eris.Wrap(err, "scan: create run")
	}
	log := zap.L().With(
		zap.String("scan_id", run.ID),
		zap.String("tenant_id", tenantID),
	)
	log.Info("scan started",
		zap.Float64("min_confidence", opts.MinConfidence),
		zap.Int("max_products", opts.MaxProducts),
	)

	summary, err := s.run(ctx, run, tenantID, opts)
	if err != nil {
		if failErr := s.store.FailScanRun(context.WithoutCancel(ctx), run.ID, err); failErr != nil {
			log.Error("failed to finalize scan run", zap.Error(failErr))
		}
		log.Warn("scan failed", zap.Error(err))
		return nil, &RunError{ScanID: run.ID, Err: err}
	}

	log.Info("scan completed",
		zap.Int("products_scanned", summary.ProductsScanned),
		zap.Int("candidates_found", summary.CandidatesFound),
		zap.Int("high_confidence", summary.HighConfidenceCount),
		zap.Float64("duration_seconds", summary.DurationSeconds),
	)
	return summary, nil
}

func (s *Scanner) run(ctx context.Context, run *model.ScanRun, tenantID string, opts Options) (*model.ScanSummary, error) {
	products, err := s.store.ListProductsByRevenue(ctx, tenantID, opts.MaxProducts)
	if err != nil {
		return nil, eris.Wrap(err, "scan: fetch products")
	}

	var staged []model.DuplicateCandidate
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "scan: cancelled")
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return nil, eris.Wrap(err, "scan: cancelled")
				}
			}

			a, b := &products[i], &products[j]
			exists, err := s.store.CandidateExists(ctx, tenantID, a.ID, b.ID)
			if err != nil {
				return nil, eris.Wrap(err, "scan: existence check")
			}
			if exists {
				continue
			}

			detail := s.scorer.Score(a.Name, b.Name)
			if detail.Overall < opts.MinConfidence {
				continue
			}

			aID, bID := model.OrderPair(a.ID, b.ID)
			staged = append(staged, model.DuplicateCandidate{
				ID:         uuid.New().String(),
				TenantID:   tenantID,
				ProductAID: aID,
				ProductBID: bID,
				Confidence: detail.Overall,
				Detail:     detail,
				Status:     model.CandidateStatusPending,
				CreatedAt:  time.Now().UTC(),
			})
		}
	}

	// Insert before finalizing: if finalization fails, durably persisted
	// candidates are not discarded.
	insertedIDs, err := s.store.InsertCandidates(ctx, staged)
	if err != nil {
		return nil, eris.Wrap(err, "scan: persist candidates")
	}

	// Counts cover the rows that actually landed. A staged pair can lose a
	// race with a concurrent scan; it must not inflate either count.
	insertedSet := make(map[string]struct{}, len(insertedIDs))
	for _, id := range insertedIDs {
		insertedSet[id] = struct{}{}
	}
	highConfidence := 0
	for i := range staged {
		if _, ok := insertedSet[staged[i].ID]; !ok {
			continue
		}
		if staged[i].Confidence >= highConfidenceCutoff {
			highConfidence++
		}
	}

	now := time.Now().UTC()
	run.CompletedAt = &now
	run.ProductsScanned = len(products)
	run.CandidatesFound = len(insertedIDs)
	run.HighConfidenceCount = highConfidence
	run.DurationSeconds = now.Sub(run.StartedAt).Seconds()
	if err := s.store.CompleteScanRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "scan: finalize run")
	}

	return &model.ScanSummary{
		ScanID:              run.ID,
		ProductsScanned:     run.ProductsScanned,
		CandidatesFound:     run.CandidatesFound,
		HighConfidenceCount: run.HighConfidenceCount,
		DurationSeconds:     run.DurationSeconds,
	}, nil
}
