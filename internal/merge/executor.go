// Package merge executes product merges as a sequence of individually
// idempotent steps. There is no enclosing transaction; re-invoking the whole
// sequence after a partial failure converges to the same end state.
package merge

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/resilience"
	"github.com/barstream/catalog-dedupe/internal/store"
)

// Merge step names, recorded in StepError.
const (
	StepSalesRewrite      = "sales_rewrite"
	StepAliasUpsert       = "alias_upsert"
	StepInventoryReassign = "inventory_reassign"
	StepMetricsRefresh    = "metrics_refresh"
	StepAuditAppend       = "audit_append"
)

// Request describes one merge: the product to keep and the product whose
// history is folded into it.
type Request struct {
	TenantID       string
	KeepProductID  string
	MergeProductID string

	// CandidateID links the merge back to the reviewed candidate, when the
	// merge originates from the review workflow. Used to derive a stable
	// audit entry id so retries never append twice.
	CandidateID string

	Type        model.MergeType
	Confidence  *float64
	Reasoning   string
	PerformedBy string
}

// Result reports the outcome of an executed merge.
type Result struct {
	RecordsAffected int64
	AuditEntryID    string
}

// Executor drives the five-step merge sequence against the store. Transient
// store failures are retried per step; a step that still fails surfaces as a
// StepError carrying the records rewritten so far.
type Executor struct {
	store store.Store
	retry resilience.RetryConfig
}

// NewExecutor creates an Executor with the given retry policy.
func NewExecutor(st store.Store, retry resilience.RetryConfig) *Executor {
	return &Executor{store: st, retry: retry}
}

// Execute performs the merge. Steps, in order: rewrite historical sales
// records to the canonical name, upsert the alias mapping, reassign
// inventory ledger entries, refresh the canonical product's aggregates, and
// append the audit entry. Each step is a safe no-op when re-run.
//
// RecordsAffected counts only the work done by this invocation. When a
// prior run rewrote sales records and then failed partway, the re-run that
// completes the merge reports zero rewrites, and the audit entry it appends
// carries that count. Totals never double-count across retries.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	keep, err := e.store.GetProduct(ctx, req.TenantID, req.KeepProductID)
	if err != nil {
		return nil, err
	}
	away, err := e.store.GetProduct(ctx, req.TenantID, req.MergeProductID)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("tenant_id", req.TenantID),
		zap.String("keep_product_id", keep.ID),
		zap.String("merge_product_id", away.ID),
	)

	affected, err := resilience.DoVal(ctx, e.stepRetry(StepSalesRewrite), func(ctx context.Context) (int64, error) {
		return e.store.RewriteSalesProduct(ctx, req.TenantID, away.Name, keep.Name)
	})
	if err != nil {
		return nil, &StepError{Step: StepSalesRewrite, Err: err}
	}
	log.Info("rewrote sales records", zap.Int64("records_affected", affected))

	source := model.AliasSourceManual
	if req.Type == model.MergeTypeAIBulk {
		source = model.AliasSourceAIConfirmed
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	err = resilience.Do(ctx, e.stepRetry(StepAliasUpsert), func(ctx context.Context) error {
		return e.store.UpsertAliasMapping(ctx, &model.ProductAliasMapping{
			TenantID:      req.TenantID,
			VariantName:   away.Name,
			CanonicalName: keep.Name,
			Confidence:    confidence,
			Source:        source,
			CreatedBy:     req.PerformedBy,
		})
	})
	if err != nil {
		return nil, &StepError{Step: StepAliasUpsert, RecordsAffected: affected, Err: err}
	}

	err = resilience.Do(ctx, e.stepRetry(StepInventoryReassign), func(ctx context.Context) error {
		_, err := e.store.ReassignInventory(ctx, req.TenantID, away.ID, keep.ID)
		return err
	})
	if err != nil {
		return nil, &StepError{Step: StepInventoryReassign, RecordsAffected: affected, Err: err}
	}

	err = resilience.Do(ctx, e.stepRetry(StepMetricsRefresh), func(ctx context.Context) error {
		return e.store.RefreshProductMetrics(ctx, req.TenantID, keep.ID)
	})
	if err != nil {
		return nil, &StepError{Step: StepMetricsRefresh, RecordsAffected: affected, Err: err}
	}

	entry := &model.MergeAuditEntry{
		ID:              auditEntryID(req, away.Name, keep.Name),
		TenantID:        req.TenantID,
		MergeType:       req.Type,
		SourceNames:     []string{away.Name},
		CanonicalName:   keep.Name,
		Confidence:      req.Confidence,
		Reasoning:       req.Reasoning,
		RecordsAffected: int(affected),
		PerformedBy:     req.PerformedBy,
		CreatedAt:       time.Now().UTC(),
	}
	inserted, err := resilience.DoVal(ctx, e.stepRetry(StepAuditAppend), func(ctx context.Context) (bool, error) {
		return e.store.AppendMergeAudit(ctx, entry)
	})
	if err != nil {
		return nil, &StepError{Step: StepAuditAppend, RecordsAffected: affected, Err: err}
	}
	if !inserted {
		// A prior partially-failed run already reached the audit step.
		log.Info("audit entry already recorded", zap.String("audit_id", entry.ID))
	}

	log.Info("merge completed",
		zap.String("audit_id", entry.ID),
		zap.Int64("records_affected", affected),
	)
	return &Result{RecordsAffected: affected, AuditEntryID: entry.ID}, nil
}

func (e *Executor) stepRetry(step string) resilience.RetryConfig {
	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("merge", step)
	return cfg
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return eris.Wrap(apperrors.ErrValidation, "merge: tenant id is required")
	}
	if req.KeepProductID == "" || req.MergeProductID == "" {
		return eris.Wrap(apperrors.ErrValidation, "merge: keep and merge product ids are required")
	}
	if req.KeepProductID == req.MergeProductID {
		return eris.Wrap(apperrors.ErrValidation, "merge: cannot merge a product into itself")
	}
	return nil
}

// auditEntryID derives a stable id for the audit entry so that retries of
// the same merge insert at most one row.
func auditEntryID(req Request, variantName, canonicalName string) string {
	key := req.CandidateID
	if key == "" {
		key = req.TenantID + "|" + variantName + "|" + canonicalName
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("merge:"+key)).String()
}
