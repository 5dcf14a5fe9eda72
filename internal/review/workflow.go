// Package review implements the human review workflow over duplicate
// candidates. A candidate is decided exactly once; both outcomes are
// terminal.
package review

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/merge"
	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/store"
)

// Merger executes a confirmed merge. Satisfied by merge.Executor.
type Merger interface {
	Execute(ctx context.Context, req merge.Request) (*merge.Result, error)
}

// Outcome is the result of a submitted decision.
type Outcome struct {
	Status          model.CandidateStatus `json:"status"`
	RecordsAffected int64                 `json:"records_affected,omitempty"`
}

// Workflow coordinates candidate listing and decisions.
type Workflow struct {
	store  store.Store
	merger Merger
}

// NewWorkflow creates a review workflow.
func NewWorkflow(st store.Store, merger Merger) *Workflow {
	return &Workflow{store: st, merger: merger}
}

// ListPending returns pending candidates for the tenant ordered by
// confidence descending, including both products for reviewer context.
// A non-positive limit defaults to 50.
func (w *Workflow) ListPending(ctx context.Context, tenantID string, limit int) ([]model.DuplicateCandidate, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, eris.Wrap(apperrors.ErrValidation, "review: tenant id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return w.store.ListPendingCandidates(ctx, tenantID, limit)
}

// Decide applies a reviewer's decision to a pending candidate. On merge the
// merge sequence executes first; the status transition to merged happens only
// after it succeeds, so a failed merge leaves the candidate pending and
// retryable. Deciding a non-pending candidate fails with a conflict.
func (w *Workflow) Decide(ctx context.Context, candidateID string, decision model.MergeDecision, reviewerID string) (*Outcome, error) {
	if candidateID == "" {
		return nil, eris.Wrap(apperrors.ErrValidation, "review: candidate id is required")
	}

	cand, err := w.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if cand.Status != model.CandidateStatusPending {
		return nil, eris.Wrapf(apperrors.ErrConflict, "review: candidate %s is %s", candidateID, cand.Status)
	}

	switch decision.Action {
	case model.ActionDismiss:
		if err := w.store.MarkCandidateDecided(ctx, candidateID, model.CandidateStatusDismissed, decision, reviewerID); err != nil {
			return nil, err
		}
		zap.L().Info("candidate dismissed",
			zap.String("candidate_id", candidateID),
			zap.String("reviewer_id", reviewerID),
		)
		return &Outcome{Status: model.CandidateStatusDismissed}, nil

	case model.ActionMerge:
		if err := validateMergeDecision(cand, decision); err != nil {
			return nil, err
		}

		res, err := w.merger.Execute(ctx, merge.Request{
			TenantID:       cand.TenantID,
			KeepProductID:  decision.KeepProductID,
			MergeProductID: decision.MergeProductID,
			CandidateID:    cand.ID,
			Type:           model.MergeTypeAIBulk,
			Confidence:     &cand.Confidence,
			Reasoning:      strings.Join(cand.Detail.Reasoning, "; "),
			PerformedBy:    reviewerID,
		})
		if err != nil {
			return nil, err
		}

		if err := w.store.MarkCandidateDecided(ctx, candidateID, model.CandidateStatusMerged, decision, reviewerID); err != nil {
			return nil, err
		}
		zap.L().Info("candidate merged",
			zap.String("candidate_id", candidateID),
			zap.String("reviewer_id", reviewerID),
			zap.Int64("records_affected", res.RecordsAffected),
		)
		return &Outcome{Status: model.CandidateStatusMerged, RecordsAffected: res.RecordsAffected}, nil

	default:
		return nil, eris.Wrapf(apperrors.ErrValidation, "review: unknown action %q", decision.Action)
	}
}

// validateMergeDecision checks that the keep/merge ids name exactly the
// candidate's pair.
func validateMergeDecision(cand *model.DuplicateCandidate, d model.MergeDecision) error {
	if d.KeepProductID == "" || d.MergeProductID == "" {
		return eris.Wrap(apperrors.ErrValidation, "review: merge requires keep and merge product ids")
	}
	if d.KeepProductID == d.MergeProductID {
		return eris.Wrap(apperrors.ErrValidation, "review: keep and merge product ids must differ")
	}
	pair := map[string]bool{cand.ProductAID: true, cand.ProductBID: true}
	if !pair[d.KeepProductID] || !pair[d.MergeProductID] {
		return eris.Wrapf(apperrors.ErrValidation, "review: decision ids do not match candidate %s", cand.ID)
	}
	return nil
}
