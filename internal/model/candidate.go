package model

import "time"

// CandidateStatus represents the review state of a duplicate candidate.
type CandidateStatus string

const (
	CandidateStatusPending   CandidateStatus = "pending"
	CandidateStatusMerged    CandidateStatus = "merged"
	CandidateStatusDismissed CandidateStatus = "dismissed"
)

// DecisionAction is the reviewer's choice for a candidate.
type DecisionAction string

const (
	ActionMerge   DecisionAction = "merge"
	ActionDismiss DecisionAction = "dismiss"
)

// SimilarityDetail holds per-component scores and the reasoning behind a
// composite confidence. PackageCount is recorded for transparency but does
// not contribute to the composite.
type SimilarityDetail struct {
	Brand        float64  `json:"brand"`
	Volume       float64  `json:"volume"`
	Tokens       float64  `json:"tokens"`
	PackageCount float64  `json:"package_count"`
	Overall      float64  `json:"overall"`
	Reasoning    []string `json:"reasoning,omitempty"`
}

// MergeDecision is the payload recorded when a reviewer decides a candidate.
type MergeDecision struct {
	Action         DecisionAction `json:"action"`
	KeepProductID  string         `json:"keep_product_id,omitempty"`
	MergeProductID string         `json:"merge_product_id,omitempty"`
}

// DuplicateCandidate is a persisted, unreviewed suggestion that two products
// are duplicates. The pair is stored in canonical order (ProductAID <
// ProductBID) so a unique index enforces at most one row per unordered pair
// per tenant. Status transitions are terminal: pending -> merged or
// pending -> dismissed, never back.
type DuplicateCandidate struct {
	ID         string           `json:"id"`
	TenantID   string           `json:"tenant_id"`
	ProductAID string           `json:"product_a_id"`
	ProductBID string           `json:"product_b_id"`
	Confidence float64          `json:"confidence"`
	Detail     SimilarityDetail `json:"detail"`
	Status     CandidateStatus  `json:"status"`
	ReviewerID string           `json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time       `json:"reviewed_at,omitempty"`
	Decision   *MergeDecision   `json:"decision,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`

	// Reviewer context, populated on list queries.
	ProductA *Product `json:"product_a,omitempty"`
	ProductB *Product `json:"product_b,omitempty"`
}

// OrderPair returns the two product ids in canonical (lexicographic) order.
func OrderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
