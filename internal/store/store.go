// Package store persists the deduplication engine's catalog views,
// candidates, alias mappings, scan runs, and merge audit trail.
package store

import (
	"context"

	"github.com/barstream/catalog-dedupe/internal/model"
)

// Store defines the persistence interface for the deduplication engine.
// All reads and writes are tenant-scoped; nothing crosses tenants.
type Store interface {
	// Products
	GetProduct(ctx context.Context, tenantID, productID string) (*model.Product, error)
	ListProductsByRevenue(ctx context.Context, tenantID string, limit int) ([]model.Product, error)

	// Candidates
	CandidateExists(ctx context.Context, tenantID, productAID, productBID string) (bool, error)
	// InsertCandidates returns the ids of the rows actually inserted. A
	// candidate whose pair already exists (including one inserted
	// concurrently) is skipped and its id is not returned.
	InsertCandidates(ctx context.Context, candidates []model.DuplicateCandidate) ([]string, error)
	ListPendingCandidates(ctx context.Context, tenantID string, limit int) ([]model.DuplicateCandidate, error)
	GetCandidate(ctx context.Context, candidateID string) (*model.DuplicateCandidate, error)
	MarkCandidateDecided(ctx context.Context, candidateID string, status model.CandidateStatus, decision model.MergeDecision, reviewerID string) error

	// Scan runs
	CreateScanRun(ctx context.Context, tenantID string) (*model.ScanRun, error)
	CompleteScanRun(ctx context.Context, run *model.ScanRun) error
	FailScanRun(ctx context.Context, scanID string, cause error) error
	ListScanRuns(ctx context.Context, tenantID string, limit int) ([]model.ScanRun, error)

	// Merge steps. Each is individually idempotent so the merge saga can be
	// re-driven after a partial failure.
	RewriteSalesProduct(ctx context.Context, tenantID, fromName, toName string) (int64, error)
	UpsertAliasMapping(ctx context.Context, m *model.ProductAliasMapping) error
	ReassignInventory(ctx context.Context, tenantID, fromProductID, toProductID string) (int64, error)
	RefreshProductMetrics(ctx context.Context, tenantID, productID string) error
	// AppendMergeAudit reports whether a new entry was written; an entry with
	// the same id already on file is left untouched.
	AppendMergeAudit(ctx context.Context, e *model.MergeAuditEntry) (bool, error)

	// Aliases and audit queries
	ResolveAlias(ctx context.Context, tenantID, rawName string) (string, error)
	ListAliases(ctx context.Context, tenantID string, limit int) ([]model.ProductAliasMapping, error)
	ListMergeAudit(ctx context.Context, tenantID string, limit int) ([]model.MergeAuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
