package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetProduct_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at`).
		WithArgs("tenant-1", "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProduct(context.Background(), "tenant-1", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProduct(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at`).
		WithArgs("tenant-1", "prod-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "name", "total_revenue", "total_orders", "last_sale_at", "created_at", "updated_at",
		}).AddRow("prod-1", "tenant-1", "Tito's Vodka 750ml", 1200.50, 42, (*time.Time)(nil), now, now))

	p, err := s.GetProduct(context.Background(), "tenant-1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "Tito's Vodka 750ml", p.Name)
	assert.Equal(t, 42, p.TotalOrders)
	assert.Nil(t, p.LastSaleAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProductsByRevenue_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`ORDER BY total_revenue DESC LIMIT \$2`).
		WithArgs("tenant-1", 500).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "name", "total_revenue", "total_orders", "last_sale_at", "created_at", "updated_at",
		}).
			AddRow("prod-1", "tenant-1", "Tito's Vodka 750ml", 900.0, 30, (*time.Time)(nil), now, now).
			AddRow("prod-2", "tenant-1", "Titos Vodka 750 ml", 120.0, 4, (*time.Time)(nil), now, now))

	products, err := s.ListProductsByRevenue(context.Background(), "tenant-1", 0)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-1", products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CandidateExists_Symmetric(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tenant-1", "prod-b", "prod-a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	// Reversed order still finds the stored pair.
	exists, err := s.CandidateExists(context.Background(), "tenant-1", "prod-b", "prod-a")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCandidates_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	ids, err := s.InsertCandidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func stagedCandidates() []model.DuplicateCandidate {
	return []model.DuplicateCandidate{
		{
			ID: "cand-1", TenantID: "tenant-1",
			// Reversed insertion order is canonicalized on write.
			ProductAID: "prod-b", ProductBID: "prod-a",
			Confidence: 0.91, Status: model.CandidateStatusPending, CreatedAt: time.Now().UTC(),
		},
		{
			ID: "cand-2", TenantID: "tenant-1",
			ProductAID: "prod-a", ProductBID: "prod-c",
			Confidence: 0.74, Status: model.CandidateStatusPending, CreatedAt: time.Now().UTC(),
		},
	}
}

func TestPostgresStore_InsertCandidates_BulkStaged(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_duplicate_candidates"}, candidateColumns).WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("tenant_id", "product_a_id", "product_b_id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	ids, err := s.InsertCandidates(context.Background(), stagedCandidates())
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-1", "cand-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCandidates_LostRaceReportsOnlyInsertedIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_duplicate_candidates"}, candidateColumns).WillReturnResult(2)
	// One pair was inserted concurrently between the existence check and
	// the bulk insert; only one of our rows lands.
	mock.ExpectExec(`ON CONFLICT \("tenant_id", "product_a_id", "product_b_id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT id FROM duplicate_candidates WHERE id = ANY`).
		WithArgs([]string{"cand-1", "cand-2"}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("cand-2"))

	ids, err := s.InsertCandidates(context.Background(), stagedCandidates())
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkCandidateDecided(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_candidates`).
		WithArgs("merged", pgxmock.AnyArg(), "reviewer-1", pgxmock.AnyArg(), "cand-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	decision := model.MergeDecision{Action: model.ActionMerge, KeepProductID: "prod-a", MergeProductID: "prod-b"}
	err := s.MarkCandidateDecided(context.Background(), "cand-1", model.CandidateStatusMerged, decision, "reviewer-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkCandidateDecided_AlreadyDecided(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_candidates`).
		WithArgs("dismissed", pgxmock.AnyArg(), "reviewer-2", pgxmock.AnyArg(), "cand-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("cand-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := s.MarkCandidateDecided(context.Background(), "cand-1", model.CandidateStatusDismissed,
		model.MergeDecision{Action: model.ActionDismiss}, "reviewer-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkCandidateDecided_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE duplicate_candidates`).
		WithArgs("merged", pgxmock.AnyArg(), "reviewer-1", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	err := s.MarkCandidateDecided(context.Background(), "ghost", model.CandidateStatusMerged,
		model.MergeDecision{Action: model.ActionMerge}, "reviewer-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScanRunLifecycle(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scan_runs`).
		WithArgs(pgxmock.AnyArg(), "tenant-1", pgxmock.AnyArg(), "running").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateScanRun(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.ScanStatusRunning, run.Status)

	done := time.Now().UTC()
	run.CompletedAt = &done
	run.ProductsScanned = 120
	run.CandidatesFound = 7
	run.HighConfidenceCount = 2
	run.DurationSeconds = 1.5

	mock.ExpectExec(`UPDATE scan_runs`).
		WithArgs(run.CompletedAt, 120, 7, 2, 1.5, "completed", run.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteScanRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailScanRun_RecordsError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scan_runs SET completed_at = \$1, status = \$2, error = \$3`).
		WithArgs(pgxmock.AnyArg(), "failed", "context canceled", "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailScanRun(context.Background(), "scan-1", context.Canceled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RewriteSalesProduct(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE sales_records SET product_name = \$1`).
		WithArgs("Tito's Vodka 750ml", "tenant-1", "Titos Vodka 750 ml").
		WillReturnResult(pgxmock.NewResult("UPDATE", 37))

	n, err := s.RewriteSalesProduct(context.Background(), "tenant-1", "Titos Vodka 750 ml", "Tito's Vodka 750ml")
	require.NoError(t, err)
	assert.Equal(t, int64(37), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendMergeAudit_Idempotent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	entry := &model.MergeAuditEntry{
		ID:            "audit-1",
		TenantID:      "tenant-1",
		MergeType:     model.MergeTypeManual,
		SourceNames:   []string{"Titos Vodka 750 ml"},
		CanonicalName: "Tito's Vodka 750ml",
		PerformedBy:   "reviewer-1",
		CreatedAt:     time.Now().UTC(),
	}

	auditArgs := []any{
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
	}
	mock.ExpectExec(`INSERT INTO merge_audit_log`).
		WithArgs(auditArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO merge_audit_log`).
		WithArgs(auditArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := s.AppendMergeAudit(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Replaying the same entry id is a no-op.
	inserted, err = s.AppendMergeAudit(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveAlias_Unmapped(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT canonical_name FROM product_alias_mappings`).
		WithArgs("tenant-1", "Unknown Gin 1L").
		WillReturnError(pgx.ErrNoRows)

	canonical, err := s.ResolveAlias(context.Background(), "tenant-1", "Unknown Gin 1L")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Gin 1L", canonical)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveAlias_Mapped(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT canonical_name FROM product_alias_mappings`).
		WithArgs("tenant-1", "Titos Vodka 750 ml").
		WillReturnRows(pgxmock.NewRows([]string{"canonical_name"}).AddRow("Tito's Vodka 750ml"))

	canonical, err := s.ResolveAlias(context.Background(), "tenant-1", "Titos Vodka 750 ml")
	require.NoError(t, err)
	assert.Equal(t, "Tito's Vodka 750ml", canonical)
	assert.NoError(t, mock.ExpectationsWereMet())
}
