package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is intended for
// single-node deployments and local development; InsertCandidates falls back
// to row-at-a-time inserts since SQLite has no COPY protocol.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL,
	name          TEXT NOT NULL,
	total_revenue REAL NOT NULL DEFAULT 0,
	total_orders  INTEGER NOT NULL DEFAULT 0,
	last_sale_at  DATETIME,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_products_tenant_revenue ON products(tenant_id, total_revenue DESC);
CREATE INDEX IF NOT EXISTS idx_products_tenant_name ON products(tenant_id, name);

CREATE TABLE IF NOT EXISTS sales_records (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	product_name TEXT NOT NULL,
	revenue      REAL NOT NULL DEFAULT 0,
	quantity     INTEGER NOT NULL DEFAULT 0,
	sold_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sales_tenant_product ON sales_records(tenant_id, product_name);

CREATE TABLE IF NOT EXISTS inventory_ledger (
	id             TEXT PRIMARY KEY,
	tenant_id      TEXT NOT NULL,
	product_id     TEXT NOT NULL REFERENCES products(id),
	quantity_delta INTEGER NOT NULL,
	entry_type     TEXT NOT NULL,
	occurred_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inventory_tenant_product ON inventory_ledger(tenant_id, product_id);

CREATE TABLE IF NOT EXISTS duplicate_candidates (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	product_a_id TEXT NOT NULL,
	product_b_id TEXT NOT NULL,
	confidence   REAL NOT NULL,
	detail       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	reviewer_id  TEXT,
	reviewed_at  DATETIME,
	decision     TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (tenant_id, product_a_id, product_b_id)
);

CREATE INDEX IF NOT EXISTS idx_candidates_tenant_status ON duplicate_candidates(tenant_id, status, confidence DESC);

CREATE TABLE IF NOT EXISTS product_alias_mappings (
	id             TEXT PRIMARY KEY,
	tenant_id      TEXT NOT NULL,
	variant_name   TEXT NOT NULL,
	canonical_name TEXT NOT NULL,
	confidence     REAL NOT NULL DEFAULT 0,
	source         TEXT NOT NULL,
	created_by     TEXT NOT NULL DEFAULT '',
	active         INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (tenant_id, variant_name)
);

CREATE TABLE IF NOT EXISTS merge_audit_log (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	merge_type       TEXT NOT NULL,
	source_names     TEXT NOT NULL,
	canonical_name   TEXT NOT NULL,
	confidence       REAL,
	reasoning        TEXT NOT NULL DEFAULT '',
	records_affected INTEGER NOT NULL DEFAULT 0,
	performed_by     TEXT NOT NULL DEFAULT '',
	can_undo         INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_merge_audit_tenant ON merge_audit_log(tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS scan_runs (
	id                    TEXT PRIMARY KEY,
	tenant_id             TEXT NOT NULL,
	started_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at          DATETIME,
	products_scanned      INTEGER NOT NULL DEFAULT 0,
	candidates_found      INTEGER NOT NULL DEFAULT 0,
	high_confidence_count INTEGER NOT NULL DEFAULT 0,
	duration_seconds      REAL NOT NULL DEFAULT 0,
	status                TEXT NOT NULL DEFAULT 'running',
	error                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_tenant ON scan_runs(tenant_id, started_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProduct(ctx context.Context, tenantID, productID string) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at
		 FROM products WHERE tenant_id = ? AND id = ?`,
		tenantID, productID,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.TotalRevenue, &p.TotalOrders, &p.LastSaleAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(apperrors.ErrNotFound, "sqlite: product %s", productID)
		}
		return nil, eris.Wrapf(err, "sqlite: get product %s", productID)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProductsByRevenue(ctx context.Context, tenantID string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at
		 FROM products WHERE tenant_id = ?
		 ORDER BY total_revenue DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.TotalRevenue, &p.TotalOrders, &p.LastSaleAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) CandidateExists(ctx context.Context, tenantID, productAID, productBID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duplicate_candidates
		 WHERE tenant_id = ?
		   AND ((product_a_id = ? AND product_b_id = ?) OR (product_a_id = ? AND product_b_id = ?))`,
		tenantID, productAID, productBID, productBID, productAID,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: candidate exists")
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertCandidates(ctx context.Context, candidates []model.DuplicateCandidate) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	var inserted []string
	for i := range candidates {
		c := &candidates[i]
		detailJSON, err := json.Marshal(c.Detail)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal candidate detail")
		}
		a, b := model.OrderPair(c.ProductAID, c.ProductBID)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO duplicate_candidates
			 (id, tenant_id, product_a_id, product_b_id, confidence, detail, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (tenant_id, product_a_id, product_b_id) DO NOTHING`,
			c.ID, c.TenantID, a, b, c.Confidence, string(detailJSON), string(c.Status), c.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert candidate")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert candidate rows affected")
		}
		if n > 0 {
			inserted = append(inserted, c.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit candidates")
	}
	return inserted, nil
}

const sqliteCandidateSelect = `
SELECT c.id, c.tenant_id, c.product_a_id, c.product_b_id, c.confidence, c.detail,
       c.status, c.reviewer_id, c.reviewed_at, c.decision, c.created_at,
       a.name, a.total_revenue, a.total_orders, a.last_sale_at,
       b.name, b.total_revenue, b.total_orders, b.last_sale_at
FROM duplicate_candidates c
JOIN products a ON a.id = c.product_a_id
JOIN products b ON b.id = c.product_b_id`

type sqliteRow interface {
	Scan(dest ...any) error
}

func scanSQLiteCandidate(row sqliteRow) (*model.DuplicateCandidate, error) {
	var (
		c            model.DuplicateCandidate
		detailJSON   string
		decisionJSON sql.NullString
		reviewerID   sql.NullString
		reviewedAt   sql.NullTime
		pa, pb       model.Product
	)
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ProductAID, &c.ProductBID, &c.Confidence, &detailJSON,
		&c.Status, &reviewerID, &reviewedAt, &decisionJSON, &c.CreatedAt,
		&pa.Name, &pa.TotalRevenue, &pa.TotalOrders, &pa.LastSaleAt,
		&pb.Name, &pb.TotalRevenue, &pb.TotalOrders, &pb.LastSaleAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(detailJSON), &c.Detail); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal candidate detail")
	}
	if decisionJSON.Valid {
		c.Decision = &model.MergeDecision{}
		if err := json.Unmarshal([]byte(decisionJSON.String), c.Decision); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate decision")
		}
	}
	c.ReviewerID = reviewerID.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		c.ReviewedAt = &t
	}
	pa.ID, pa.TenantID = c.ProductAID, c.TenantID
	pb.ID, pb.TenantID = c.ProductBID, c.TenantID
	c.ProductA, c.ProductB = &pa, &pb
	return &c, nil
}

func (s *SQLiteStore) ListPendingCandidates(ctx context.Context, tenantID string, limit int) ([]model.DuplicateCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		sqliteCandidateSelect+`
		 WHERE c.tenant_id = ? AND c.status = 'pending'
		 ORDER BY c.confidence DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending candidates")
	}
	defer rows.Close()

	var candidates []model.DuplicateCandidate
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		candidates = append(candidates, *c)
	}
	return candidates, eris.Wrap(rows.Err(), "sqlite: list pending candidates iterate")
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, candidateID string) (*model.DuplicateCandidate, error) {
	c, err := scanSQLiteCandidate(s.db.QueryRowContext(ctx,
		sqliteCandidateSelect+` WHERE c.id = ?`,
		candidateID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(apperrors.ErrNotFound, "sqlite: candidate %s", candidateID)
		}
		return nil, eris.Wrapf(err, "sqlite: get candidate %s", candidateID)
	}
	return c, nil
}

func (s *SQLiteStore) MarkCandidateDecided(ctx context.Context, candidateID string, status model.CandidateStatus, decision model.MergeDecision, reviewerID string) error {
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal decision")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE duplicate_candidates
		 SET status = ?, decision = ?, reviewer_id = ?, reviewed_at = ?
		 WHERE id = ? AND status = 'pending'`,
		string(status), string(decisionJSON), reviewerID, time.Now().UTC(), candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: decide candidate %s", candidateID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: decide candidate rows affected")
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM duplicate_candidates WHERE id = ?`,
			candidateID,
		).Scan(&exists); err != nil {
			return eris.Wrapf(err, "sqlite: decide candidate %s", candidateID)
		}
		if exists == 0 {
			return eris.Wrapf(apperrors.ErrNotFound, "sqlite: candidate %s", candidateID)
		}
		return eris.Wrapf(apperrors.ErrConflict, "sqlite: candidate %s already decided", candidateID)
	}
	return nil
}

func (s *SQLiteStore) CreateScanRun(ctx context.Context, tenantID string) (*model.ScanRun, error) {
	run := &model.ScanRun{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		StartedAt: time.Now().UTC(),
		Status:    model.ScanStatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, tenant_id, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.TenantID, run.StartedAt, string(run.Status),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteScanRun(ctx context.Context, run *model.ScanRun) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_runs
		 SET completed_at = ?, products_scanned = ?, candidates_found = ?,
		     high_confidence_count = ?, duration_seconds = ?, status = ?
		 WHERE id = ?`,
		run.CompletedAt, run.ProductsScanned, run.CandidatesFound,
		run.HighConfidenceCount, run.DurationSeconds, string(model.ScanStatusCompleted), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete scan run %s", run.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: complete scan run rows affected")
	}
	if n == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "sqlite: scan run %s", run.ID)
	}
	return nil
}

func (s *SQLiteStore) FailScanRun(ctx context.Context, scanID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_runs SET completed_at = ?, status = ?, error = ? WHERE id = ?`,
		time.Now().UTC(), string(model.ScanStatusFailed), msg, scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail scan run %s", scanID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: fail scan run rows affected")
	}
	if n == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "sqlite: scan run %s", scanID)
	}
	return nil
}

func (s *SQLiteStore) ListScanRuns(ctx context.Context, tenantID string, limit int) ([]model.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, started_at, completed_at, products_scanned, candidates_found,
		        high_confidence_count, duration_seconds, status, error
		 FROM scan_runs WHERE tenant_id = ?
		 ORDER BY started_at DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scan runs")
	}
	defer rows.Close()

	var runs []model.ScanRun
	for rows.Next() {
		var r model.ScanRun
		if err := rows.Scan(&r.ID, &r.TenantID, &r.StartedAt, &r.CompletedAt, &r.ProductsScanned,
			&r.CandidatesFound, &r.HighConfidenceCount, &r.DurationSeconds, &r.Status, &r.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list scan runs iterate")
}

func (s *SQLiteStore) RewriteSalesProduct(ctx context.Context, tenantID, fromName, toName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sales_records SET product_name = ? WHERE tenant_id = ? AND product_name = ?`,
		toName, tenantID, fromName,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rewrite sales records")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rewrite sales records rows affected")
}

func (s *SQLiteStore) UpsertAliasMapping(ctx context.Context, m *model.ProductAliasMapping) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_alias_mappings
		 (id, tenant_id, variant_name, canonical_name, confidence, source, created_by, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (tenant_id, variant_name) DO UPDATE SET
		   canonical_name = excluded.canonical_name, confidence = excluded.confidence,
		   source = excluded.source, active = 1, updated_at = excluded.updated_at`,
		m.ID, m.TenantID, m.VariantName, m.CanonicalName, m.Confidence, string(m.Source), m.CreatedBy, now, now,
	)
	return eris.Wrap(err, "sqlite: upsert alias mapping")
}

func (s *SQLiteStore) ReassignInventory(ctx context.Context, tenantID, fromProductID, toProductID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory_ledger SET product_id = ? WHERE tenant_id = ? AND product_id = ?`,
		toProductID, tenantID, fromProductID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: reassign inventory")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: reassign inventory rows affected")
}

func (s *SQLiteStore) RefreshProductMetrics(ctx context.Context, tenantID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET
		   total_revenue = COALESCE((SELECT SUM(s.revenue) FROM sales_records s
		                             WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name), 0),
		   total_orders  = (SELECT COUNT(*) FROM sales_records s
		                    WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name),
		   last_sale_at  = (SELECT MAX(s.sold_at) FROM sales_records s
		                    WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name),
		   updated_at    = datetime('now')
		 WHERE tenant_id = ? AND id = ?`,
		tenantID, productID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: refresh product metrics %s", productID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: refresh product metrics rows affected")
	}
	if n == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "sqlite: product %s", productID)
	}
	return nil
}

func (s *SQLiteStore) AppendMergeAudit(ctx context.Context, e *model.MergeAuditEntry) (bool, error) {
	namesJSON, err := json.Marshal(e.SourceNames)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal audit source names")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO merge_audit_log
		 (id, tenant_id, merge_type, source_names, canonical_name, confidence, reasoning,
		  records_affected, performed_by, can_undo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.TenantID, string(e.MergeType), string(namesJSON), e.CanonicalName, e.Confidence,
		e.Reasoning, e.RecordsAffected, e.PerformedBy, e.CanUndo, e.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: append merge audit")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: append merge audit rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ResolveAlias(ctx context.Context, tenantID, rawName string) (string, error) {
	var canonical string
	err := s.db.QueryRowContext(ctx,
		`SELECT canonical_name FROM product_alias_mappings
		 WHERE tenant_id = ? AND variant_name = ? AND active = 1`,
		tenantID, rawName,
	).Scan(&canonical)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rawName, nil
		}
		return "", eris.Wrap(err, "sqlite: resolve alias")
	}
	return canonical, nil
}

func (s *SQLiteStore) ListAliases(ctx context.Context, tenantID string, limit int) ([]model.ProductAliasMapping, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, variant_name, canonical_name, confidence, source, created_by, active, created_at, updated_at
		 FROM product_alias_mappings WHERE tenant_id = ? AND active = 1
		 ORDER BY updated_at DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list aliases")
	}
	defer rows.Close()

	var aliases []model.ProductAliasMapping
	for rows.Next() {
		var m model.ProductAliasMapping
		if err := rows.Scan(&m.ID, &m.TenantID, &m.VariantName, &m.CanonicalName, &m.Confidence,
			&m.Source, &m.CreatedBy, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alias")
		}
		aliases = append(aliases, m)
	}
	return aliases, eris.Wrap(rows.Err(), "sqlite: list aliases iterate")
}

func (s *SQLiteStore) ListMergeAudit(ctx context.Context, tenantID string, limit int) ([]model.MergeAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, merge_type, source_names, canonical_name, confidence, reasoning,
		        records_affected, performed_by, can_undo, created_at
		 FROM merge_audit_log WHERE tenant_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list merge audit")
	}
	defer rows.Close()

	var entries []model.MergeAuditEntry
	for rows.Next() {
		var (
			e         model.MergeAuditEntry
			namesJSON string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.MergeType, &namesJSON, &e.CanonicalName, &e.Confidence,
			&e.Reasoning, &e.RecordsAffected, &e.PerformedBy, &e.CanUndo, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan merge audit")
		}
		if err := json.Unmarshal([]byte(namesJSON), &e.SourceNames); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal audit source names")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list merge audit iterate")
}
