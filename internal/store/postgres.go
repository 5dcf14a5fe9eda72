package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/db"
	"github.com/barstream/catalog-dedupe/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests and by callers
// that manage pool lifecycle themselves; Close does not close the pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id     TEXT NOT NULL,
	name          TEXT NOT NULL,
	total_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_orders  INTEGER NOT NULL DEFAULT 0,
	last_sale_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_tenant_revenue ON products(tenant_id, total_revenue DESC);
CREATE INDEX IF NOT EXISTS idx_products_tenant_name ON products(tenant_id, name);

CREATE TABLE IF NOT EXISTS sales_records (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id    TEXT NOT NULL,
	product_name TEXT NOT NULL,
	revenue      DOUBLE PRECISION NOT NULL DEFAULT 0,
	quantity     INTEGER NOT NULL DEFAULT 0,
	sold_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sales_tenant_product ON sales_records(tenant_id, product_name);

CREATE TABLE IF NOT EXISTS inventory_ledger (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id      TEXT NOT NULL,
	product_id     TEXT NOT NULL REFERENCES products(id),
	quantity_delta INTEGER NOT NULL,
	entry_type     TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inventory_tenant_product ON inventory_ledger(tenant_id, product_id);

CREATE TABLE IF NOT EXISTS duplicate_candidates (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	product_a_id TEXT NOT NULL,
	product_b_id TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	detail       JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	reviewer_id  TEXT,
	reviewed_at  TIMESTAMPTZ,
	decision     JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, product_a_id, product_b_id)
);

CREATE INDEX IF NOT EXISTS idx_candidates_tenant_status ON duplicate_candidates(tenant_id, status, confidence DESC);

CREATE TABLE IF NOT EXISTS product_alias_mappings (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id      TEXT NOT NULL,
	variant_name   TEXT NOT NULL,
	canonical_name TEXT NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
	source         TEXT NOT NULL,
	created_by     TEXT NOT NULL DEFAULT '',
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, variant_name)
);

CREATE TABLE IF NOT EXISTS merge_audit_log (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	merge_type       TEXT NOT NULL,
	source_names     JSONB NOT NULL,
	canonical_name   TEXT NOT NULL,
	confidence       DOUBLE PRECISION,
	reasoning        TEXT NOT NULL DEFAULT '',
	records_affected INTEGER NOT NULL DEFAULT 0,
	performed_by     TEXT NOT NULL DEFAULT '',
	can_undo         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_merge_audit_tenant ON merge_audit_log(tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS scan_runs (
	id                    TEXT PRIMARY KEY,
	tenant_id             TEXT NOT NULL,
	started_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at          TIMESTAMPTZ,
	products_scanned      INTEGER NOT NULL DEFAULT 0,
	candidates_found      INTEGER NOT NULL DEFAULT 0,
	high_confidence_count INTEGER NOT NULL DEFAULT 0,
	duration_seconds      DOUBLE PRECISION NOT NULL DEFAULT 0,
	status                TEXT NOT NULL DEFAULT 'running',
	error                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_tenant ON scan_runs(tenant_id, started_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, tenantID, productID string) (*model.Product, error) {
	var p model.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at
		 FROM products WHERE tenant_id = $1 AND id = $2`,
		tenantID, productID,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.TotalRevenue, &p.TotalOrders, &p.LastSaleAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(apperrors.ErrNotFound, "postgres: product %s", productID)
		}
		return nil, eris.Wrapf(err, "postgres: get product %s", productID)
	}
	return &p, nil
}

func (s *PostgresStore) ListProductsByRevenue(ctx context.Context, tenantID string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, total_revenue, total_orders, last_sale_at, created_at, updated_at
		 FROM products WHERE tenant_id = $1
		 ORDER BY total_revenue DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.TotalRevenue, &p.TotalOrders, &p.LastSaleAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) CandidateExists(ctx context.Context, tenantID, productAID, productBID string) (bool, error) {
	var exists bool
	// Symmetric lookup: a candidate recorded in either insertion order blocks
	// the pair.
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM duplicate_candidates
		   WHERE tenant_id = $1
		     AND ((product_a_id = $2 AND product_b_id = $3) OR (product_a_id = $3 AND product_b_id = $2))
		 )`,
		tenantID, productAID, productBID,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: candidate exists")
	}
	return exists, nil
}

var candidateColumns = []string{
	"id", "tenant_id", "product_a_id", "product_b_id",
	"confidence", "detail", "status", "created_at",
}

func (s *PostgresStore) InsertCandidates(ctx context.Context, candidates []model.DuplicateCandidate) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	rows := make([][]any, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		detailJSON, err := json.Marshal(c.Detail)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal candidate detail")
		}
		a, b := model.OrderPair(c.ProductAID, c.ProductBID)
		ids = append(ids, c.ID)
		rows = append(rows, []any{
			c.ID, c.TenantID, a, b, c.Confidence, detailJSON, string(c.Status), c.CreatedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "duplicate_candidates",
		Columns:      candidateColumns,
		ConflictKeys: []string{"tenant_id", "product_a_id", "product_b_id"},
		DoNothing:    true,
	}, rows)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert candidates")
	}
	if n == int64(len(rows)) {
		return ids, nil
	}

	// Some pairs lost a race with a concurrent insert. A skipped pair keeps
	// the pre-existing row's id, so selecting our generated ids back tells us
	// exactly which rows made it in.
	rs, err := s.pool.Query(ctx,
		`SELECT id FROM duplicate_candidates WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: read back inserted candidates")
	}
	defer rs.Close()

	inserted := make([]string, 0, n)
	for rs.Next() {
		var id string
		if err := rs.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan inserted candidate id")
		}
		inserted = append(inserted, id)
	}
	if err := rs.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: read back inserted candidates")
	}
	return inserted, nil
}

const candidateSelect = `
SELECT c.id, c.tenant_id, c.product_a_id, c.product_b_id, c.confidence, c.detail,
       c.status, c.reviewer_id, c.reviewed_at, c.decision, c.created_at,
       a.name, a.total_revenue, a.total_orders, a.last_sale_at,
       b.name, b.total_revenue, b.total_orders, b.last_sale_at
FROM duplicate_candidates c
JOIN products a ON a.id = c.product_a_id
JOIN products b ON b.id = c.product_b_id`

func scanCandidate(row pgx.Row) (*model.DuplicateCandidate, error) {
	var (
		c            model.DuplicateCandidate
		detailJSON   []byte
		decisionJSON []byte
		reviewerID   *string
		pa, pb       model.Product
	)
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ProductAID, &c.ProductBID, &c.Confidence, &detailJSON,
		&c.Status, &reviewerID, &c.ReviewedAt, &decisionJSON, &c.CreatedAt,
		&pa.Name, &pa.TotalRevenue, &pa.TotalOrders, &pa.LastSaleAt,
		&pb.Name, &pb.TotalRevenue, &pb.TotalOrders, &pb.LastSaleAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(detailJSON, &c.Detail); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal candidate detail")
	}
	if decisionJSON != nil {
		c.Decision = &model.MergeDecision{}
		if err := json.Unmarshal(decisionJSON, c.Decision); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate decision")
		}
	}
	if reviewerID != nil {
		c.ReviewerID = *reviewerID
	}
	pa.ID, pa.TenantID = c.ProductAID, c.TenantID
	pb.ID, pb.TenantID = c.ProductBID, c.TenantID
	c.ProductA, c.ProductB = &pa, &pb
	return &c, nil
}

func (s *PostgresStore) ListPendingCandidates(ctx context.Context, tenantID string, limit int) ([]model.DuplicateCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		candidateSelect+`
		 WHERE c.tenant_id = $1 AND c.status = 'pending'
		 ORDER BY c.confidence DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending candidates")
	}
	defer rows.Close()

	var candidates []model.DuplicateCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		candidates = append(candidates, *c)
	}
	return candidates, eris.Wrap(rows.Err(), "postgres: list pending candidates iterate")
}

func (s *PostgresStore) GetCandidate(ctx context.Context, candidateID string) (*model.DuplicateCandidate, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx,
		candidateSelect+` WHERE c.id = $1`,
		candidateID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(apperrors.ErrNotFound, "postgres: candidate %s", candidateID)
		}
		return nil, eris.Wrapf(err, "postgres: get candidate %s", candidateID)
	}
	return c, nil
}

func (s *PostgresStore) MarkCandidateDecided(ctx context.Context, candidateID string, status model.CandidateStatus, decision model.MergeDecision, reviewerID string) error {
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal decision")
	}

	// Compare-and-swap on the pending status: the transition is terminal and
	// a lost race surfaces as a conflict, never a second merge.
	tag, err := s.pool.Exec(ctx,
		`UPDATE duplicate_candidates
		 SET status = $1, decision = $2, reviewer_id = $3, reviewed_at = $4
		 WHERE id = $5 AND status = 'pending'`,
		string(status), decisionJSON, reviewerID, time.Now().UTC(), candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: decide candidate %s", candidateID)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM duplicate_candidates WHERE id = $1)`,
			candidateID,
		).Scan(&exists); err != nil {
			return eris.Wrapf(err, "postgres: decide candidate %s", candidateID)
		}
		if !exists {
			return eris.Wrapf(apperrors.ErrNotFound, "postgres: candidate %s", candidateID)
		}
		return eris.Wrapf(apperrors.ErrConflict, "postgres: candidate %s already decided", candidateID)
	}
	return nil
}

func (s *PostgresStore) CreateScanRun(ctx context.Context, tenantID string) (*model.ScanRun, error) {
	run := &model.ScanRun{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		StartedAt: time.Now().UTC(),
		Status:    model.ScanStatusRunning,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scan_runs (id, tenant_id, started_at, status) VALUES ($1, $2, $3, $4)`,
		run.ID, run.TenantID, run.StartedAt, string(run.Status),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteScanRun(ctx context.Context, run *model.ScanRun) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scan_runs
		 SET completed_at = $1, products_scanned = $2, candidates_found = $3,
		     high_confidence_count = $4, duration_seconds = $5, status = $6
		 WHERE id = $7`,
		run.CompletedAt, run.ProductsScanned, run.CandidatesFound,
		run.HighConfidenceCount, run.DurationSeconds, string(model.ScanStatusCompleted), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete scan run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "postgres: scan run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) FailScanRun(ctx context.Context, scanID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE scan_runs SET completed_at = $1, status = $2, error = $3 WHERE id = $4`,
		time.Now().UTC(), string(model.ScanStatusFailed), msg, scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail scan run %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "postgres: scan run %s", scanID)
	}
	return nil
}

func (s *PostgresStore) ListScanRuns(ctx context.Context, tenantID string, limit int) ([]model.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, started_at, completed_at, products_scanned, candidates_found,
		        high_confidence_count, duration_seconds, status, error
		 FROM scan_runs WHERE tenant_id = $1
		 ORDER BY started_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scan runs")
	}
	defer rows.Close()

	var runs []model.ScanRun
	for rows.Next() {
		var r model.ScanRun
		if err := rows.Scan(&r.ID, &r.TenantID, &r.StartedAt, &r.CompletedAt, &r.ProductsScanned,
			&r.CandidatesFound, &r.HighConfidenceCount, &r.DurationSeconds, &r.Status, &r.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list scan runs iterate")
}

func (s *PostgresStore) RewriteSalesProduct(ctx context.Context, tenantID, fromName, toName string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sales_records SET product_name = $1 WHERE tenant_id = $2 AND product_name = $3`,
		toName, tenantID, fromName,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: rewrite sales records")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) UpsertAliasMapping(ctx context.Context, m *model.ProductAliasMapping) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO product_alias_mappings
		 (id, tenant_id, variant_name, canonical_name, confidence, source, created_by, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		 ON CONFLICT (tenant_id, variant_name) DO UPDATE SET
		   canonical_name = $4, confidence = $5, source = $6, active = TRUE, updated_at = $8`,
		m.ID, m.TenantID, m.VariantName, m.CanonicalName, m.Confidence, string(m.Source), m.CreatedBy, now,
	)
	return eris.Wrap(err, "postgres: upsert alias mapping")
}

func (s *PostgresStore) ReassignInventory(ctx context.Context, tenantID, fromProductID, toProductID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE inventory_ledger SET product_id = $1 WHERE tenant_id = $2 AND product_id = $3`,
		toProductID, tenantID, fromProductID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: reassign inventory")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) RefreshProductMetrics(ctx context.Context, tenantID, productID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET
		   total_revenue = COALESCE((SELECT SUM(s.revenue) FROM sales_records s
		                             WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name), 0),
		   total_orders  = (SELECT COUNT(*) FROM sales_records s
		                    WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name),
		   last_sale_at  = (SELECT MAX(s.sold_at) FROM sales_records s
		                    WHERE s.tenant_id = products.tenant_id AND s.product_name = products.name),
		   updated_at    = now()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, productID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: refresh product metrics %s", productID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperrors.ErrNotFound, "postgres: product %s", productID)
	}
	return nil
}

func (s *PostgresStore) AppendMergeAudit(ctx context.Context, e *model.MergeAuditEntry) (bool, error) {
	namesJSON, err := json.Marshal(e.SourceNames)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal audit source names")
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO merge_audit_log
		 (id, tenant_id, merge_type, source_names, canonical_name, confidence, reasoning,
		  records_affected, performed_by, can_undo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.TenantID, string(e.MergeType), namesJSON, e.CanonicalName, e.Confidence,
		e.Reasoning, e.RecordsAffected, e.PerformedBy, e.CanUndo, e.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: append merge audit")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ResolveAlias(ctx context.Context, tenantID, rawName string) (string, error) {
	var canonical string
	err := s.pool.QueryRow(ctx,
		`SELECT canonical_name FROM product_alias_mappings
		 WHERE tenant_id = $1 AND variant_name = $2 AND active`,
		tenantID, rawName,
	).Scan(&canonical)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rawName, nil
		}
		return "", eris.Wrap(err, "postgres: resolve alias")
	}
	return canonical, nil
}

func (s *PostgresStore) ListAliases(ctx context.Context, tenantID string, limit int) ([]model.ProductAliasMapping, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, variant_name, canonical_name, confidence, source, created_by, active, created_at, updated_at
		 FROM product_alias_mappings WHERE tenant_id = $1 AND active
		 ORDER BY updated_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list aliases")
	}
	defer rows.Close()

	var aliases []model.ProductAliasMapping
	for rows.Next() {
		var m model.ProductAliasMapping
		if err := rows.Scan(&m.ID, &m.TenantID, &m.VariantName, &m.CanonicalName, &m.Confidence,
			&m.Source, &m.CreatedBy, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alias")
		}
		aliases = append(aliases, m)
	}
	return aliases, eris.Wrap(rows.Err(), "postgres: list aliases iterate")
}

func (s *PostgresStore) ListMergeAudit(ctx context.Context, tenantID string, limit int) ([]model.MergeAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, merge_type, source_names, canonical_name, confidence, reasoning,
		        records_affected, performed_by, can_undo, created_at
		 FROM merge_audit_log WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list merge audit")
	}
	defer rows.Close()

	var entries []model.MergeAuditEntry
	for rows.Next() {
		var (
			e         model.MergeAuditEntry
			namesJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.MergeType, &namesJSON, &e.CanonicalName, &e.Confidence,
			&e.Reasoning, &e.RecordsAffected, &e.PerformedBy, &e.CanUndo, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan merge audit")
		}
		if err := json.Unmarshal(namesJSON, &e.SourceNames); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal audit source names")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list merge audit iterate")
}
