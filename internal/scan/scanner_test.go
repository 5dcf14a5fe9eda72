package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/barstream/catalog-dedupe/internal/apperrors"
	"github.com/barstream/catalog-dedupe/internal/match"
	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/parse"
	"github.com/barstream/catalog-dedupe/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeStore struct {
	store.Store

	products []model.Product
	existing map[string]bool // "a|b" canonical pair keys
	// raced pairs pass the existence check but lose the insert, as if
	// another scan inserted them in between.
	raced    map[string]bool
	inserted []model.DuplicateCandidate
	runs     map[string]*model.ScanRun

	listErr     error
	insertErr   error
	completeErr error
}

func newFakeStore(products ...model.Product) *fakeStore {
	return &fakeStore{
		products: products,
		existing: map[string]bool{},
		raced:    map[string]bool{},
		runs:     map[string]*model.ScanRun{},
	}
}

func pairKey(a, b string) string {
	a, b = model.OrderPair(a, b)
	return a + "|" + b
}

func (f *fakeStore) ListProductsByRevenue(_ context.Context, tenantID string, limit int) ([]model.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Product
	for _, p := range f.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CandidateExists(_ context.Context, _, aID, bID string) (bool, error) {
	return f.existing[pairKey(aID, bID)], nil
}

func (f *fakeStore) InsertCandidates(_ context.Context, candidates []model.DuplicateCandidate) ([]string, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	var ids []string
	for _, c := range candidates {
		key := pairKey(c.ProductAID, c.ProductBID)
		if f.existing[key] || f.raced[key] {
			continue
		}
		f.existing[key] = true
		f.inserted = append(f.inserted, c)
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeStore) CreateScanRun(_ context.Context, tenantID string) (*model.ScanRun, error) {
	run := &model.ScanRun{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		StartedAt: time.Now().UTC(),
		Status:    model.ScanStatusRunning,
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeStore) CompleteScanRun(_ context.Context, run *model.ScanRun) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	stored := f.runs[run.ID]
	*stored = *run
	stored.Status = model.ScanStatusCompleted
	return nil
}

func (f *fakeStore) FailScanRun(_ context.Context, scanID string, cause error) error {
	run, ok := f.runs[scanID]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = model.ScanStatusFailed
	if cause != nil {
		run.Error = cause.Error()
	}
	return nil
}

func product(id, name string, revenue float64) model.Product {
	return model.Product{ID: id, TenantID: "tenant-1", Name: name, TotalRevenue: revenue}
}

func newTestScanner(f *fakeStore, opts ...ScannerOption) *Scanner {
	return NewScanner(f, match.New(parse.New(), match.DefaultConfig()), opts...)
}

func TestScanner_Run_FindsDuplicatePair(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 120),
		product("prod-3", "Corona Extra 12 Pack Bottles", 400),
	)
	s := newTestScanner(f)

	sum, err := s.Run(context.Background(), "tenant-1", Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.ProductsScanned)
	assert.Equal(t, 1, sum.CandidatesFound)
	assert.Equal(t, 1, sum.HighConfidenceCount)
	assert.GreaterOrEqual(t, sum.DurationSeconds, 0.0)

	require.Len(t, f.inserted, 1)
	cand := f.inserted[0]
	assert.Equal(t, model.CandidateStatusPending, cand.Status)
	assert.GreaterOrEqual(t, cand.Confidence, 0.90)
	// Pair is stored in canonical order.
	assert.Less(t, cand.ProductAID, cand.ProductBID)

	run := f.runs[sum.ScanID]
	assert.Equal(t, model.ScanStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
}

func TestScanner_Run_SkipsExistingCandidates(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 120),
	)
	f.existing[pairKey("prod-1", "prod-2")] = true
	s := newTestScanner(f)

	sum, err := s.Run(context.Background(), "tenant-1", Options{})
	require.NoError(t, err)
	assert.Zero(t, sum.CandidatesFound)
	assert.Empty(t, f.inserted)
}

func TestScanner_Run_RacedPairDoesNotInflateCounts(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 600),
		product("prod-3", "Corona Extra 12pk 12oz", 400),
		product("prod-4", "Corona Extra 12 pk 12 oz", 120),
	)
	// A concurrent scan claims the Tito's pair after the existence check.
	f.raced[pairKey("prod-1", "prod-2")] = true
	s := newTestScanner(f)

	sum, err := s.Run(context.Background(), "tenant-1", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.CandidatesFound)
	assert.Equal(t, 1, sum.HighConfidenceCount)
	require.Len(t, f.inserted, 1)
	assert.Equal(t, "prod-3", f.inserted[0].ProductAID)
}

func TestScanner_Run_ThresholdFiltersWeakPairs(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Handmade Vodka 750ml", 900),
		product("prod-2", "Corona Extra 12 Pack Bottles", 400),
	)
	s := newTestScanner(f)

	sum, err := s.Run(context.Background(), "tenant-1", Options{})
	require.NoError(t, err)
	assert.Zero(t, sum.CandidatesFound)
	assert.Zero(t, sum.HighConfidenceCount)
}

func TestScanner_Run_MaxProductsCap(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 120),
		product("prod-3", "Titos Vodka 750ml", 50),
	)
	s := newTestScanner(f)

	// Cap of 2 keeps only the top two by revenue; the third product never
	// enters the pair loop.
	sum, err := s.Run(context.Background(), "tenant-1", Options{MaxProducts: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ProductsScanned)
	assert.Equal(t, 1, sum.CandidatesFound)
}

func TestScanner_Run_Validation(t *testing.T) {
	s := newTestScanner(newFakeStore())
	ctx := context.Background()

	_, err := s.Run(ctx, "", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = s.Run(ctx, "tenant-1", Options{MinConfidence: 1.5})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = s.Run(ctx, "tenant-1", Options{MaxProducts: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestScanner_Run_FetchFailureMarksRunFailed(t *testing.T) {
	f := newFakeStore()
	f.listErr = errors.New("conn closed")
	s := newTestScanner(f)

	_, err := s.Run(context.Background(), "tenant-1", Options{})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	run := f.runs[runErr.ScanID]
	require.NotNil(t, run)
	assert.Equal(t, model.ScanStatusFailed, run.Status)
	assert.Contains(t, run.Error, "conn closed")
}

func TestScanner_Run_PersistFailureMarksRunFailed(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 120),
	)
	f.insertErr = errors.New("disk full")
	s := newTestScanner(f)

	_, err := s.Run(context.Background(), "tenant-1", Options{})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, model.ScanStatusFailed, f.runs[runErr.ScanID].Status)
}

func TestScanner_Run_CancellationNeverLeavesRunRunning(t *testing.T) {
	f := newFakeStore(
		product("prod-1", "Tito's Vodka 750ml", 900),
		product("prod-2", "Titos Vodka 750 ml", 120),
	)
	s := newTestScanner(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, "tenant-1", Options{})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.ScanStatusFailed, f.runs[runErr.ScanID].Status)
}
