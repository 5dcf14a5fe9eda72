package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/barstream/catalog-dedupe/internal/match"
	"github.com/barstream/catalog-dedupe/internal/merge"
	"github.com/barstream/catalog-dedupe/internal/parse"
	"github.com/barstream/catalog-dedupe/internal/resilience"
	"github.com/barstream/catalog-dedupe/internal/review"
	"github.com/barstream/catalog-dedupe/internal/scan"
	"github.com/barstream/catalog-dedupe/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dedupe.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func matchConfig() match.Config {
	return match.Config{
		BrandWeight:            cfg.Match.BrandWeight,
		VolumeWeight:           cfg.Match.VolumeWeight,
		TokenWeight:            cfg.Match.TokenWeight,
		BrandReasonThreshold:   cfg.Match.BrandReasonThreshold,
		OverlapReasonThreshold: cfg.Match.OverlapReasonThreshold,
	}
}

func newScanner(st store.Store) (*scan.Scanner, error) {
	mc := matchConfig()
	if err := match.ValidateConfig(mc); err != nil {
		return nil, err
	}
	scorer := match.New(parse.New(), mc)
	return scan.NewScanner(st, scorer, scan.WithPairRate(cfg.Scan.PairsPerSecond)), nil
}

func mergeRetry() resilience.RetryConfig {
	return resilience.FromRetryConfig(
		cfg.Merge.MaxAttempts,
		cfg.Merge.InitialBackoffMs,
		cfg.Merge.MaxBackoffMs,
		cfg.Merge.Multiplier,
		cfg.Merge.JitterFraction,
	)
}

func newWorkflow(st store.Store) *review.Workflow {
	return review.NewWorkflow(st, merge.NewExecutor(st, mergeRetry()))
}
