package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"spotlight/internal/datastore"
	"spotlight/internal/interfaces"
	"spotlight/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// CanonicalRateSource resolves the canonical UBX rate from the config
// table so ops can move it without a redeploy. A missing row falls back
// to the configured default; any other failure is surfaced so callers
// can treat it as transient.
type CanonicalRateSource struct {
	container          *do.Injector
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache

	defaultRate int64
}

var _ interfaces.RateSource = (*CanonicalRateSource)(nil)

func NewCanonicalRateSource(container *do.Injector) (*CanonicalRateSource, error) {
	vs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	defaultRate := int64(DEFAULT_CANONICAL_RATE)
	if vs[ENV_CANONICAL_RATE] != "" {
		defaultRate, err = strconv.ParseInt(vs[ENV_CANONICAL_RATE], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ENV_CANONICAL_RATE, err)
		}
	}

	return &CanonicalRateSource{container, readonlyPostgresDB, cache, readonlyCache, defaultRate}, nil
}

func (source *CanonicalRateSource) CanonicalRate(ctx context.Context) (int64, error) {
	callback := func() (int64, error) {
		config, err := datastore.GetConfigByKey(ctx, source.readonlyPostgresDB, CONFIG_CANONICAL_RATE)
		if err != nil {
			return 0, err
		}

		return strconv.ParseInt(config.Value, 10, 64)
	}

	rate, err := caching.UseCacheWithRO(ctx, source.readonlyCache, source.cache, DBKeyConfig(CONFIG_CANONICAL_RATE), CACHE_TTL_1_MIN, callback)
	if errors.Is(err, sql.ErrNoRows) {
		return source.defaultRate, nil
	}
	if err != nil {
		return 0, err
	}

	return rate, nil
}
