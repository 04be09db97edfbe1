package interfaces

import (
	"context"
	"time"

	"spotlight/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// RateSource resolves the canonical UBX rate. Lookup failures are
// transient and safe to retry; they never mean the rate changed.
type RateSource interface {
	CanonicalRate(ctx context.Context) (int64, error)
}

type BoostStore interface {
	// InsertActive reports false when the profile already holds an
	// active boost; the conflict is decided atomically by the store.
	InsertActive(ctx context.Context, boost *models.ActiveBoost) (bool, error)
	FindActive(ctx context.Context, profileID string) (*models.ActiveBoost, error)
	// MarkStatus flips a record from one status to another and reports
	// whether a row actually changed.
	MarkStatus(ctx context.Context, id string, from string, to string) (bool, error)
	CountStartedSince(ctx context.Context, profileID string, since time.Time) (int, error)
}

type BoostPackageStore interface {
	Find(ctx context.Context, id string) (*models.BoostPackage, error)
	List(ctx context.Context) ([]*models.BoostPackage, error)
}

type LedgerStore interface {
	Insert(ctx context.Context, entry *models.LedgerEntry) error
}

// UpliftEstimator hides the synthesized figures behind a stable contract
// so a historical-comparison engine can replace them without touching
// callers.
type UpliftEstimator interface {
	Estimate(ctx context.Context, profileID string) (*models.BoostEstimate, error)
}
