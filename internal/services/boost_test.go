package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"
	"spotlight/internal/pkg/caching"

	"github.com/go-redis/cache/v9"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoostStore struct {
	mu     sync.Mutex
	boosts []*models.ActiveBoost
}

func (store *fakeBoostStore) InsertActive(ctx context.Context, boost *models.ActiveBoost) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, b := range store.boosts {
		if b.ProfileID == boost.ProfileID && b.Status == models.BOOST_STATUS_ACTIVE {
			return false, nil
		}
	}

	store.boosts = append(store.boosts, boost)
	return true, nil
}

func (store *fakeBoostStore) FindActive(ctx context.Context, profileID string) (*models.ActiveBoost, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, b := range store.boosts {
		if b.ProfileID == profileID && b.Status == models.BOOST_STATUS_ACTIVE {
			return b, nil
		}
	}

	return nil, nil
}

func (store *fakeBoostStore) MarkStatus(ctx context.Context, id string, from string, to string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, b := range store.boosts {
		if b.ID == id && b.Status == from {
			b.Status = to
			return true, nil
		}
	}

	return false, nil
}

func (store *fakeBoostStore) CountStartedSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, b := range store.boosts {
		if b.ProfileID == profileID && !b.StartTime.Before(since) {
			count++
		}
	}

	return count, nil
}

func (store *fakeBoostStore) seed(boost *models.ActiveBoost) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.boosts = append(store.boosts, boost)
}

func (store *fakeBoostStore) byID(id string) *models.ActiveBoost {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, b := range store.boosts {
		if b.ID == id {
			return b
		}
	}

	return nil
}

type fakePackageStore struct {
	packages map[string]*models.BoostPackage
}

func (store *fakePackageStore) Find(ctx context.Context, id string) (*models.BoostPackage, error) {
	pkg, ok := store.packages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return pkg, nil
}

func (store *fakePackageStore) List(ctx context.Context) ([]*models.BoostPackage, error) {
	var pkgs []*models.BoostPackage
	for _, pkg := range store.packages {
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

type fakeLedgerStore struct {
	mu      sync.Mutex
	entries []*models.LedgerEntry
}

func (store *fakeLedgerStore) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.entries = append(store.entries, entry)
	return nil
}

// missCache never hits so every read goes to the backing store.
type missCache struct{}

func (missCache) Get(ctx context.Context, key string, target any) error {
	return cache.ErrCacheMiss
}

func (missCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (missCache) Delete(ctx context.Context, key string) error {
	return nil
}

type boostFixture struct {
	boosts   *fakeBoostStore
	packages *fakePackageStore
	ledger   *fakeLedgerStore
	pricing  *ServicePricing
	service  *ServiceBoost
}

func newBoostFixture(t *testing.T) *boostFixture {
	t.Helper()

	boosts := &fakeBoostStore{}
	packages := &fakePackageStore{packages: map[string]*models.BoostPackage{
		"boost-1h": {
			ID:              "boost-1h",
			Name:            "Spotlight 1h",
			DurationMinutes: 60,
			Price:           1000,
		},
		"boost-overpriced": {
			ID:              "boost-overpriced",
			Name:            "Spotlight Overpriced",
			DurationMinutes: 60,
			Price:           1500,
		},
	}}
	ledger := &fakeLedgerStore{}

	injector := do.New()
	do.ProvideNamedValue(injector, "envs", map[string]string{
		ENV_ADMIN_OVERRIDE_KEY: "test-admin-key",
		ENV_CANONICAL_RATE:     "1000",
	})
	do.ProvideValue[interfaces.BoostStore](injector, boosts)
	do.ProvideValue[interfaces.BoostPackageStore](injector, packages)
	do.ProvideValue[interfaces.LedgerStore](injector, ledger)
	do.ProvideValue[interfaces.RateSource](injector, &staticRateSource{rate: 1000})
	do.ProvideValue[caching.Cache](injector, missCache{})
	do.Provide(injector, NewServicePricing)
	do.Provide(injector, NewServiceEligibility)
	do.Provide(injector, NewServiceLedger)
	do.Provide(injector, NewServiceBoost)

	pricing, err := do.Invoke[*ServicePricing](injector)
	require.NoError(t, err)

	service, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	return &boostFixture{boosts, packages, ledger, pricing, service}
}

func TestPurchaseBoostSuccess(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
	require.True(t, result.Success, result.Message)

	boost, err := f.boosts.FindActive(ctx, "profile-1")
	require.NoError(t, err)
	require.NotNil(t, boost)
	assert.Equal(t, "boost-1h", boost.PackageID)
	assert.Equal(t, "Spotlight 1h", boost.SnapshotName)
	assert.Equal(t, int64(1000), boost.SnapshotPrice)
	assert.WithinDuration(t, boost.StartTime.Add(time.Hour), boost.EndTime, time.Second)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, int64(-1000), f.ledger.entries[0].Amount)
	assert.Equal(t, "profile-1", f.ledger.entries[0].ProfileID)
}

func TestPurchaseBoostRejectsSecondActive(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	require.True(t, f.service.PurchaseBoost(ctx, "profile-1", "boost-1h").Success)

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_ALREADY_ACTIVE, result.Message)
}

func TestPurchaseBoostUnknownPackage(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	result := f.service.PurchaseBoost(ctx, "profile-1", "no-such-package")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_PACKAGE_NOT_FOUND, result.Message)
}

func TestPurchaseBoostPriceMismatchHaltsTransaction(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-overpriced")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_PRICE_INCONSISTENT, result.Message)

	boost, err := f.boosts.FindActive(ctx, "profile-1")
	require.NoError(t, err)
	assert.Nil(t, boost, "no record may exist after a halted transaction")
	assert.Empty(t, f.ledger.entries)
}

func TestPurchaseBoostDailyLimit(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	now := time.Now()
	for i := 0; i < DAILY_BOOST_LIMIT; i++ {
		f.boosts.seed(&models.ActiveBoost{
			ID:        uuid.NewString(),
			ProfileID: "profile-1",
			StartTime: now.Add(-time.Duration(i+1) * time.Hour),
			EndTime:   now.Add(-time.Duration(i) * time.Hour),
			Status:    models.BOOST_STATUS_EXPIRED,
		})
	}

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_DAILY_LIMIT_REACHED, result.Message)
}

func TestPurchaseBoostOldHistoryDoesNotCount(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	for i := 0; i < DAILY_BOOST_LIMIT; i++ {
		f.boosts.seed(&models.ActiveBoost{
			ID:        uuid.NewString(),
			ProfileID: "profile-1",
			StartTime: time.Now().Add(-48 * time.Hour),
			EndTime:   time.Now().Add(-47 * time.Hour),
			Status:    models.BOOST_STATUS_EXPIRED,
		})
	}

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
	assert.True(t, result.Success, result.Message)
}

func TestPurchaseBoostOverrideBypassesPriceCheck(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	require.NoError(t, f.pricing.EmergencyOverride("test-admin-key", "incident 42"))

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-overpriced")
	assert.True(t, result.Success, result.Message)

	// the exemption is single-use
	result = f.service.PurchaseBoost(ctx, "profile-2", "boost-overpriced")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_PRICE_INCONSISTENT, result.Message)
}

func TestPurchaseBoostConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []*models.PurchaseResult

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	wins := 0
	for _, result := range results {
		if result.Success {
			wins++
		} else {
			assert.Equal(t, MSG_ALREADY_ACTIVE, result.Message)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent purchase may win")
}

func TestFetchActiveBoostView(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	require.True(t, f.service.PurchaseBoost(ctx, "profile-1", "boost-1h").Success)

	view, err := f.service.FetchActiveBoost(ctx, "profile-1")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "Spotlight 1h", view.PackageName)
	assert.Equal(t, int64(1000), view.Price)
	assert.NotEqual(t, "Expired", view.RemainingTime)
	assert.GreaterOrEqual(t, view.Progress, 0)
	assert.Less(t, view.Progress, 100)
}

func TestFetchActiveBoostNone(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	view, err := f.service.FetchActiveBoost(ctx, "profile-1")
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestFetchActiveBoostLazyExpiry(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	id := uuid.NewString()
	f.boosts.seed(&models.ActiveBoost{
		ID:        id,
		ProfileID: "profile-1",
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
		Status:    models.BOOST_STATUS_ACTIVE,
	})

	view, err := f.service.FetchActiveBoost(ctx, "profile-1")
	require.NoError(t, err)
	assert.Nil(t, view)
	assert.Equal(t, models.BOOST_STATUS_EXPIRED, f.boosts.byID(id).Status)

	// the second read finds nothing and writes nothing
	view, err = f.service.FetchActiveBoost(ctx, "profile-1")
	require.NoError(t, err)
	assert.Nil(t, view)
	assert.Equal(t, models.BOOST_STATUS_EXPIRED, f.boosts.byID(id).Status)
}

func TestCancelBoost(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	result := f.service.CancelBoost(ctx, "profile-1")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_NO_ACTIVE_BOOST, result.Message)

	require.True(t, f.service.PurchaseBoost(ctx, "profile-1", "boost-1h").Success)

	result = f.service.CancelBoost(ctx, "profile-1")
	assert.True(t, result.Success)

	boost, err := f.boosts.FindActive(ctx, "profile-1")
	require.NoError(t, err)
	assert.Nil(t, boost)

	// cancelled is terminal, a repeat cancel finds nothing
	result = f.service.CancelBoost(ctx, "profile-1")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_NO_ACTIVE_BOOST, result.Message)
}

func TestCancelBoostSettlesOverdueAsExpired(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	id := uuid.NewString()
	f.boosts.seed(&models.ActiveBoost{
		ID:        id,
		ProfileID: "profile-1",
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
		Status:    models.BOOST_STATUS_ACTIVE,
	})

	result := f.service.CancelBoost(ctx, "profile-1")
	assert.False(t, result.Success)
	assert.Equal(t, MSG_NO_ACTIVE_BOOST, result.Message)
	assert.Equal(t, models.BOOST_STATUS_EXPIRED, f.boosts.byID(id).Status)
}

func TestCancelThenRepurchase(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture(t)

	require.True(t, f.service.PurchaseBoost(ctx, "profile-1", "boost-1h").Success)
	require.True(t, f.service.CancelBoost(ctx, "profile-1").Success)

	result := f.service.PurchaseBoost(ctx, "profile-1", "boost-1h")
	assert.True(t, result.Success, result.Message)
}

func TestCalculateRemainingTime(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		end  time.Time
		want string
	}{
		{"expired", now.Add(-time.Minute), "Expired"},
		{"exactly now", now, "Expired"},
		{"minutes only", now.Add(15 * time.Minute), "15m"},
		{"hours and minutes", now.Add(2*time.Hour + 15*time.Minute), "2h 15m"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateRemainingTime(tc.end, now))
		})
	}
}

func TestCalculateProgress(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"at start", now, now.Add(time.Hour), 0},
		{"halfway", now.Add(-30 * time.Minute), now.Add(30 * time.Minute), 50},
		{"at end", now.Add(-time.Hour), now, 100},
		{"past end", now.Add(-2 * time.Hour), now.Add(-time.Hour), 100},
		{"zero-length window", now, now, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateProgress(tc.start, tc.end, now))
		})
	}
}
