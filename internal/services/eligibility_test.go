package services

import (
	"context"
	"testing"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEligibilityFixture(t *testing.T) (*fakeBoostStore, *ServiceEligibility) {
	t.Helper()

	boosts := &fakeBoostStore{}

	injector := do.New()
	do.ProvideValue[interfaces.BoostStore](injector, boosts)
	do.Provide(injector, NewServiceEligibility)

	service, err := do.Invoke[*ServiceEligibility](injector)
	require.NoError(t, err)

	return boosts, service
}

func seedHistory(boosts *fakeBoostStore, profileID string, count int, startedAgo time.Duration) {
	for i := 0; i < count; i++ {
		boosts.seed(&models.ActiveBoost{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			StartTime: time.Now().Add(-startedAgo),
			EndTime:   time.Now().Add(-startedAgo).Add(time.Hour),
			Status:    models.BOOST_STATUS_EXPIRED,
		})
	}
}

func TestCheckBoostEligibilityUnderLimit(t *testing.T) {
	ctx := context.Background()
	boosts, service := newEligibilityFixture(t)

	seedHistory(boosts, "profile-1", DAILY_BOOST_LIMIT-1, 2*time.Hour)

	decision, err := service.CheckBoostEligibility(ctx, "profile-1")
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Empty(t, decision.Reasons)
}

func TestCheckBoostEligibilityAtLimit(t *testing.T) {
	ctx := context.Background()
	boosts, service := newEligibilityFixture(t)

	seedHistory(boosts, "profile-1", DAILY_BOOST_LIMIT, 2*time.Hour)

	decision, err := service.CheckBoostEligibility(ctx, "profile-1")
	require.NoError(t, err)
	assert.False(t, decision.Eligible)
	assert.Equal(t, []string{MSG_DAILY_LIMIT_REACHED}, decision.Reasons)
}

func TestCheckBoostEligibilityWindowSlides(t *testing.T) {
	ctx := context.Background()
	boosts, service := newEligibilityFixture(t)

	// old purchases have aged out of the 24h window
	seedHistory(boosts, "profile-1", DAILY_BOOST_LIMIT, 25*time.Hour)
	seedHistory(boosts, "profile-1", 1, time.Hour)

	decision, err := service.CheckBoostEligibility(ctx, "profile-1")
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
}

func TestCheckBoostEligibilityCountsAllStatuses(t *testing.T) {
	ctx := context.Background()
	boosts, service := newEligibilityFixture(t)

	// cancelled boosts still burn a daily slot
	now := time.Now()
	for i := 0; i < DAILY_BOOST_LIMIT; i++ {
		boosts.seed(&models.ActiveBoost{
			ID:        uuid.NewString(),
			ProfileID: "profile-1",
			StartTime: now.Add(-time.Duration(i+1) * time.Hour),
			EndTime:   now.Add(time.Hour),
			Status:    models.BOOST_STATUS_CANCELLED,
		})
	}

	decision, err := service.CheckBoostEligibility(ctx, "profile-1")
	require.NoError(t, err)
	assert.False(t, decision.Eligible)
}
