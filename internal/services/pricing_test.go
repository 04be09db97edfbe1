package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPricing(rate int64) *ServicePricing {
	return newPricingWithRate(rate, "test-admin-key", &staticRateSource{rate: rate})
}

func TestValidateGlobalPriceExactMatch(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	require.NoError(t, service.ValidateGlobalPrice(ctx, 1000))

	for _, price := range []int64{999, 1001, 0, -1000} {
		err := service.ValidateGlobalPrice(ctx, price)
		assert.ErrorIs(t, err, ErrPriceMismatch, "price %d", price)
	}
}

func TestValidateGlobalPriceFailureThreshold(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	for i := 0; i < RECOVERY_FAILURE_THRESHOLD; i++ {
		require.ErrorIs(t, service.ValidateGlobalPrice(ctx, 1), ErrPriceMismatch)
	}

	health := service.Health()
	assert.True(t, health.Healthy)
	assert.False(t, health.RecoveryMode)
	assert.Equal(t, RECOVERY_FAILURE_THRESHOLD, health.ConsecutiveFailures)

	// one more tips it over
	require.ErrorIs(t, service.ValidateGlobalPrice(ctx, 1), ErrPriceMismatch)

	health = service.Health()
	assert.False(t, health.Healthy)
	assert.True(t, health.RecoveryMode)
	assert.True(t, service.InRecovery())
}

func TestRecoveryModeClearsAfterSuccessStreak(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	for i := 0; i <= RECOVERY_FAILURE_THRESHOLD; i++ {
		require.Error(t, service.ValidateGlobalPrice(ctx, 1))
	}
	require.True(t, service.InRecovery())

	for i := 0; i < DEFAULT_RECOVERY_EXIT_STREAK-1; i++ {
		require.NoError(t, service.ValidateGlobalPrice(ctx, 1000))
		assert.True(t, service.InRecovery())
	}

	require.NoError(t, service.ValidateGlobalPrice(ctx, 1000))
	assert.False(t, service.InRecovery())

	health := service.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.ConsecutiveFailures)
	// total failures are cumulative, recovery does not erase them
	assert.Equal(t, RECOVERY_FAILURE_THRESHOLD+1, health.Failures)
	assert.False(t, health.LastValidationTime.IsZero())
}

func TestValidateWithRetryRecoversFromTransientFaults(t *testing.T) {
	ctx := context.Background()

	flaky := &flakyRateSource{rate: 1000, failures: 2}
	service := newPricingWithRate(1000, "test-admin-key", flaky)

	err := service.ValidateGlobalPriceWithRetry(ctx, 1000, PRICE_VALIDATION_MAX_ATTEMPTS)
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)

	// transient faults never touch the failure counters
	health := service.Health()
	assert.Equal(t, 0, health.ConsecutiveFailures)
	assert.Equal(t, 0, health.Failures)
}

func TestValidateWithRetryExhaustsAttempts(t *testing.T) {
	ctx := context.Background()

	flaky := &flakyRateSource{rate: 1000, failures: 10}
	service := newPricingWithRate(1000, "test-admin-key", flaky)

	err := service.ValidateGlobalPriceWithRetry(ctx, 1000, PRICE_VALIDATION_MAX_ATTEMPTS)
	require.ErrorIs(t, err, ErrRateLookup)
	assert.Equal(t, PRICE_VALIDATION_MAX_ATTEMPTS, flaky.calls)
}

func TestValidateWithRetryMismatchIsNotRetried(t *testing.T) {
	ctx := context.Background()

	counting := &flakyRateSource{rate: 1000}
	service := newPricingWithRate(1000, "test-admin-key", counting)

	err := service.ValidateGlobalPriceWithRetry(ctx, 999, PRICE_VALIDATION_MAX_ATTEMPTS)
	require.ErrorIs(t, err, ErrPriceMismatch)
	assert.Equal(t, 1, counting.calls)
}

func TestValidateWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flaky := &flakyRateSource{rate: 1000, failures: 10}
	service := newPricingWithRate(1000, "test-admin-key", flaky)

	err := service.ValidateGlobalPriceWithRetry(ctx, 1000, PRICE_VALIDATION_MAX_ATTEMPTS)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, flaky.calls)
}

func TestEmergencyOverride(t *testing.T) {
	service := newTestPricing(1000)

	err := service.EmergencyOverride("wrong-key", "incident 42")
	require.ErrorIs(t, err, ErrOverrideUnauthorized)

	err = service.EmergencyOverride("test-admin-key", "   ")
	require.ErrorIs(t, err, ErrOverrideReasonRequired)

	require.NoError(t, service.EmergencyOverride("test-admin-key", "incident 42"))

	assert.True(t, service.ConsumeOverride())
	assert.False(t, service.ConsumeOverride(), "a grant is single-use")

	audit := service.OverrideAudit()
	require.Len(t, audit, 1)
	assert.Equal(t, "incident 42", audit[0].Reason)
	assert.False(t, audit[0].At.IsZero())
}

func TestResetClearsCountersButKeepsAudit(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	for i := 0; i <= RECOVERY_FAILURE_THRESHOLD; i++ {
		require.Error(t, service.ValidateGlobalPrice(ctx, 1))
	}
	require.NoError(t, service.EmergencyOverride("test-admin-key", "pre-reset"))

	service.Reset()

	health := service.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.Failures)
	assert.False(t, health.RecoveryMode)
	assert.False(t, service.ConsumeOverride(), "reset revokes pending grants")
	assert.Len(t, service.OverrideAudit(), 1)
}

func TestValidateGlobalPriceConcurrent(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = service.ValidateGlobalPrice(ctx, 1000)
		}()
	}
	wg.Wait()

	health := service.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.ConsecutiveFailures)
}

func TestRunSelfTest(t *testing.T) {
	ctx := context.Background()
	service := newTestPricing(1000)

	report := service.RunSelfTest(ctx)
	require.NotNil(t, report)

	for _, result := range report.Results {
		assert.True(t, result.Passed, "%s: %s", result.Test, result.Message)
	}
	assert.True(t, report.Success)
	assert.Len(t, report.Results, 9)
	assert.False(t, report.RanAt.IsZero())

	// the sandbox must not leak into the live validator
	health := service.Health()
	assert.Equal(t, 0, health.Failures)
	assert.False(t, service.ConsumeOverride())
}
