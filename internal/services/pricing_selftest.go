package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spotlight/internal/models"
)

const selfTestAdminKey = "self-test-override-key"

// staticRateSource always resolves the same rate.
type staticRateSource struct {
	rate int64
}

func (s *staticRateSource) CanonicalRate(ctx context.Context) (int64, error) {
	return s.rate, nil
}

// flakyRateSource fails a fixed number of lookups before recovering,
// counting every call.
type flakyRateSource struct {
	rate     int64
	failures int
	calls    int
}

func (s *flakyRateSource) CanonicalRate(ctx context.Context) (int64, error) {
	s.calls++
	if s.calls <= s.failures {
		return 0, errors.New("simulated rate lookup outage")
	}
	return s.rate, nil
}

// RunSelfTest exercises the validation paths against a sandboxed
// validator seeded with the live canonical rate. Production counters,
// grants and the audit log are never touched.
func (service *ServicePricing) RunSelfTest(ctx context.Context) *models.SelfTestReport {
	rate := service.CanonicalRate()

	report := &models.SelfTestReport{RanAt: time.Now()}
	record := func(test string, passed bool, message string) {
		report.Results = append(report.Results, &models.SelfTestResult{Test: test, Passed: passed, Message: message})
	}

	sandbox := newPricingWithRate(rate, selfTestAdminKey, &staticRateSource{rate: rate})

	err := sandbox.ValidateGlobalPrice(ctx, rate)
	record("valid price accepted", err == nil, messageOf(err))

	err = sandbox.ValidateGlobalPrice(ctx, rate+1)
	record("price off by one rejected", errors.Is(err, ErrPriceMismatch), messageOf(err))

	err = sandbox.ValidateGlobalPrice(ctx, 0)
	record("zero price rejected", errors.Is(err, ErrPriceMismatch), messageOf(err))

	err = sandbox.ValidateGlobalPrice(ctx, -rate)
	record("negative price rejected", errors.Is(err, ErrPriceMismatch), messageOf(err))

	flaky := &flakyRateSource{rate: rate, failures: 2}
	retrySandbox := newPricingWithRate(rate, selfTestAdminKey, flaky)
	err = retrySandbox.ValidateGlobalPriceWithRetry(ctx, rate, PRICE_VALIDATION_MAX_ATTEMPTS)
	record("retry recovers from transient lookup faults", err == nil && flaky.calls == 3, messageOf(err))

	counting := &flakyRateSource{rate: rate}
	mismatchSandbox := newPricingWithRate(rate, selfTestAdminKey, counting)
	err = mismatchSandbox.ValidateGlobalPriceWithRetry(ctx, rate+1, PRICE_VALIDATION_MAX_ATTEMPTS)
	record("mismatch is never retried", errors.Is(err, ErrPriceMismatch) && counting.calls == 1, messageOf(err))

	err = sandbox.EmergencyOverride(selfTestAdminKey, "")
	record("override without reason rejected", errors.Is(err, ErrOverrideReasonRequired), messageOf(err))

	err = sandbox.EmergencyOverride("wrong-key", "self test")
	record("override with wrong key rejected", errors.Is(err, ErrOverrideUnauthorized), messageOf(err))

	err = sandbox.EmergencyOverride(selfTestAdminKey, "self test exemption")
	granted := err == nil && sandbox.ConsumeOverride() && !sandbox.ConsumeOverride()
	record("override grants a single exemption", granted, messageOf(err))

	report.Success = true
	for _, result := range report.Results {
		if !result.Passed {
			report.Success = false
			break
		}
	}

	return report
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
