package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"

	"github.com/gojek/heimdall/v7"
	"github.com/samber/do"
)

// ServicePricing enforces the platform-wide price symmetry rule: every
// boost transaction settles at exactly one canonical UBX rate. All
// counters live for the process lifetime behind a single mutex.
type ServicePricing struct {
	container          *do.Injector
	rates              interfaces.RateSource
	backoff            heimdall.Backoff
	adminKey           string
	recoveryExitStreak int

	mu                  sync.Mutex
	canonicalRate       int64
	consecutiveFailures int
	totalFailures       int
	successStreak       int
	recoveryMode        bool
	lastValidation      time.Time
	overrideGrants      int
	auditLog            []*models.PriceOverrideAudit
}

func NewServicePricing(container *do.Injector) (*ServicePricing, error) {
	vs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	rates, err := do.Invoke[interfaces.RateSource](container)
	if err != nil {
		return nil, err
	}

	rate := int64(DEFAULT_CANONICAL_RATE)
	if vs[ENV_CANONICAL_RATE] != "" {
		rate, err = strconv.ParseInt(vs[ENV_CANONICAL_RATE], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ENV_CANONICAL_RATE, err)
		}
	}

	exitStreak := DEFAULT_RECOVERY_EXIT_STREAK
	if vs[ENV_RECOVERY_EXIT_STREAK] != "" {
		exitStreak, err = strconv.Atoi(vs[ENV_RECOVERY_EXIT_STREAK])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ENV_RECOVERY_EXIT_STREAK, err)
		}
	}

	service := newPricingWithRate(rate, vs[ENV_ADMIN_OVERRIDE_KEY], rates)
	service.container = container
	service.recoveryExitStreak = exitStreak
	return service, nil
}

func newPricingWithRate(rate int64, adminKey string, rates interfaces.RateSource) *ServicePricing {
	return &ServicePricing{
		rates:              rates,
		backoff:            heimdall.NewExponentialBackoff(100*time.Millisecond, 2*time.Second, 2.0, 50*time.Millisecond),
		adminKey:           adminKey,
		recoveryExitStreak: DEFAULT_RECOVERY_EXIT_STREAK,
		canonicalRate:      rate,
	}
}

// ValidateGlobalPrice checks the proposed price against the in-memory
// canonical rate. A mismatch is deterministic, never transient.
func (service *ServicePricing) ValidateGlobalPrice(ctx context.Context, price int64) error {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.validateLocked(price)
}

func (service *ServicePricing) validateLocked(price int64) error {
	if price != service.canonicalRate {
		service.consecutiveFailures++
		service.totalFailures++
		service.successStreak = 0
		if service.consecutiveFailures > RECOVERY_FAILURE_THRESHOLD && !service.recoveryMode {
			service.recoveryMode = true
			log.Println("pricing: entering recovery mode after", service.consecutiveFailures, "consecutive failures")
		}
		return fmt.Errorf("%w: got %d, canonical rate is %d", ErrPriceMismatch, price, service.canonicalRate)
	}

	service.consecutiveFailures = 0
	service.successStreak++
	service.lastValidation = time.Now()
	if service.recoveryMode && service.successStreak >= service.recoveryExitStreak {
		service.recoveryMode = false
		log.Println("pricing: recovery mode cleared after", service.successStreak, "consecutive successes")
	}
	return nil
}

// ValidateGlobalPriceWithRetry refreshes the canonical rate from its
// source before each check. Only lookup failures are retried; a price
// mismatch surfaces immediately.
func (service *ServicePricing) ValidateGlobalPriceWithRetry(ctx context.Context, price int64, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = PRICE_VALIDATION_MAX_ATTEMPTS
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(service.backoff.Next(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		rate, err := service.rates.CanonicalRate(ctx)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrRateLookup, err)
			log.Println("pricing: rate lookup failed on attempt", attempt+1, err)
			continue
		}

		service.mu.Lock()
		service.canonicalRate = rate
		err = service.validateLocked(price)
		service.mu.Unlock()
		return err
	}

	return lastErr
}

// AuthorizeAdmin compares the presented key against the configured
// secret. The key is never stored or logged.
func (service *ServicePricing) AuthorizeAdmin(adminKey string) error {
	if service.adminKey == "" || adminKey != service.adminKey {
		return ErrOverrideUnauthorized
	}
	return nil
}

// EmergencyOverride grants exactly one price-check exemption. The key is
// compared and discarded; only the reason is recorded.
func (service *ServicePricing) EmergencyOverride(adminKey string, reason string) error {
	if err := service.AuthorizeAdmin(adminKey); err != nil {
		log.Println("pricing: rejected override attempt with invalid admin key")
		return err
	}

	if strings.TrimSpace(reason) == "" {
		return ErrOverrideReasonRequired
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	service.overrideGrants++
	service.auditLog = append(service.auditLog, &models.PriceOverrideAudit{
		Reason: reason,
		At:     time.Now(),
	})
	log.Println("pricing: emergency override granted:", reason)

	return nil
}

// ConsumeOverride burns one override grant if available.
func (service *ServicePricing) ConsumeOverride() bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.overrideGrants > 0 {
		service.overrideGrants--
		return true
	}

	return false
}

func (service *ServicePricing) OverrideAudit() []*models.PriceOverrideAudit {
	service.mu.Lock()
	defer service.mu.Unlock()

	audit := make([]*models.PriceOverrideAudit, len(service.auditLog))
	copy(audit, service.auditLog)
	return audit
}

func (service *ServicePricing) InRecovery() bool {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.recoveryMode
}

func (service *ServicePricing) Health() *models.PriceSystemHealth {
	service.mu.Lock()
	defer service.mu.Unlock()

	return &models.PriceSystemHealth{
		Healthy:             service.consecutiveFailures <= RECOVERY_FAILURE_THRESHOLD,
		Failures:            service.totalFailures,
		ConsecutiveFailures: service.consecutiveFailures,
		LastValidationTime:  service.lastValidation,
		RecoveryMode:        service.recoveryMode,
	}
}

func (service *ServicePricing) CanonicalRate() int64 {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.canonicalRate
}

// Reset clears counters and the recovery latch. Ops/test action only;
// the audit log survives.
func (service *ServicePricing) Reset() {
	service.mu.Lock()
	defer service.mu.Unlock()

	service.consecutiveFailures = 0
	service.totalFailures = 0
	service.successStreak = 0
	service.recoveryMode = false
	service.overrideGrants = 0
}
