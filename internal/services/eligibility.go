package services

import (
	"context"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"

	"github.com/samber/do"
)

// ServiceEligibility answers whether a profile may start another boost.
// It only looks at purchase history; the "one active boost" rule is
// owned by ServiceBoost so there is a single source of truth for it.
type ServiceEligibility struct {
	container *do.Injector
	boosts    interfaces.BoostStore
}

func NewServiceEligibility(container *do.Injector) (*ServiceEligibility, error) {
	boosts, err := do.Invoke[interfaces.BoostStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceEligibility{container, boosts}, nil
}

func (service *ServiceEligibility) CheckBoostEligibility(ctx context.Context, profileID string) (*models.EligibilityDecision, error) {
	count, err := service.boosts.CountStartedSince(ctx, profileID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	if count >= DAILY_BOOST_LIMIT {
		return &models.EligibilityDecision{
			Eligible: false,
			Reasons:  []string{MSG_DAILY_LIMIT_REACHED},
		}, nil
	}

	return &models.EligibilityDecision{Eligible: true}, nil
}
