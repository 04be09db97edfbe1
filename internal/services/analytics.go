package services

import (
	"context"
	"hash/fnv"
	"math/rand"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"

	"github.com/mroth/weightedrand/v2"
	"github.com/samber/do"
)

// ServiceAnalytics synthesizes uplift figures for an active boost. The
// numbers are placeholders seeded per boost so repeated reads look
// stable; a historical-comparison engine can replace this behind the
// same interface.
type ServiceAnalytics struct {
	container    *do.Injector
	serviceBoost *ServiceBoost

	rankChooser *weightedrand.Chooser[int, int]
}

var _ interfaces.UpliftEstimator = (*ServiceAnalytics)(nil)

func NewServiceAnalytics(container *do.Injector) (*ServiceAnalytics, error) {
	serviceBoost, err := do.Invoke[*ServiceBoost](container)
	if err != nil {
		return nil, err
	}

	// boosted search rank tiers, heavily weighted toward the top
	rankChooser, err := weightedrand.NewChooser(
		weightedrand.NewChoice(1, 4),
		weightedrand.NewChoice(2, 3),
		weightedrand.NewChoice(3, 2),
		weightedrand.NewChoice(5, 1),
	)
	if err != nil {
		return nil, err
	}

	return &ServiceAnalytics{container, serviceBoost, rankChooser}, nil
}

func (service *ServiceAnalytics) Estimate(ctx context.Context, profileID string) (*models.BoostEstimate, error) {
	view, err := service.serviceBoost.FetchActiveBoost(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, nil
	}

	seed := fnv.New64a()
	seed.Write([]byte(view.ID))
	rnd := rand.New(rand.NewSource(int64(seed.Sum64())))

	baseViews := 120 + rnd.Intn(380)
	baseClicks := 8 + rnd.Intn(40)
	upliftFactor := 2 + rnd.Intn(3)

	boostedRank := service.rankChooser.PickSource(rnd)
	baseRank := boostedRank * (4 + rnd.Intn(4))

	return &models.BoostEstimate{
		ProfileID: profileID,
		WithBoost: models.BoostMetrics{
			Views:         baseViews * upliftFactor,
			Clicks:        baseClicks * upliftFactor,
			SearchRanking: boostedRank,
		},
		WithoutBoost: models.BoostMetrics{
			Views:         baseViews,
			Clicks:        baseClicks,
			SearchRanking: baseRank,
		},
	}, nil
}
