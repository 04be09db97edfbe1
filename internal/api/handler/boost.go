package handler

import (
	"errors"

	"spotlight/internal/interfaces"
	"spotlight/internal/services"

	"spotlight/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupBoost struct {
	container *do.Injector
}

type purchasePayload struct {
	ProfileID string `json:"profile_id"`
	PackageID string `json:"package_id"`
}

type cancelPayload struct {
	ProfileID string `json:"profile_id"`
}

func (gr *groupBoost) ListPackages(c echo.Context) error {
	ctx := c.Request().Context()

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	pkgs, err := serviceBoost.ListPackages(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, pkgs, nil)
}

func (gr *groupBoost) Purchase(c echo.Context) error {
	ctx := c.Request().Context()

	var payload purchasePayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}
	if payload.ProfileID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing profile_id"), errorx.Invalid))
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = rateLimiter.Allow(ctx, services.LimitKeyPurchase(payload.ProfileID), redis_rate.PerMinute(services.PURCHASE_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if errors.Is(err, limiter.ErrRateLimited) {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
		}
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result := serviceBoost.PurchaseBoost(ctx, payload.ProfileID, payload.PackageID)
	return httpx.RestAbort(c, result, nil)
}

func (gr *groupBoost) FetchActive(c echo.Context) error {
	ctx := c.Request().Context()

	profileID := c.QueryParam("profile_id")
	if profileID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing profile_id"), errorx.Invalid))
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	view, err := serviceBoost.FetchActiveBoost(ctx, profileID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, view, nil)
}

func (gr *groupBoost) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	var payload cancelPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}
	if payload.ProfileID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing profile_id"), errorx.Invalid))
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result := serviceBoost.CancelBoost(ctx, payload.ProfileID)
	return httpx.RestAbort(c, result, nil)
}

func (gr *groupBoost) Estimate(c echo.Context) error {
	ctx := c.Request().Context()

	profileID := c.QueryParam("profile_id")
	if profileID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing profile_id"), errorx.Invalid))
	}

	estimator, err := do.Invoke[interfaces.UpliftEstimator](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	estimate, err := estimator.Estimate(ctx, profileID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, estimate, nil)
}
