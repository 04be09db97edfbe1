package handler

import (
	"errors"
	"log"

	"spotlight/internal/datastore/redis_store"
	"spotlight/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

type groupOps struct {
	container *do.Injector
}

type overridePayload struct {
	Reason string `json:"reason"`
}

func (gr *groupOps) Health(c echo.Context) error {
	servicePricing, err := do.Invoke[*services.ServicePricing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, servicePricing.Health(), nil)
}

func (gr *groupOps) RunSelfTest(c echo.Context) error {
	ctx := c.Request().Context()

	servicePricing, err := do.Invoke[*services.ServicePricing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report := servicePricing.RunSelfTest(ctx)

	opsRedis, err := do.InvokeNamed[redis.UniversalClient](gr.container, "redis-ops")
	if err == nil {
		if err := redis_store.SetLastSelfTestReport(ctx, opsRedis, report); err != nil {
			log.Println("ops: persisting self-test report failed", err)
		}
	}

	return httpx.RestAbort(c, report, nil)
}

func (gr *groupOps) LastSelfTest(c echo.Context) error {
	ctx := c.Request().Context()

	opsRedis, err := do.InvokeNamed[redis.UniversalClient](gr.container, "redis-ops")
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := redis_store.GetLastSelfTestReport(ctx, opsRedis)
	if errors.Is(err, redis.Nil) {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("no self-test has run yet"), errorx.NotExist))
	}
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, report, nil)
}

// Override never logs or persists the admin key, only the outcome.
func (gr *groupOps) Override(c echo.Context) error {
	var payload overridePayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	servicePricing, err := do.Invoke[*services.ServicePricing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = servicePricing.EmergencyOverride(c.Request().Header.Get("X-Admin-Key"), payload.Reason)
	if errors.Is(err, services.ErrOverrideUnauthorized) {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Authn))
	}
	if errors.Is(err, services.ErrOverrideReasonRequired) {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, nil, nil)
}

func (gr *groupOps) LastSweep(c echo.Context) error {
	ctx := c.Request().Context()

	opsRedis, err := do.InvokeNamed[redis.UniversalClient](gr.container, "redis-ops")
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := redis_store.GetLastSweepReport(ctx, opsRedis)
	if errors.Is(err, redis.Nil) {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("no sweep has run yet"), errorx.NotExist))
	}
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, report, nil)
}

func (gr *groupOps) OverrideAudit(c echo.Context) error {
	servicePricing, err := do.Invoke[*services.ServicePricing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, servicePricing.OverrideAudit(), nil)
}

func (gr *groupOps) Reset(c echo.Context) error {
	servicePricing, err := do.Invoke[*services.ServicePricing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := servicePricing.AuthorizeAdmin(c.Request().Header.Get("X-Admin-Key")); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Authn))
	}

	servicePricing.Reset()
	return httpx.RestAbort(c, nil, nil)
}
