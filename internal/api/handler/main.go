package handler

import (
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "⚡")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		b := groupBoost{cfg.Container}
		routesAPIv1.GET("/boost/packages", b.ListPackages)
		routesAPIv1.POST("/boost/purchase", b.Purchase)
		routesAPIv1.GET("/boost/active", b.FetchActive)
		routesAPIv1.POST("/boost/cancel", b.Cancel)
		routesAPIv1.GET("/boost/estimate", b.Estimate)

		o := groupOps{cfg.Container}
		routesAPIv1Ops := routesAPIv1.Group("/ops/pricing")
		{
			routesAPIv1Ops.GET("/health", o.Health)
			routesAPIv1Ops.POST("/selftest", o.RunSelfTest)
			routesAPIv1Ops.GET("/selftest", o.LastSelfTest)
			routesAPIv1Ops.POST("/override", o.Override)
			routesAPIv1Ops.GET("/audit", o.OverrideAudit)
			routesAPIv1Ops.POST("/reset", o.Reset)
		}
		routesAPIv1.GET("/ops/boost/sweep", o.LastSweep)
	}

	return r, nil
}
