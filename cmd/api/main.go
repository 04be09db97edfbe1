package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"spotlight/internal/api/handler"
	"spotlight/internal/datastore"
	"spotlight/internal/interfaces"
	"spotlight/internal/pkg/caching"
	"spotlight/internal/pkg/limiter"
	"spotlight/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"DB_DSN",
		"ADMIN_OVERRIDE_KEY",
		"REDIS_URL",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			router, err := handler.New(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				log.Printf("ListenAndServe: %s (%s)\n", c.String("addr"), vs["API_MODE"])
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["API_MODE"] = os.Getenv("API_MODE")
	vs["API_ORIGINS"] = os.Getenv("API_ORIGINS")
	vs[services.ENV_CANONICAL_RATE] = os.Getenv(services.ENV_CANONICAL_RATE)
	vs[services.ENV_RECOVERY_EXIT_STREAK] = os.Getenv(services.ENV_RECOVERY_EXIT_STREAK)

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		if dsn == "" {
			dsn = os.Getenv("DB_DSN")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	provideRedis := func(envKey string) func(i *do.Injector) (redis.UniversalClient, error) {
		return func(i *do.Injector) (redis.UniversalClient, error) {
			url := os.Getenv(envKey)
			if url == "" {
				url = os.Getenv("REDIS_URL")
			}
			dbRedis, err := db.InitRedis(&db.RedisConfig{URL: url})
			if err != nil {
				return nil, err
			}
			return dbRedis, nil
		}
	}

	do.ProvideNamed(injector, "redis-cache", provideRedis("REDIS_CACHE"))
	do.ProvideNamed(injector, "redis-limiter", provideRedis("REDIS_LIMITER"))
	do.ProvideNamed(injector, "redis-mutex", provideRedis("REDIS_MUTEX"))
	do.ProvideNamed(injector, "redis-ops", provideRedis("REDIS_OPS"))

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		instance, err := caching.NewCacheRedis(dbRedis, false)
		if err != nil {
			return nil, err
		}
		return instance, nil
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		cash, err := do.Invoke[caching.Cache](i)
		if err != nil {
			return nil, err
		}

		return cash, nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		instance, err := limiter.NewLimiter(dbRedis)
		if err != nil {
			return nil, err
		}
		return instance, nil
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.BoostStore, error) {
		postgresDB, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}

		readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](i, "db-readonly")
		if err != nil {
			return nil, err
		}

		return datastore.NewActiveBoostStore(postgresDB, readonlyPostgresDB), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.BoostPackageStore, error) {
		readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](i, "db-readonly")
		if err != nil {
			return nil, err
		}

		return datastore.NewBoostPackageStore(readonlyPostgresDB), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.LedgerStore, error) {
		postgresDB, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}

		return datastore.NewLedgerStore(postgresDB), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.RateSource, error) {
		source, err := services.NewCanonicalRateSource(i)
		if err != nil {
			return nil, err
		}
		return source, nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServicePricing, error) {
		return services.NewServicePricing(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceEligibility, error) {
		return services.NewServiceEligibility(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLedger, error) {
		return services.NewServiceLedger(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceBoost, error) {
		return services.NewServiceBoost(i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.UpliftEstimator, error) {
		serviceAnalytics, err := services.NewServiceAnalytics(i)
		if err != nil {
			return nil, err
		}
		return serviceAnalytics, nil
	})

	return injector
}
