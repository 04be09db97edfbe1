package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	"spotlight/internal/datastore"
	"spotlight/internal/models"
	"spotlight/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSeedPackages(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableBoostPackage(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableActiveBoost(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableLedger(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert default configs to db
func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_CANONICAL_RATE, Value: strconv.Itoa(services.DEFAULT_CANONICAL_RATE)},
				{Key: "CRONJOB_TIME_BOOST_SWEEP", Value: "@every 1m"},
			}

			for _, config := range configs {
				_, err = db.NewInsert().Model(&config).Exec(ctx)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func commandSeedPackages() *cli.Command {
	return &cli.Command{
		Name:        "seed-packages",
		Description: "Insert the default boost packages",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			pkgs := []*models.BoostPackage{
				{
					ID:              "boost-1h",
					Name:            "Spotlight 1h",
					Description:     "Put your profile on top of search results for one hour",
					DurationMinutes: 60,
					Price:           services.DEFAULT_CANONICAL_RATE,
					Features:        []string{"top_of_search", "highlighted_card"},
				},
				{
					ID:              "boost-3h",
					Name:            "Spotlight 3h",
					Description:     "Put your profile on top of search results for three hours",
					DurationMinutes: 180,
					Price:           services.DEFAULT_CANONICAL_RATE,
					Features:        []string{"top_of_search", "highlighted_card", "discover_feed"},
				},
				{
					ID:              "boost-24h",
					Name:            "Spotlight 24h",
					Description:     "Put your profile on top of search results for a full day",
					DurationMinutes: 1440,
					Price:           services.DEFAULT_CANONICAL_RATE,
					Features:        []string{"top_of_search", "highlighted_card", "discover_feed", "priority_support"},
				},
			}

			err = datastore.SeedBoostPackages(ctx, db, pkgs)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
