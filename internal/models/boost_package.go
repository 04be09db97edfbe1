package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BoostPackage struct {
	bun.BaseModel   `bun:"table:boost_package"`
	ID              string   `bun:"id,pk" json:"id"`
	Name            string   `bun:"name" json:"name"`
	Description     string   `bun:"description" json:"description"`
	DurationMinutes int      `bun:"duration_minutes" json:"duration_minutes"`
	Price           int64    `bun:"price" json:"price"`
	Features        []string `bun:"features,array" json:"features"`
}

func (pkg *BoostPackage) Duration() time.Duration {
	return time.Duration(pkg.DurationMinutes) * time.Minute
}
