package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BOOST_STATUS_ACTIVE    = "active"
	BOOST_STATUS_CANCELLED = "cancelled"
	BOOST_STATUS_EXPIRED   = "expired"
)

// ActiveBoost rows are never deleted, cancel/expire only flip the status.
type ActiveBoost struct {
	bun.BaseModel `bun:"table:active_boost"`
	ID            string    `bun:"id,pk" json:"id"`
	ProfileID     string    `bun:"profile_id" json:"profile_id"`
	PackageID     string    `bun:"package_id" json:"package_id"`
	StartTime     time.Time `bun:"start_time" json:"start_time"`
	EndTime       time.Time `bun:"end_time" json:"end_time"`
	Status        string    `bun:"status" json:"status"`
	SnapshotName  string    `bun:"snapshot_name" json:"snapshot_name"`
	SnapshotPrice int64     `bun:"snapshot_price" json:"snapshot_price"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

type ActiveBoostView struct {
	ID            string    `json:"id"`
	ProfileID     string    `json:"profile_id"`
	PackageID     string    `json:"package_id"`
	PackageName   string    `json:"package_name"`
	Price         int64     `json:"price"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	RemainingTime string    `json:"remaining_time"`
	Progress      int       `json:"progress"`
}
