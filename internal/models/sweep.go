package models

import "time"

type SweepReport struct {
	Expired int64     `json:"expired"`
	RanAt   time.Time `json:"ran_at"`
}
