package models

import (
	"time"

	"github.com/uptrace/bun"
)

type LedgerEntry struct {
	bun.BaseModel `bun:"table:transaction_ledger"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	ProfileID     string    `bun:"profile_id" json:"profile_id"`
	Amount        int64     `bun:"amount" json:"amount"`
	Description   string    `bun:"description" json:"description"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
