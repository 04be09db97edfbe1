package datastore

import (
	"context"

	"spotlight/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableLedger(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.LedgerEntry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LedgerEntry)(nil)).Index("index_transaction_ledger_profile").IfNotExists().Column("profile_id", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

type LedgerStore struct {
	db *bun.DB
}

func NewLedgerStore(db *bun.DB) *LedgerStore {
	return &LedgerStore{db}
}

func (store *LedgerStore) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	_, err := store.db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}
