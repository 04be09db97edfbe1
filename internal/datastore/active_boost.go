package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"spotlight/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableActiveBoost(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ActiveBoost)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	// One active boost per profile, enforced by the database so
	// concurrent purchases cannot both commit.
	_, err = db.NewRaw(`
		create unique index if not exists index_active_boost_profile_active
			on active_boost (profile_id) where status = 'active';`).Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ActiveBoost)(nil)).Index("index_active_boost_profile_start").IfNotExists().Column("profile_id", "start_time").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ActiveBoost)(nil)).Index("index_active_boost_status_end").IfNotExists().Column("status", "end_time").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

type ActiveBoostStore struct {
	db   *bun.DB
	rodb *bun.DB
}

func NewActiveBoostStore(db *bun.DB, rodb *bun.DB) *ActiveBoostStore {
	return &ActiveBoostStore{db, rodb}
}

func (store *ActiveBoostStore) InsertActive(ctx context.Context, boost *models.ActiveBoost) (bool, error) {
	res, err := store.db.NewInsert().Model(boost).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (store *ActiveBoostStore) FindActive(ctx context.Context, profileID string) (*models.ActiveBoost, error) {
	var boost models.ActiveBoost
	err := store.db.NewSelect().Model(&boost).Where("profile_id = ? and status = ?", profileID, models.BOOST_STATUS_ACTIVE).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &boost, nil
}

func (store *ActiveBoostStore) MarkStatus(ctx context.Context, id string, from string, to string) (bool, error) {
	res, err := store.db.NewUpdate().Model((*models.ActiveBoost)(nil)).
		Set("status = ?", to).
		Set("updated_at = current_timestamp").
		Where("id = ? and status = ?", id, from).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (store *ActiveBoostStore) CountStartedSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	count, err := store.rodb.NewSelect().Model((*models.ActiveBoost)(nil)).
		Where("profile_id = ?", profileID).
		Where("start_time >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ExpireOverdue is the sweeper's bulk version of lazy expiry.
func ExpireOverdue(ctx context.Context, db *bun.DB, now time.Time) (int64, error) {
	res, err := db.NewUpdate().Model((*models.ActiveBoost)(nil)).
		Set("status = ?", models.BOOST_STATUS_EXPIRED).
		Set("updated_at = current_timestamp").
		Where("status = ?", models.BOOST_STATUS_ACTIVE).
		Where("end_time < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
