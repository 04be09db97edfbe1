package datastore

import (
	"context"

	"spotlight/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableBoostPackage(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.BoostPackage)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// BoostPackageStore reads boost packages. Packages are owned by an admin
// tool; this subsystem never writes them outside of seeding.
type BoostPackageStore struct {
	db *bun.DB
}

func NewBoostPackageStore(db *bun.DB) *BoostPackageStore {
	return &BoostPackageStore{db}
}

func (store *BoostPackageStore) Find(ctx context.Context, id string) (*models.BoostPackage, error) {
	var pkg models.BoostPackage
	err := store.db.NewSelect().Model(&pkg).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &pkg, nil
}

func (store *BoostPackageStore) List(ctx context.Context) ([]*models.BoostPackage, error) {
	var pkgs []*models.BoostPackage
	err := store.db.NewSelect().Model(&pkgs).Order("price asc").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return pkgs, nil
}

func SeedBoostPackages(ctx context.Context, db *bun.DB, pkgs []*models.BoostPackage) error {
	for _, pkg := range pkgs {
		_, err := db.NewInsert().Model(pkg).On("CONFLICT (id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}
