package services

import (
	"context"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"

	"github.com/samber/do"
)

// ServiceLedger records UBX movements. Writes are best-effort from the
// purchase path: a failed entry is logged by the caller, never rolled
// back into the purchase.
type ServiceLedger struct {
	container *do.Injector
	entries   interfaces.LedgerStore
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	entries, err := do.Invoke[interfaces.LedgerStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{container, entries}, nil
}

func (service *ServiceLedger) LogTransaction(ctx context.Context, profileID string, amount int64, description string) error {
	entry := &models.LedgerEntry{
		ProfileID:   profileID,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}

	return service.entries.Insert(ctx, entry)
}
