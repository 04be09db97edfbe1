package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"spotlight/internal/interfaces"
	"spotlight/internal/models"
	"spotlight/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceBoost owns the boost lifecycle: NonExistent -> Active ->
// {Cancelled, Expired}. Terminal states never transition again. No
// error crosses this boundary from the purchase/cancel paths; callers
// always get a structured result.
type ServiceBoost struct {
	container *do.Injector
	boosts    interfaces.BoostStore
	packages  interfaces.BoostPackageStore
	cache     caching.Cache

	servicePricing     *ServicePricing
	serviceEligibility *ServiceEligibility
	serviceLedger      *ServiceLedger
}

func NewServiceBoost(container *do.Injector) (*ServiceBoost, error) {
	boosts, err := do.Invoke[interfaces.BoostStore](container)
	if err != nil {
		return nil, err
	}

	packages, err := do.Invoke[interfaces.BoostPackageStore](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	servicePricing, err := do.Invoke[*ServicePricing](container)
	if err != nil {
		return nil, err
	}

	serviceEligibility, err := do.Invoke[*ServiceEligibility](container)
	if err != nil {
		return nil, err
	}

	serviceLedger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBoost{container, boosts, packages, cache, servicePricing, serviceEligibility, serviceLedger}, nil
}

func fail(message string) *models.PurchaseResult {
	return &models.PurchaseResult{Success: false, Message: message}
}

func (service *ServiceBoost) PurchaseBoost(ctx context.Context, profileID string, packageID string) *models.PurchaseResult {
	if profileID == "" || packageID == "" {
		return fail(MSG_PACKAGE_NOT_FOUND)
	}

	existing, err := service.boosts.FindActive(ctx, profileID)
	if err != nil {
		log.Println("boost: purchase lookup failed", profileID, packageID, err)
		return fail(MSG_PURCHASE_FAILED)
	}
	if existing != nil {
		return fail(MSG_ALREADY_ACTIVE)
	}

	pkg, err := service.GetPackage(ctx, packageID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(MSG_PACKAGE_NOT_FOUND)
	}
	if err != nil {
		log.Println("boost: package lookup failed", profileID, packageID, err)
		return fail(MSG_PURCHASE_FAILED)
	}

	decision, err := service.serviceEligibility.CheckBoostEligibility(ctx, profileID)
	if err != nil {
		log.Println("boost: eligibility check failed", profileID, packageID, err)
		return fail(MSG_PURCHASE_FAILED)
	}
	if !decision.Eligible {
		return fail(strings.Join(decision.Reasons, " "))
	}

	if service.servicePricing.ConsumeOverride() {
		log.Println("boost: price check bypassed by emergency override", profileID, packageID)
	} else {
		if service.servicePricing.InRecovery() {
			err = service.servicePricing.ValidateGlobalPriceWithRetry(ctx, pkg.Price, PRICE_VALIDATION_MAX_ATTEMPTS)
		} else {
			err = service.servicePricing.ValidateGlobalPrice(ctx, pkg.Price)
		}
		if errors.Is(err, ErrPriceMismatch) {
			log.Println("boost: price invariant violated", profileID, packageID, err)
			return fail(MSG_PRICE_INCONSISTENT)
		}
		if err != nil {
			log.Println("boost: price validation unavailable", profileID, packageID, err)
			return fail(MSG_PRICE_UNAVAILABLE)
		}
	}

	now := time.Now()
	boost := &models.ActiveBoost{
		ID:            uuid.NewString(),
		ProfileID:     profileID,
		PackageID:     pkg.ID,
		StartTime:     now,
		EndTime:       now.Add(pkg.Duration()),
		Status:        models.BOOST_STATUS_ACTIVE,
		SnapshotName:  pkg.Name,
		SnapshotPrice: pkg.Price,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	inserted, err := service.boosts.InsertActive(ctx, boost)
	if err != nil {
		log.Println("boost: insert failed", profileID, packageID, err)
		return fail(MSG_PURCHASE_FAILED)
	}
	if !inserted {
		// lost the race to a concurrent purchase
		return fail(MSG_ALREADY_ACTIVE)
	}

	err = service.serviceLedger.LogTransaction(ctx, profileID, -pkg.Price, fmt.Sprintf("Boost purchase: %s", pkg.Name))
	if err != nil {
		log.Println("boost: ledger write failed", profileID, packageID, err)
	}

	return &models.PurchaseResult{Success: true}
}

// FetchActiveBoost self-heals: an overdue record is flipped to expired
// as a side effect of the read. Repeat reads stay nil with no further
// writes.
func (service *ServiceBoost) FetchActiveBoost(ctx context.Context, profileID string) (*models.ActiveBoostView, error) {
	boost, err := service.boosts.FindActive(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if boost == nil {
		return nil, nil
	}

	now := time.Now()
	if !boost.EndTime.After(now) {
		_, err = service.boosts.MarkStatus(ctx, boost.ID, models.BOOST_STATUS_ACTIVE, models.BOOST_STATUS_EXPIRED)
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &models.ActiveBoostView{
		ID:            boost.ID,
		ProfileID:     boost.ProfileID,
		PackageID:     boost.PackageID,
		PackageName:   boost.SnapshotName,
		Price:         boost.SnapshotPrice,
		StartTime:     boost.StartTime,
		EndTime:       boost.EndTime,
		RemainingTime: CalculateRemainingTime(boost.EndTime, now),
		Progress:      CalculateProgress(boost.StartTime, boost.EndTime, now),
	}, nil
}

func (service *ServiceBoost) CancelBoost(ctx context.Context, profileID string) *models.PurchaseResult {
	boost, err := service.boosts.FindActive(ctx, profileID)
	if err != nil {
		log.Println("boost: cancel lookup failed", profileID, err)
		return fail(MSG_CANCEL_FAILED)
	}
	if boost == nil {
		return fail(MSG_NO_ACTIVE_BOOST)
	}

	now := time.Now()
	if !boost.EndTime.After(now) {
		// already ran out, settle it as expired instead
		_, err = service.boosts.MarkStatus(ctx, boost.ID, models.BOOST_STATUS_ACTIVE, models.BOOST_STATUS_EXPIRED)
		if err != nil {
			log.Println("boost: expire on cancel failed", profileID, err)
		}
		return fail(MSG_NO_ACTIVE_BOOST)
	}

	changed, err := service.boosts.MarkStatus(ctx, boost.ID, models.BOOST_STATUS_ACTIVE, models.BOOST_STATUS_CANCELLED)
	if err != nil {
		log.Println("boost: cancel failed", profileID, err)
		return fail(MSG_CANCEL_FAILED)
	}
	if !changed {
		return fail(MSG_NO_ACTIVE_BOOST)
	}

	return &models.PurchaseResult{Success: true}
}

func (service *ServiceBoost) GetPackage(ctx context.Context, id string) (*models.BoostPackage, error) {
	callback := func() (*models.BoostPackage, error) {
		return service.packages.Find(ctx, id)
	}

	return caching.UseCache(ctx, service.cache, DBKeyBoostPackage(id), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceBoost) ListPackages(ctx context.Context) ([]*models.BoostPackage, error) {
	callback := func() ([]*models.BoostPackage, error) {
		return service.packages.List(ctx)
	}

	return caching.UseCache(ctx, service.cache, DBKeyBoostPackages(), CACHE_TTL_5_MINS, callback)
}

func CalculateRemainingTime(end time.Time, now time.Time) string {
	if !end.After(now) {
		return "Expired"
	}

	remaining := end.Sub(now)
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}

// CalculateProgress is 0 at the start, 100 at the end, linear between.
// A degenerate zero-length window counts as done.
func CalculateProgress(start time.Time, end time.Time, now time.Time) int {
	if !end.After(start) {
		return 100
	}
	if !now.After(start) {
		return 0
	}
	if !now.Before(end) {
		return 100
	}

	return int(now.Sub(start) * 100 / end.Sub(start))
}
