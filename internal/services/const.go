package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrPriceMismatch = errors.New("price does not match the canonical rate")
var ErrRateLookup = errors.New("canonical rate lookup failed")
var ErrOverrideUnauthorized = errors.New("invalid admin key")
var ErrOverrideReasonRequired = errors.New("override reason is required")

const (
	ENV_CANONICAL_RATE       = "UBX_CANONICAL_RATE"
	ENV_ADMIN_OVERRIDE_KEY   = "ADMIN_OVERRIDE_KEY"
	ENV_RECOVERY_EXIT_STREAK = "RECOVERY_EXIT_SUCCESS_STREAK"
	CONFIG_CANONICAL_RATE    = "UBX_CANONICAL_RATE"

	DEFAULT_CANONICAL_RATE = 1000

	DAILY_BOOST_LIMIT = 4

	// Validation failures above this count flag the pricing system
	// unhealthy and latch recovery mode.
	RECOVERY_FAILURE_THRESHOLD = 5
	// Consecutive successes needed to clear recovery mode.
	DEFAULT_RECOVERY_EXIT_STREAK = 3

	PRICE_VALIDATION_MAX_ATTEMPTS = 3

	PURCHASE_RATE_LIMIT_PER_MINUTE = 10

	MSG_ALREADY_ACTIVE      = "You already have an active boost. Please cancel it before purchasing a new one."
	MSG_PRICE_INCONSISTENT  = "Price inconsistency detected. Transaction halted."
	MSG_PRICE_UNAVAILABLE   = "Price validation is temporarily unavailable. Please try again."
	MSG_PACKAGE_NOT_FOUND   = "Boost package not found."
	MSG_NO_ACTIVE_BOOST     = "No active boost found"
	MSG_DAILY_LIMIT_REACHED = "You've reached the daily limit of 4 boosts"
	MSG_PURCHASE_FAILED     = "Could not complete your boost purchase. Please try again."
	MSG_CANCEL_FAILED       = "Could not cancel your boost. Please try again."

	CACHE_TTL_5_SECONDS = 5 * time.Second
	CACHE_TTL_1_MIN     = 1 * time.Minute
	CACHE_TTL_5_MINS    = 5 * time.Minute
)

func LockKeyBoostSweep() string {
	return "lock:boost-sweep"
}

func LimitKeyPurchase(profileID string) string {
	return fmt.Sprintf("limit:boost-purchase:%s", profileID)
}

// db
func DBKeyBoostPackage(id string) string {
	return fmt.Sprintf("boost_package:%s", strings.ToLower(id))
}

func DBKeyBoostPackages() string {
	return "boost_package:all"
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}
