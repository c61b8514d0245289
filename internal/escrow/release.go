package escrow

import (
	"time"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

// DefaultHoldDays is the hold applied when no admin value is configured.
const DefaultHoldDays = 14

// EscrowResult says when a delivered order's funds become withdrawable.
type EscrowResult struct {
	DeliveredAt time.Time `json:"delivered_at"`
	HoldDays    int       `json:"hold_days"`
	ReleaseAt   time.Time `json:"release_at"`
	IsReleased  bool      `json:"is_released"`

	// HoldRemaining is how long the funds stay on hold as of the evaluation time.
	HoldRemaining time.Duration `json:"hold_remaining_ns"`
}

// Release computes the release date as calendar days after delivery, in the
// delivery timestamp's location. now is supplied by the caller so the result
// never depends on the wall clock.
func Release(deliveredAt time.Time, holdDays int, now time.Time) (EscrowResult, error) {
	if deliveredAt.IsZero() {
		return EscrowResult{}, pkgerrors.Invalid("delivered_at", "is required")
	}
	if holdDays < 0 {
		return EscrowResult{}, pkgerrors.Invalid("hold_days", "must not be negative")
	}
	result := EscrowResult{
		DeliveredAt: deliveredAt,
		HoldDays:    holdDays,
		ReleaseAt:   deliveredAt.AddDate(0, 0, holdDays),
	}
	result.IsReleased = !now.Before(result.ReleaseAt)
	result.HoldRemaining = result.Remaining(now)
	return result, nil
}

// Remaining is how long the funds stay on hold as of now; zero once released.
func (r EscrowResult) Remaining(now time.Time) time.Duration {
	if !now.Before(r.ReleaseAt) {
		return 0
	}
	return r.ReleaseAt.Sub(now)
}
