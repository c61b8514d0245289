package escrow

import (
	"testing"
	"time"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

func TestReleaseScenario(t *testing.T) {
	delivered := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	wantRelease := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		released bool
	}{
		{name: "immediately after delivery", now: delivered.Add(time.Minute), released: false},
		{name: "one second before release", now: wantRelease.Add(-time.Second), released: false},
		{name: "exactly at release", now: wantRelease, released: true},
		{name: "after release", now: wantRelease.AddDate(0, 0, 3), released: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Release(delivered, DefaultHoldDays, tt.now)
			if err != nil {
				t.Fatalf("Release error: %v", err)
			}
			if !result.ReleaseAt.Equal(wantRelease) {
				t.Fatalf("expected release at %s, got %s", wantRelease, result.ReleaseAt)
			}
			if result.IsReleased != tt.released {
				t.Fatalf("expected released=%v at %s", tt.released, tt.now)
			}
			if tt.released && result.Remaining(tt.now) != 0 {
				t.Fatalf("released escrow should have no remaining hold")
			}
			if result.HoldRemaining != result.Remaining(tt.now) {
				t.Fatalf("expected hold remaining %s, got %s", result.Remaining(tt.now), result.HoldRemaining)
			}
		})
	}
}

func TestReleaseRemaining(t *testing.T) {
	delivered := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	result, err := Release(delivered, 14, delivered)
	if err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if got := result.Remaining(delivered); got != 14*24*time.Hour {
		t.Fatalf("expected 14 days remaining, got %s", got)
	}
}

func TestReleaseUsesCalendarDaysAcrossDST(t *testing.T) {
	cairo, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	delivered := time.Date(2024, 4, 20, 12, 0, 0, 0, cairo)
	result, err := Release(delivered, 14, delivered)
	if err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if result.ReleaseAt.Hour() != 12 || result.ReleaseAt.Day() != 4 || result.ReleaseAt.Month() != time.May {
		t.Fatalf("expected local noon on May 4, got %s", result.ReleaseAt)
	}
}

func TestReleaseZeroHoldReleasesOnDelivery(t *testing.T) {
	delivered := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	result, err := Release(delivered, 0, delivered)
	if err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if !result.IsReleased {
		t.Fatalf("zero hold should release at delivery")
	}
}

func TestReleaseRejectsInvalidInput(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Release(time.Time{}, 14, now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing delivery date, got %v", err)
	}
	if _, err := Release(now, -1, now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative hold, got %v", err)
	}
}
