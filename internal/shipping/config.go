package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// WeightPlaces is the resolution of reported weights (grams).
const WeightPlaces int32 = 3

// Config holds the constants shared by every shipment quote.
type Config struct {
	VolumetricDivisor decimal.Decimal `json:"volumetric_divisor"`
	// LogisticsSurcharge is the amount already collected in the product price
	// that the platform may put toward the delivery fee.
	LogisticsSurcharge decimal.Decimal `json:"logistics_surcharge"`
	// MaxSubsidyRatio caps the share of the total fee the platform absorbs.
	MaxSubsidyRatio  decimal.Decimal `json:"max_subsidy_ratio"`
	IncludedWeightKg decimal.Decimal `json:"included_weight_kg"`
}

func DefaultConfig() Config {
	return Config{
		VolumetricDivisor:  money.MustParse("5000"),
		LogisticsSurcharge: money.MustParse("10"),
		MaxSubsidyRatio:    money.MustParse("0.25"),
		IncludedWeightKg:   money.MustParse("1"),
	}
}

func (c Config) Validate() error {
	var errs error
	if !c.VolumetricDivisor.IsPositive() {
		errs = multierr.Append(errs, fmt.Errorf("volumetric_divisor: %s must be positive", c.VolumetricDivisor))
	}
	if c.LogisticsSurcharge.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("logistics_surcharge: %s must not be negative", c.LogisticsSurcharge))
	}
	if c.MaxSubsidyRatio.IsNegative() || c.MaxSubsidyRatio.GreaterThan(money.One) {
		errs = multierr.Append(errs, fmt.Errorf("max_subsidy_ratio: %s outside [0, 1]", c.MaxSubsidyRatio))
	}
	if c.IncludedWeightKg.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("included_weight_kg: %s must not be negative", c.IncludedWeightKg))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, errs, "invalid shipping config")
	}
	return nil
}

// RateCard is the price list of one destination zone.
type RateCard struct {
	Zone      enums.ShippingZone `json:"zone"`
	BaseFee   decimal.Decimal    `json:"base_fee"`
	PerKgRate decimal.Decimal    `json:"per_kg_rate"`
}

func (r RateCard) Validate() error {
	var errs error
	if r.BaseFee.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("zone %s base_fee: %s must not be negative", r.Zone, r.BaseFee))
	}
	if r.PerKgRate.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("zone %s per_kg_rate: %s must not be negative", r.Zone, r.PerKgRate))
	}
	return errs
}

// DefaultRateCards returns the built-in zone price list.
func DefaultRateCards() map[enums.ShippingZone]RateCard {
	cards := []RateCard{
		{Zone: enums.ShippingZoneCairoGiza, BaseFee: money.MustParse("45"), PerKgRate: money.MustParse("5")},
		{Zone: enums.ShippingZoneAlexandria, BaseFee: money.MustParse("55"), PerKgRate: money.MustParse("6")},
		{Zone: enums.ShippingZoneDelta, BaseFee: money.MustParse("60"), PerKgRate: money.MustParse("7")},
		{Zone: enums.ShippingZoneCanal, BaseFee: money.MustParse("60"), PerKgRate: money.MustParse("7")},
		{Zone: enums.ShippingZoneUpperEgypt, BaseFee: money.MustParse("75"), PerKgRate: money.MustParse("9")},
		{Zone: enums.ShippingZoneRemote, BaseFee: money.MustParse("90"), PerKgRate: money.MustParse("12")},
	}
	out := make(map[enums.ShippingZone]RateCard, len(cards))
	for _, card := range cards {
		out[card.Zone] = card
	}
	return out
}
