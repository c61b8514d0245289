package settings

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/arooba/pricing-engine/internal/deviation"
	"github.com/arooba/pricing-engine/internal/escrow"
	"github.com/arooba/pricing-engine/internal/pricing"
	"github.com/arooba/pricing-engine/internal/shipping"
	"github.com/arooba/pricing-engine/pkg/config"
	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

// Snapshot is one complete, immutable view of the engine's tables.
// Layers that change it (table file, admin overrides) return a new value.
type Snapshot struct {
	Pricing            pricing.Config                           `json:"pricing"`
	Shipping           shipping.Config                          `json:"shipping"`
	RateCards          map[enums.ShippingZone]shipping.RateCard `json:"rate_cards"`
	EscrowHoldDays     int                                      `json:"escrow_hold_days"`
	DeviationThreshold decimal.Decimal                          `json:"deviation_threshold"`

	// Sources lists the layers applied, in order.
	Sources []string `json:"sources"`
}

// Defaults returns the built-in tables.
func Defaults() Snapshot {
	return Snapshot{
		Pricing:            pricing.DefaultConfig(),
		Shipping:           shipping.DefaultConfig(),
		RateCards:          shipping.DefaultRateCards(),
		EscrowHoldDays:     escrow.DefaultHoldDays,
		DeviationThreshold: deviation.DefaultThreshold,
		Sources:            []string{"defaults"},
	}
}

// FromConfig seeds a snapshot from process configuration. Category rates and
// rate cards keep their built-in values.
func FromConfig(cfg *config.Config) Snapshot {
	s := Defaults()
	if cfg == nil {
		return s
	}
	s.Pricing.VATRate = cfg.Pricing.VATRate
	s.Pricing.CooperativeFeeRate = cfg.Pricing.CooperativeFeeRate
	s.Pricing.MinimumFixedUplift = cfg.Pricing.MinimumFixedUplift
	s.Pricing.LowPriceThreshold = cfg.Pricing.LowPriceThreshold
	s.Pricing.LowPriceFixedMarkup = cfg.Pricing.LowPriceFixedMarkup
	s.Pricing.LogisticsSurcharge = cfg.Pricing.LogisticsSurcharge
	s.Pricing.GlobalUpliftRate = cfg.Pricing.GlobalUpliftRate

	s.Shipping.VolumetricDivisor = cfg.Shipping.VolumetricDivisor
	s.Shipping.MaxSubsidyRatio = cfg.Shipping.MaxSubsidyRatio
	s.Shipping.IncludedWeightKg = cfg.Shipping.IncludedWeightKg
	s.Shipping.LogisticsSurcharge = cfg.Pricing.LogisticsSurcharge

	s.EscrowHoldDays = cfg.Escrow.HoldDays
	s.DeviationThreshold = cfg.Deviation.Threshold
	s.Sources = append(s.Sources, "env")
	return s
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Pricing = s.Pricing.Clone()
	out.RateCards = make(map[enums.ShippingZone]shipping.RateCard, len(s.RateCards))
	for zone, card := range s.RateCards {
		out.RateCards[zone] = card
	}
	out.Sources = append([]string(nil), s.Sources...)
	return out
}

// RateCard returns the price list for a destination zone.
func (s Snapshot) RateCard(zone enums.ShippingZone) (shipping.RateCard, error) {
	card, ok := s.RateCards[zone]
	if !ok {
		return shipping.RateCard{}, pkgerrors.Invalid("zone", fmt.Sprintf("no rate card for %q", zone))
	}
	return card, nil
}

// Zones lists the zones with a rate card in sorted order.
func (s Snapshot) Zones() []enums.ShippingZone {
	zones := make([]enums.ShippingZone, 0, len(s.RateCards))
	for zone := range s.RateCards {
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i] < zones[j] })
	return zones
}

// Validate reports every problem across all tables at once.
func (s Snapshot) Validate() error {
	var errs error
	errs = multierr.Append(errs, s.Pricing.Validate())
	errs = multierr.Append(errs, s.Shipping.Validate())
	if !s.Pricing.LogisticsSurcharge.Equal(s.Shipping.LogisticsSurcharge) {
		errs = multierr.Append(errs, fmt.Errorf("logistics_surcharge: pricing %s and shipping %s disagree",
			s.Pricing.LogisticsSurcharge, s.Shipping.LogisticsSurcharge))
	}
	for _, zone := range s.Zones() {
		card := s.RateCards[zone]
		if card.Zone != zone {
			errs = multierr.Append(errs, fmt.Errorf("zone %s: rate card is labelled %q", zone, card.Zone))
		}
		errs = multierr.Append(errs, card.Validate())
	}
	if s.EscrowHoldDays < 0 {
		errs = multierr.Append(errs, fmt.Errorf("escrow_hold_days: %d must not be negative", s.EscrowHoldDays))
	}
	if s.DeviationThreshold.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("price_deviation_threshold: %s must not be negative", s.DeviationThreshold))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, errs, "invalid settings")
	}
	return nil
}
