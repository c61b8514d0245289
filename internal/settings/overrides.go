package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/arooba/pricing-engine/internal/pricing"
	"github.com/arooba/pricing-engine/internal/shipping"
	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

// Override field names. Category and zone fields are prefixed with the id,
// e.g. "category:toys" = "0.10,0.20,0.15" and "zone:remote" = "95,12".
const (
	FieldVATRate             = "vat_rate"
	FieldCooperativeFeeRate  = "cooperative_fee_rate"
	FieldMinimumFixedUplift  = "minimum_fixed_uplift"
	FieldLowPriceThreshold   = "low_price_threshold"
	FieldLowPriceFixedMarkup = "low_price_fixed_markup"
	FieldLogisticsSurcharge  = "logistics_surcharge"
	FieldGlobalUpliftRate    = "global_uplift_rate"
	FieldVolumetricDivisor   = "volumetric_divisor"
	FieldMaxSubsidyRatio     = "max_subsidy_ratio"
	FieldIncludedWeightKg    = "included_weight_kg"
	FieldEscrowHoldDays      = "escrow_hold_days"
	FieldDeviationThreshold  = "price_deviation_threshold"

	categoryPrefix = "category:"
	zonePrefix     = "zone:"
)

var decimalFields = map[string]func(*Snapshot, decimal.Decimal){
	FieldVATRate:             func(s *Snapshot, d decimal.Decimal) { s.Pricing.VATRate = d },
	FieldCooperativeFeeRate:  func(s *Snapshot, d decimal.Decimal) { s.Pricing.CooperativeFeeRate = d },
	FieldMinimumFixedUplift:  func(s *Snapshot, d decimal.Decimal) { s.Pricing.MinimumFixedUplift = d },
	FieldLowPriceThreshold:   func(s *Snapshot, d decimal.Decimal) { s.Pricing.LowPriceThreshold = d },
	FieldLowPriceFixedMarkup: func(s *Snapshot, d decimal.Decimal) { s.Pricing.LowPriceFixedMarkup = d },
	FieldGlobalUpliftRate:    func(s *Snapshot, d decimal.Decimal) { s.Pricing.GlobalUpliftRate = d },
	FieldLogisticsSurcharge: func(s *Snapshot, d decimal.Decimal) {
		s.Pricing.LogisticsSurcharge = d
		s.Shipping.LogisticsSurcharge = d
	},
	FieldVolumetricDivisor:  func(s *Snapshot, d decimal.Decimal) { s.Shipping.VolumetricDivisor = d },
	FieldMaxSubsidyRatio:    func(s *Snapshot, d decimal.Decimal) { s.Shipping.MaxSubsidyRatio = d },
	FieldIncludedWeightKg:   func(s *Snapshot, d decimal.Decimal) { s.Shipping.IncludedWeightKg = d },
	FieldDeviationThreshold: func(s *Snapshot, d decimal.Decimal) { s.DeviationThreshold = d },
}

// ApplyOverrides layers admin-supplied fields over s and returns the result.
// s itself is never modified. Every malformed field is reported; none is
// applied partially.
func ApplyOverrides(s Snapshot, fields map[string]string) (Snapshot, error) {
	return applyLayer(s, fields, "overrides", "invalid pricing overrides")
}

func applyLayer(s Snapshot, fields map[string]string, source, message string) (Snapshot, error) {
	if len(fields) == 0 {
		return s, nil
	}
	out := s.Clone()

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs error
	for _, key := range keys {
		errs = multierr.Append(errs, applyField(&out, strings.TrimSpace(key), strings.TrimSpace(fields[key])))
	}
	if errs != nil {
		return s, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errs, message).
			WithDetails(map[string]any{"fields": len(multierr.Errors(errs))})
	}
	out.Sources = append(out.Sources, source)
	return out, nil
}

func applyField(s *Snapshot, key, value string) error {
	if set, ok := decimalFields[key]; ok {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, value)
		}
		set(s, d)
		return nil
	}

	switch {
	case key == FieldEscrowHoldDays:
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a whole number of days", key, value)
		}
		s.EscrowHoldDays = days
		return nil
	case strings.HasPrefix(key, categoryPrefix):
		id := strings.TrimPrefix(key, categoryPrefix)
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s: category id is empty", key)
		}
		parts, err := splitDecimals(key, value, 3)
		if err != nil {
			return err
		}
		s.Pricing = s.Pricing.WithCategory(id, pricing.CategoryRate{Min: parts[0], Max: parts[1], Default: parts[2]})
		return nil
	case strings.HasPrefix(key, zonePrefix):
		zone, err := enums.ParseShippingZone(strings.TrimPrefix(key, zonePrefix))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		parts, err := splitDecimals(key, value, 2)
		if err != nil {
			return err
		}
		s.RateCards[zone] = shipping.RateCard{Zone: zone, BaseFee: parts[0], PerKgRate: parts[1]}
		return nil
	}
	return fmt.Errorf("%s: unknown override field", key)
}

func splitDecimals(key, value string, want int) ([]decimal.Decimal, error) {
	raw := strings.Split(value, ",")
	if len(raw) != want {
		return nil, fmt.Errorf("%s: expected %d comma separated values, got %q", key, want, value)
	}
	out := make([]decimal.Decimal, 0, want)
	for _, part := range raw {
		d, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", key, part)
		}
		out = append(out, d)
	}
	return out, nil
}
