package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// Parcel is a single box handed to the courier.
type Parcel struct {
	ActualWeightKg decimal.Decimal `json:"actual_weight_kg" validate:"dgte0"`
	LengthCm       decimal.Decimal `json:"length_cm" validate:"dgte0"`
	WidthCm        decimal.Decimal `json:"width_cm" validate:"dgte0"`
	HeightCm       decimal.Decimal `json:"height_cm" validate:"dgte0"`
}

func (p Parcel) validate(prefix string) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"actual_weight_kg", p.ActualWeightKg},
		{"length_cm", p.LengthCm},
		{"width_cm", p.WidthCm},
		{"height_cm", p.HeightCm},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return pkgerrors.Invalid(prefix+f.name, "must not be negative")
		}
	}
	return nil
}

// ShippingFeeInput describes one shipment against its destination rate card.
type ShippingFeeInput struct {
	Parcel
	RateCard RateCard `json:"rate_card"`
}

// ShippingFeeResult is the fee breakdown of a shipment.
// ChargeableWeightKg is never below the actual or the volumetric weight.
type ShippingFeeResult struct {
	Zone               enums.ShippingZone `json:"zone"`
	Parcels            int                `json:"parcels"`
	ActualWeightKg     decimal.Decimal    `json:"actual_weight_kg"`
	VolumetricWeightKg decimal.Decimal    `json:"volumetric_weight_kg"`
	ChargeableWeightKg decimal.Decimal    `json:"chargeable_weight_kg"`
	ExcessWeightKg     decimal.Decimal    `json:"excess_weight_kg"`
	BaseFee            decimal.Decimal    `json:"base_fee"`
	ExcessWeightFee    decimal.Decimal    `json:"excess_weight_fee"`
	TotalFee           decimal.Decimal    `json:"total_fee"`
	CustomerFee        decimal.Decimal    `json:"customer_fee"`
	AroobaSubsidy      decimal.Decimal    `json:"arooba_subsidy"`
}

// VolumetricWeight converts dimensions in centimetres into a weight proxy in kilograms.
func VolumetricWeight(p Parcel, divisor decimal.Decimal) decimal.Decimal {
	return p.LengthCm.Mul(p.WidthCm).Mul(p.HeightCm).DivRound(divisor, WeightPlaces)
}

// CalculateFee prices a single-parcel shipment.
func CalculateFee(in ShippingFeeInput, cfg Config) (ShippingFeeResult, error) {
	return CalculateParcels([]Parcel{in.Parcel}, in.RateCard, cfg)
}

// CalculateParcels prices a shipment made of several parcels. Actual and
// volumetric weights are summed separately before the larger is charged.
func CalculateParcels(parcels []Parcel, card RateCard, cfg Config) (ShippingFeeResult, error) {
	if len(parcels) == 0 {
		return ShippingFeeResult{}, pkgerrors.Invalid("parcels", "must not be empty")
	}
	if err := card.Validate(); err != nil {
		return ShippingFeeResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate card")
	}
	if !cfg.VolumetricDivisor.IsPositive() {
		return ShippingFeeResult{}, pkgerrors.New(pkgerrors.CodeConfiguration, "volumetric divisor must be positive")
	}

	actual, volumetric := decimal.Zero, decimal.Zero
	for i, parcel := range parcels {
		prefix := ""
		if len(parcels) > 1 {
			prefix = fmt.Sprintf("parcels[%d].", i)
		}
		if err := parcel.validate(prefix); err != nil {
			return ShippingFeeResult{}, err
		}
		actual = actual.Add(parcel.ActualWeightKg.Round(WeightPlaces))
		volumetric = volumetric.Add(VolumetricWeight(parcel, cfg.VolumetricDivisor))
	}

	chargeable := money.Max(actual, volumetric)
	excess := money.Max(decimal.Zero, chargeable.Sub(cfg.IncludedWeightKg))

	baseFee := money.Round(card.BaseFee)
	excessFee := money.Mul(excess, card.PerKgRate)
	total := money.Sum(baseFee, excessFee)

	// The platform never absorbs more than MaxSubsidyRatio of the total.
	floor := money.Mul(total, money.One.Sub(cfg.MaxSubsidyRatio))
	customerFee := money.Max(money.Round(total.Sub(cfg.LogisticsSurcharge)), floor)

	return ShippingFeeResult{
		Zone:               card.Zone,
		Parcels:            len(parcels),
		ActualWeightKg:     actual,
		VolumetricWeightKg: volumetric,
		ChargeableWeightKg: chargeable,
		ExcessWeightKg:     excess,
		BaseFee:            baseFee,
		ExcessWeightFee:    excessFee,
		TotalFee:           total,
		CustomerFee:        customerFee,
		AroobaSubsidy:      money.Round(total.Sub(customerFee)),
	}, nil
}
