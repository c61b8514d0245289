package deviation

import (
	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// DefaultThreshold flags prices more than 20% away from their category average.
var DefaultThreshold = money.MustParse("0.20")

// PriceDeviationResult is the verdict on a proposed price.
type PriceDeviationResult struct {
	Price            decimal.Decimal          `json:"price"`
	CategoryAverage  decimal.Decimal          `json:"category_average"`
	Deviation        decimal.Decimal          `json:"deviation"`
	DeviationPercent decimal.Decimal          `json:"deviation_percent"`
	Direction        enums.DeviationDirection `json:"direction"`
	Threshold        decimal.Decimal          `json:"threshold"`
	Flagged          bool                     `json:"flagged"`
}

// Check flags a price whose relative distance from the category average is
// strictly greater than threshold. A zero average means there is no category
// data yet, so nothing is flagged.
func Check(price, categoryAverage, threshold decimal.Decimal) (PriceDeviationResult, error) {
	if price.IsNegative() {
		return PriceDeviationResult{}, pkgerrors.Invalid("price", "must not be negative")
	}
	if categoryAverage.IsNegative() {
		return PriceDeviationResult{}, pkgerrors.Invalid("category_average", "must not be negative")
	}
	if threshold.IsNegative() {
		return PriceDeviationResult{}, pkgerrors.Invalid("threshold", "must not be negative")
	}

	result := PriceDeviationResult{
		Price:            price,
		CategoryAverage:  categoryAverage,
		Deviation:        decimal.Zero,
		DeviationPercent: decimal.Zero,
		Direction:        enums.DeviationDirectionAt,
		Threshold:        threshold,
	}
	if categoryAverage.IsZero() {
		return result, nil
	}

	deviation := price.Sub(categoryAverage).Div(categoryAverage)
	result.Deviation = deviation
	result.DeviationPercent = money.Round(deviation.Abs().Mul(money.Hundred))
	switch deviation.Sign() {
	case 1:
		result.Direction = enums.DeviationDirectionAbove
	case -1:
		result.Direction = enums.DeviationDirectionBelow
	}
	// Exactly at the threshold is not flagged.
	result.Flagged = deviation.Abs().GreaterThan(threshold)
	return result, nil
}

// CategoryAverage is the mean of the supplied prices at two decimals; zero when
// there are none.
func CategoryAverage(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, prices...).DivRound(decimal.NewFromInt(int64(len(prices))), money.Places)
}
