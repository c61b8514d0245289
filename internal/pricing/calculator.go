package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// Calculate turns a vendor asking price into the customer price and its split.
// It is a pure function of its arguments and safe for concurrent use as long as
// cfg is not mutated.
func Calculate(in PricingInput, cfg Config) (PricingResult, error) {
	if err := in.Validate(); err != nil {
		return PricingResult{}, err
	}

	base := in.VendorBasePrice

	cooperativeFee := decimal.Zero
	if in.IsNonLegalizedVendor {
		cooperativeFee = money.Mul(base, cfg.CooperativeFeeRate)
	}
	priceAfterCooperative := money.Sum(base, cooperativeFee)

	parentUplift := parentUpliftFor(in, base)

	rate, source := cfg.RateFor(in.CategoryID)
	uplift := money.Mul(priceAfterCooperative, rate)
	minimumApplied, lowPriceApplied := false, false
	if in.CustomUpliftOverride.Valid {
		rate, source = decimal.Zero, enums.UpliftSourceOverride
		uplift = in.CustomUpliftOverride.Decimal
	} else {
		if uplift.LessThan(cfg.MinimumFixedUplift) {
			uplift = money.Round(cfg.MinimumFixedUplift)
			minimumApplied = true
		}
		// Strictly below the threshold: a base price equal to it is not "low".
		if base.LessThan(cfg.LowPriceThreshold) && uplift.LessThan(cfg.LowPriceFixedMarkup) {
			uplift = money.Round(cfg.LowPriceFixedMarkup)
			lowPriceApplied = true
		}
	}

	surcharge := money.Round(cfg.LogisticsSurcharge)

	bucketA := money.Sum(base, parentUplift)
	bucketB := decimal.Zero
	if in.IsVendorVATRegistered {
		bucketB = money.Mul(bucketA, cfg.VATRate)
	}
	bucketC := money.Sum(cooperativeFee, uplift, surcharge)
	bucketD := money.Mul(bucketC, cfg.VATRate)
	finalPrice := money.Sum(bucketA, bucketB, bucketC, bucketD)

	result := PricingResult{
		CategoryID:             in.CategoryID,
		VendorBasePrice:        base,
		CooperativeFee:         cooperativeFee,
		PriceAfterCooperative:  priceAfterCooperative,
		ParentUplift:           parentUplift,
		UpliftRate:             rate,
		UpliftSource:           source,
		MarketplaceUplift:      uplift,
		MinimumUpliftApplied:   minimumApplied,
		LowPriceFloorApplied:   lowPriceApplied,
		LogisticsSurcharge:     surcharge,
		BucketA:                bucketA,
		BucketB:                bucketB,
		BucketC:                bucketC,
		BucketD:                bucketD,
		FinalPrice:             finalPrice,
		TotalVAT:               money.Sum(bucketB, bucketD),
		VendorNetPayout:        base,
		EffectiveMarginPercent: money.Percent(bucketC, finalPrice),
	}

	if !result.Reconstructs() {
		return PricingResult{}, pkgerrors.New(pkgerrors.CodeInvariant,
			fmt.Sprintf("buckets %s+%s+%s+%s do not reconstruct final price %s",
				bucketA, bucketB, bucketC, bucketD, finalPrice))
	}
	return result, nil
}

// parentUpliftFor rewards the vendor's own price, so percentages apply to the
// base price and not to the post-cooperative price.
func parentUpliftFor(in PricingInput, base decimal.Decimal) decimal.Decimal {
	switch in.upliftKind() {
	case enums.UpliftKindFixed:
		return in.ParentUpliftValue
	case enums.UpliftKindPercentage:
		return money.Mul(base, in.ParentUpliftValue)
	default:
		return decimal.Zero
	}
}
