package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/pkg/enums"
)

// PricingResult is the immutable outcome of a price breakdown.
//
//	BucketA  vendor revenue   = base + parent uplift
//	BucketB  vendor VAT       = A * vat when the vendor is VAT registered
//	BucketC  platform revenue = cooperative fee + marketplace uplift + logistics surcharge
//	BucketD  platform VAT     = C * vat
//
// FinalPrice always equals A + B + C + D exactly.
type PricingResult struct {
	CategoryID            string             `json:"category_id"`
	VendorBasePrice       decimal.Decimal    `json:"vendor_base_price"`
	CooperativeFee        decimal.Decimal    `json:"cooperative_fee"`
	PriceAfterCooperative decimal.Decimal    `json:"price_after_cooperative"`
	ParentUplift          decimal.Decimal    `json:"parent_uplift"`
	UpliftRate            decimal.Decimal    `json:"uplift_rate"`
	UpliftSource          enums.UpliftSource `json:"uplift_source"`
	MarketplaceUplift     decimal.Decimal    `json:"marketplace_uplift"`
	MinimumUpliftApplied  bool               `json:"minimum_uplift_applied"`
	LowPriceFloorApplied  bool               `json:"low_price_floor_applied"`
	LogisticsSurcharge    decimal.Decimal    `json:"logistics_surcharge"`

	BucketA decimal.Decimal `json:"bucket_a_vendor_revenue"`
	BucketB decimal.Decimal `json:"bucket_b_vendor_vat"`
	BucketC decimal.Decimal `json:"bucket_c_platform_revenue"`
	BucketD decimal.Decimal `json:"bucket_d_platform_vat"`

	FinalPrice             decimal.Decimal `json:"final_price"`
	TotalVAT               decimal.Decimal `json:"total_vat"`
	VendorNetPayout        decimal.Decimal `json:"vendor_net_payout"`
	EffectiveMarginPercent decimal.Decimal `json:"effective_margin_percent"`
}

// UsedFallbackRate reports whether the category was missing from the table.
func (r PricingResult) UsedFallbackRate() bool {
	return r.UpliftSource == enums.UpliftSourceGlobal
}

// Reconstructs reports whether the four buckets add up to the final price.
func (r PricingResult) Reconstructs() bool {
	return r.BucketA.Add(r.BucketB).Add(r.BucketC).Add(r.BucketD).Equal(r.FinalPrice)
}
