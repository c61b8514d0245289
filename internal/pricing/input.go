package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// PricingInput is everything a product collaborator knows when asking for a price.
type PricingInput struct {
	VendorID              string           `json:"vendor_id,omitempty"`
	VendorBasePrice       decimal.Decimal  `json:"vendor_base_price" validate:"dpos"`
	CategoryID            string           `json:"category_id"`
	IsVendorVATRegistered bool             `json:"is_vendor_vat_registered"`
	IsNonLegalizedVendor  bool             `json:"is_non_legalized_vendor"`
	ParentUpliftKind      enums.UpliftKind `json:"parent_uplift_kind" validate:"omitempty,oneof=none fixed percentage"`
	// ParentUpliftValue is a money amount for fixed uplifts and a fraction of the
	// vendor base price (0.10 = 10%) for percentage uplifts.
	ParentUpliftValue decimal.Decimal `json:"parent_uplift_value" validate:"dgte0"`
	// CustomUpliftOverride, when valid, is the marketplace uplift amount itself.
	// It bypasses the category rate and both floors.
	CustomUpliftOverride decimal.NullDecimal `json:"custom_uplift_override" validate:"omitempty,dgte0"`
}

// Validate rejects input the calculator refuses to price. Nothing is clamped
// or rounded: money inputs must already sit on whole cents.
func (in PricingInput) Validate() error {
	if !in.VendorBasePrice.IsPositive() {
		return pkgerrors.Invalid("vendor_base_price", "must be positive")
	}
	if !money.IsSettled(in.VendorBasePrice) {
		return pkgerrors.Invalid("vendor_base_price", "must not carry more than two decimals")
	}
	kind := in.upliftKind()
	if !kind.IsValid() {
		return pkgerrors.Invalid("parent_uplift_kind", "must be one of none, fixed, percentage")
	}
	if kind != enums.UpliftKindNone && in.ParentUpliftValue.IsNegative() {
		return pkgerrors.Invalid("parent_uplift_value", "must not be negative")
	}
	if kind == enums.UpliftKindFixed && !money.IsSettled(in.ParentUpliftValue) {
		return pkgerrors.Invalid("parent_uplift_value", "must not carry more than two decimals")
	}
	if in.CustomUpliftOverride.Valid && in.CustomUpliftOverride.Decimal.IsNegative() {
		return pkgerrors.Invalid("custom_uplift_override", "must not be negative")
	}
	if in.CustomUpliftOverride.Valid && !money.IsSettled(in.CustomUpliftOverride.Decimal) {
		return pkgerrors.Invalid("custom_uplift_override", "must not carry more than two decimals")
	}
	return nil
}

func (in PricingInput) upliftKind() enums.UpliftKind {
	if in.ParentUpliftKind == "" {
		return enums.UpliftKindNone
	}
	return in.ParentUpliftKind
}
