package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// LineItem is one priced product in a checkout.
type LineItem struct {
	Result   PricingResult
	Quantity int
}

// Logistics is the delivery fee settled separately by the shipping calculator.
type Logistics struct {
	CustomerFee decimal.Decimal
	Subsidy     decimal.Decimal
}

// CheckoutWaterfall aggregates the four product buckets across an order and
// adds the fifth, the customer-facing logistics fee.
type CheckoutWaterfall struct {
	Lines int `json:"lines"`
	Units int `json:"units"`

	VendorRevenue   decimal.Decimal `json:"bucket_a_vendor_revenue"`
	VendorVAT       decimal.Decimal `json:"bucket_b_vendor_vat"`
	PlatformRevenue decimal.Decimal `json:"bucket_c_platform_revenue"`
	PlatformVAT     decimal.Decimal `json:"bucket_d_platform_vat"`
	LogisticsFee    decimal.Decimal `json:"bucket_e_logistics_fee"`

	ProductsTotal    decimal.Decimal `json:"products_total"`
	Total            decimal.Decimal `json:"total"`
	VendorPayout     decimal.Decimal `json:"vendor_payout"`
	ParentUplift     decimal.Decimal `json:"parent_uplift"`
	TotalVAT         decimal.Decimal `json:"total_vat"`
	LogisticsSubsidy decimal.Decimal `json:"logistics_subsidy"`
}

// BuildCheckoutWaterfall sums line results by quantity. Total equals the sum of
// the five buckets exactly.
func BuildCheckoutWaterfall(lines []LineItem, logistics Logistics) (CheckoutWaterfall, error) {
	if len(lines) == 0 {
		return CheckoutWaterfall{}, pkgerrors.Invalid("lines", "must not be empty")
	}
	if logistics.CustomerFee.IsNegative() || logistics.Subsidy.IsNegative() {
		return CheckoutWaterfall{}, pkgerrors.Invalid("logistics", "fees must not be negative")
	}

	w := CheckoutWaterfall{Lines: len(lines)}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return CheckoutWaterfall{}, pkgerrors.Invalid(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
		if !line.Result.Reconstructs() {
			return CheckoutWaterfall{}, pkgerrors.New(pkgerrors.CodeInvariant,
				fmt.Sprintf("line %d result does not reconstruct its final price", i))
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		w.Units += line.Quantity
		w.VendorRevenue = w.VendorRevenue.Add(line.Result.BucketA.Mul(qty))
		w.VendorVAT = w.VendorVAT.Add(line.Result.BucketB.Mul(qty))
		w.PlatformRevenue = w.PlatformRevenue.Add(line.Result.BucketC.Mul(qty))
		w.PlatformVAT = w.PlatformVAT.Add(line.Result.BucketD.Mul(qty))
		w.VendorPayout = w.VendorPayout.Add(line.Result.VendorNetPayout.Mul(qty))
		w.ParentUplift = w.ParentUplift.Add(line.Result.ParentUplift.Mul(qty))
	}

	w.VendorRevenue = money.Round(w.VendorRevenue)
	w.VendorVAT = money.Round(w.VendorVAT)
	w.PlatformRevenue = money.Round(w.PlatformRevenue)
	w.PlatformVAT = money.Round(w.PlatformVAT)
	w.VendorPayout = money.Round(w.VendorPayout)
	w.ParentUplift = money.Round(w.ParentUplift)
	w.LogisticsFee = money.Round(logistics.CustomerFee)
	w.LogisticsSubsidy = money.Round(logistics.Subsidy)

	w.ProductsTotal = money.Sum(w.VendorRevenue, w.VendorVAT, w.PlatformRevenue, w.PlatformVAT)
	w.Total = money.Sum(w.ProductsTotal, w.LogisticsFee)
	w.TotalVAT = money.Sum(w.VendorVAT, w.PlatformVAT)
	return w, nil
}
