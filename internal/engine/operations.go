package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/internal/deviation"
	"github.com/arooba/pricing-engine/internal/escrow"
	"github.com/arooba/pricing-engine/internal/pricing"
	"github.com/arooba/pricing-engine/internal/shipping"
	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

const (
	OpPriceBreakdown = "price_breakdown"
	OpShippingFee    = "shipping_fee"
	OpEscrowRelease  = "escrow_release"
	OpPriceDeviation = "price_deviation"
	OpCheckout       = "checkout"
)

// PriceProduct computes the price breakdown of a product against the current table.
func (s *Service) PriceProduct(ctx context.Context, in pricing.PricingInput) (result pricing.PricingResult, err error) {
	ctx = s.logg.WithCategory(ctx, in.CategoryID)
	if in.VendorID != "" {
		ctx = s.logg.WithVendorID(ctx, in.VendorID)
	}
	start := time.Now()
	defer func() { s.observe(ctx, OpPriceBreakdown, start, err) }()

	result, err = pricing.Calculate(in, s.tables().Pricing)
	if err == nil && result.UsedFallbackRate() && s.metrics != nil {
		s.metrics.IncFallbackRate(in.CategoryID)
	}
	return result, err
}

// QuoteShipping prices a shipment of one or more parcels to a zone.
func (s *Service) QuoteShipping(ctx context.Context, zone enums.ShippingZone, parcels []shipping.Parcel) (result shipping.ShippingFeeResult, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, OpShippingFee, start, err) }()

	tables := s.tables()
	card, err := tables.RateCard(zone)
	if err != nil {
		return shipping.ShippingFeeResult{}, err
	}
	return shipping.CalculateParcels(parcels, card, tables.Shipping)
}

// EscrowStatus reports when funds for an order delivered at deliveredAt are
// released and how much of the hold is left.
func (s *Service) EscrowStatus(ctx context.Context, deliveredAt time.Time) (result escrow.EscrowResult, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, OpEscrowRelease, start, err) }()

	return escrow.Release(deliveredAt, s.tables().EscrowHoldDays, s.now())
}

// ReviewPrice decides whether a proposed price needs manual approval.
func (s *Service) ReviewPrice(ctx context.Context, price, categoryAverage decimal.Decimal) (result deviation.PriceDeviationResult, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, OpPriceDeviation, start, err) }()

	result, err = deviation.Check(price, categoryAverage, s.tables().DeviationThreshold)
	if err == nil && result.Flagged {
		if s.metrics != nil {
			s.metrics.IncFlagged()
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"price":             result.Price.StringFixed(2),
			"category_average":  result.CategoryAverage.StringFixed(2),
			"deviation_percent": result.DeviationPercent.String(),
		}), "price flagged for review")
	}
	return result, err
}

// ReviewPriceAgainstCategory averages the category's current prices and
// reviews price against that average. No prices means no category data yet.
func (s *Service) ReviewPriceAgainstCategory(ctx context.Context, price decimal.Decimal, categoryPrices []decimal.Decimal) (deviation.PriceDeviationResult, error) {
	for i, p := range categoryPrices {
		if p.IsNegative() {
			err := pkgerrors.New(pkgerrors.CodeValidation, "prices must not contain negative amounts").
				WithDetails(map[string]any{"field": "prices", "reason": "must not be negative", "index": i})
			s.observe(ctx, OpPriceDeviation, time.Now(), err)
			return deviation.PriceDeviationResult{}, err
		}
	}
	return s.ReviewPrice(ctx, price, deviation.CategoryAverage(categoryPrices))
}

// CheckoutLine is one product and quantity in an order.
type CheckoutLine struct {
	Input    pricing.PricingInput `json:"input"`
	Quantity int                  `json:"quantity"`
}

// CheckoutRequest describes an order to quote end to end.
type CheckoutRequest struct {
	OrderID string             `json:"order_id,omitempty"`
	Lines   []CheckoutLine     `json:"lines"`
	Zone    enums.ShippingZone `json:"zone"`
	Parcels []shipping.Parcel  `json:"parcels"`
}

// CheckoutQuote is the full breakdown of an order.
type CheckoutQuote struct {
	Lines     []pricing.PricingResult    `json:"lines"`
	Shipping  shipping.ShippingFeeResult `json:"shipping"`
	Waterfall pricing.CheckoutWaterfall  `json:"waterfall"`
}

// Checkout prices every line and the shipment against a single snapshot and
// folds them into the order waterfall.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (quote CheckoutQuote, err error) {
	if req.OrderID != "" {
		ctx = s.logg.WithOrderID(ctx, req.OrderID)
	}
	start := time.Now()
	defer func() { s.observe(ctx, OpCheckout, start, err) }()

	if len(req.Lines) == 0 {
		return CheckoutQuote{}, pkgerrors.Invalid("lines", "must not be empty")
	}
	tables := s.tables()

	items := make([]pricing.LineItem, 0, len(req.Lines))
	quote.Lines = make([]pricing.PricingResult, 0, len(req.Lines))
	for i, line := range req.Lines {
		result, calcErr := pricing.Calculate(line.Input, tables.Pricing)
		if calcErr != nil {
			return CheckoutQuote{}, annotateLine(calcErr, i)
		}
		quote.Lines = append(quote.Lines, result)
		items = append(items, pricing.LineItem{Result: result, Quantity: line.Quantity})
	}

	card, err := tables.RateCard(req.Zone)
	if err != nil {
		return CheckoutQuote{}, err
	}
	quote.Shipping, err = shipping.CalculateParcels(req.Parcels, card, tables.Shipping)
	if err != nil {
		return CheckoutQuote{}, err
	}

	quote.Waterfall, err = pricing.BuildCheckoutWaterfall(items, pricing.Logistics{
		CustomerFee: quote.Shipping.CustomerFee,
		Subsidy:     quote.Shipping.AroobaSubsidy,
	})
	if err != nil {
		return CheckoutQuote{}, err
	}
	return quote, nil
}

func annotateLine(err error, index int) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	return pkgerrors.Wrap(typed.Code(), err, fmt.Sprintf("line %d", index)).
		WithDetails(map[string]any{"line": index, "cause": typed.Details()})
}
