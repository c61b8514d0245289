package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arooba/pricing-engine/internal/pricing"
	"github.com/arooba/pricing-engine/internal/settings"
	"github.com/arooba/pricing-engine/internal/shipping"
	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/logger"
	"github.com/arooba/pricing-engine/pkg/metrics"
	"github.com/arooba/pricing-engine/pkg/money"
)

func d(raw string) decimal.Decimal {
	return money.MustParse(raw)
}

type fixture struct {
	service *Service
	logs    *bytes.Buffer
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, loader SnapshotLoader) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	reg := prometheus.NewRegistry()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "engine-test", Output: logs}),
		Settings: settings.Defaults(),
		Loader:   loader,
		Metrics:  metrics.NewCalculationMetrics(reg),
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return fixture{service: service, logs: logs, reg: reg}
}

func fragile400() pricing.PricingInput {
	return pricing.PricingInput{VendorBasePrice: d("400"), CategoryID: "fragile", IsNonLegalizedVendor: true}
}

func TestNewServiceRequiresLoggerAndValidSettings(t *testing.T) {
	_, err := NewService(ServiceParams{Settings: settings.Defaults()})
	require.Error(t, err)

	bad := settings.Defaults()
	bad.EscrowHoldDays = -1
	_, err = NewService(ServiceParams{Logger: logger.Nop(), Settings: bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestPriceProductRecordsOutcome(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.service.PriceProduct(ctx, fragile400())
	require.NoError(t, err)
	assert.Equal(t, "553.90", money.Format(result.FinalPrice))

	_, err = f.service.PriceProduct(ctx, pricing.PricingInput{VendorBasePrice: d("-1"), CategoryID: "fragile"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.service.PriceProduct(ctx, pricing.PricingInput{VendorBasePrice: d("50"), CategoryID: "pottery"})
	require.NoError(t, err)

	assert.Equal(t, float64(2), f.counter(t, "pricing_calculations_total", map[string]string{"operation": OpPriceBreakdown, "outcome": metrics.OutcomeOK}))
	assert.Equal(t, float64(1), f.counter(t, "pricing_calculations_total", map[string]string{"operation": OpPriceBreakdown, "outcome": metrics.OutcomeInvalid}))
	assert.Equal(t, float64(1), f.counter(t, "pricing_fallback_uplift_rate_total", map[string]string{"category": "pottery"}))
	assert.Contains(t, f.logs.String(), "rejected calculation input")
	assert.Contains(t, f.logs.String(), `"category_id":"fragile"`)
}

func TestQuoteShippingUsesZoneRateCard(t *testing.T) {
	f := newFixture(t, nil)
	result, err := f.service.QuoteShipping(context.Background(), enums.ShippingZoneCairoGiza, []shipping.Parcel{
		{ActualWeightKg: d("2"), LengthCm: d("50"), WidthCm: d("40"), HeightCm: d("30")},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", money.Format(result.TotalFee))
	assert.Equal(t, "90.00", money.Format(result.CustomerFee))

	_, err = f.service.QuoteShipping(context.Background(), enums.ShippingZone("atlantis"), []shipping.Parcel{{ActualWeightKg: d("1")}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEscrowStatusUsesClockAndHoldDays(t *testing.T) {
	f := newFixture(t, nil)
	delivered := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	result, err := f.service.EscrowStatus(context.Background(), delivered)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), result.ReleaseAt)
	assert.True(t, result.IsReleased)
	assert.Zero(t, result.HoldRemaining)

	next := settings.Defaults()
	next.EscrowHoldDays = 30
	require.NoError(t, f.service.Reload(context.Background(), next))

	result, err = f.service.EscrowStatus(context.Background(), delivered)
	require.NoError(t, err)
	assert.False(t, result.IsReleased)
	assert.Equal(t, 11*24*time.Hour-150*time.Minute, result.HoldRemaining)
}

func TestReviewPriceCountsFlags(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.service.ReviewPrice(ctx, d("130"), d("100"))
	require.NoError(t, err)
	assert.True(t, result.Flagged)

	result, err = f.service.ReviewPrice(ctx, d("120"), d("100"))
	require.NoError(t, err)
	assert.False(t, result.Flagged)

	assert.Equal(t, float64(1), f.counter(t, "pricing_price_deviation_flagged_total", nil))
	assert.Contains(t, f.logs.String(), "price flagged for review")
}

func TestReviewPriceAgainstCategoryAveragesPrices(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.service.ReviewPriceAgainstCategory(ctx, d("130"), []decimal.Decimal{d("90"), d("100"), d("110")})
	require.NoError(t, err)
	assert.Equal(t, "100.00", money.Format(result.CategoryAverage))
	assert.True(t, result.Flagged)

	result, err = f.service.ReviewPriceAgainstCategory(ctx, d("500"), nil)
	require.NoError(t, err)
	assert.True(t, result.CategoryAverage.IsZero())
	assert.False(t, result.Flagged)

	_, err = f.service.ReviewPriceAgainstCategory(ctx, d("10"), []decimal.Decimal{d("5"), d("-1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPreviewOverridesAggregatesFieldErrors(t *testing.T) {
	f := newFixture(t, nil)

	preview, err := f.service.PreviewOverrides(context.Background(), map[string]string{settings.FieldVATRate: "0.15"})
	require.NoError(t, err)
	assert.Equal(t, "0.15", preview.Pricing.VATRate.String())
	assert.Equal(t, "0.14", f.service.Snapshot().Pricing.VATRate.String())

	_, err = f.service.PreviewOverrides(context.Background(), map[string]string{
		settings.FieldVATRate:        "lots",
		settings.FieldEscrowHoldDays: "soon",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	assert.Len(t, pkgerrors.Dump(err).Causes, 2)
}

func TestContextIDsReachLogs(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.PriceProduct(context.Background(), pricing.PricingInput{VendorID: "vendor-7", VendorBasePrice: d("99.995")})
	require.Error(t, err)

	_, err = f.service.Checkout(context.Background(), CheckoutRequest{
		OrderID: "order-42",
		Lines:   []CheckoutLine{{Input: pricing.PricingInput{VendorBasePrice: d("0.005")}, Quantity: 1}},
		Zone:    enums.ShippingZoneDelta,
		Parcels: []shipping.Parcel{{ActualWeightKg: d("1")}},
	})
	require.Error(t, err)

	logs := f.logs.String()
	assert.Contains(t, logs, `"vendor_id":"vendor-7"`)
	assert.Contains(t, logs, `"order_id":"order-42"`)
}

func TestCheckoutBuildsWaterfall(t *testing.T) {
	f := newFixture(t, nil)
	quote, err := f.service.Checkout(context.Background(), CheckoutRequest{
		Lines: []CheckoutLine{{Input: fragile400(), Quantity: 2}},
		Zone:  enums.ShippingZoneCairoGiza,
		Parcels: []shipping.Parcel{
			{ActualWeightKg: d("2"), LengthCm: d("50"), WidthCm: d("40"), HeightCm: d("30")},
		},
	})
	require.NoError(t, err)
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, "1107.80", money.Format(quote.Waterfall.ProductsTotal))
	assert.Equal(t, "90.00", money.Format(quote.Waterfall.LogisticsFee))
	assert.Equal(t, "10.00", money.Format(quote.Waterfall.LogisticsSubsidy))
	assert.Equal(t, "1197.80", money.Format(quote.Waterfall.Total))
}

func TestCheckoutAnnotatesFailingLine(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.Checkout(context.Background(), CheckoutRequest{
		Lines: []CheckoutLine{
			{Input: fragile400(), Quantity: 1},
			{Input: pricing.PricingInput{VendorBasePrice: decimal.Zero}, Quantity: 1},
		},
		Zone:    enums.ShippingZoneDelta,
		Parcels: []shipping.Parcel{{ActualWeightKg: d("1")}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["line"])

	_, err = f.service.Checkout(context.Background(), CheckoutRequest{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReloadRejectsInvalidSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	bad := settings.Defaults()
	bad.Pricing.VATRate = d("2")

	err := f.service.Reload(context.Background(), bad)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	assert.True(t, f.service.Snapshot().Pricing.VATRate.Equal(d("0.14")))

	assert.Equal(t, float64(1), f.counter(t, "pricing_config_reloads_total", map[string]string{"outcome": metrics.OutcomeInvalid}))
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.service.Snapshot()
	snap.Pricing.Categories["fragile"] = pricing.CategoryRate{}

	result, err := f.service.PriceProduct(context.Background(), fragile400())
	require.NoError(t, err)
	assert.Equal(t, "553.90", money.Format(result.FinalPrice))
}

func TestRefreshKeepsPreviousSnapshotOnFailure(t *testing.T) {
	loader := &stubLoader{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "read pricing overrides")}
	f := newFixture(t, loader)

	err := f.service.Refresh(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, []string{"defaults"}, f.service.Snapshot().Sources)

	next, applyErr := settings.ApplyOverrides(settings.Defaults(), map[string]string{settings.FieldVATRate: "0.15"})
	require.NoError(t, applyErr)
	loader.set(next, nil)
	require.NoError(t, f.service.Refresh(context.Background()))
	assert.True(t, f.service.Snapshot().Pricing.VATRate.Equal(d("0.15")))
}

func TestRefreshWithoutLoader(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, pkgerrors.IsCode(f.service.Refresh(context.Background()), pkgerrors.CodeConfiguration))
}

func TestRunRefreshesUntilCanceled(t *testing.T) {
	next, err := settings.ApplyOverrides(settings.Defaults(), map[string]string{settings.FieldVATRate: "0.15"})
	require.NoError(t, err)
	loader := &stubLoader{}
	loader.set(next, nil)

	service, err := NewService(ServiceParams{
		Logger:          logger.Nop(),
		Settings:        settings.Defaults(),
		Loader:          loader,
		RefreshInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	require.Eventually(t, func() bool {
		return service.Snapshot().Pricing.VATRate.Equal(d("0.15"))
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestConcurrentReloadAndPricing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alt, err := settings.ApplyOverrides(settings.Defaults(), map[string]string{settings.FieldVATRate: "0.10"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i == 0 {
					if j%2 == 0 {
						_ = f.service.Reload(ctx, alt)
					} else {
						_ = f.service.Reload(ctx, settings.Defaults())
					}
					continue
				}
				result, err := f.service.PriceProduct(ctx, fragile400())
				if err != nil || !result.Reconstructs() {
					t.Errorf("pricing during reload failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func (f fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if value, ok := want[pair.GetName()]; ok && value == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

type stubLoader struct {
	mu       sync.Mutex
	snapshot settings.Snapshot
	err      error
}

func (l *stubLoader) set(snapshot settings.Snapshot, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot = snapshot
	l.err = err
}

func (l *stubLoader) Load(context.Context) (settings.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot, l.err
}
