package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/money"
)

// CategoryRate bounds the marketplace uplift rate admins may set for a category.
// Default is the rate actually applied during pricing.
type CategoryRate struct {
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	Default decimal.Decimal `json:"default"`
}

// Config is the immutable table every price breakdown is computed against.
// Callers must treat a Config as read-only once it is handed to Calculate;
// reloads build a fresh value instead of mutating one in place.
type Config struct {
	VATRate             decimal.Decimal         `json:"vat_rate"`
	CooperativeFeeRate  decimal.Decimal         `json:"cooperative_fee_rate"`
	MinimumFixedUplift  decimal.Decimal         `json:"minimum_fixed_uplift"`
	LowPriceThreshold   decimal.Decimal         `json:"low_price_threshold"`
	LowPriceFixedMarkup decimal.Decimal         `json:"low_price_fixed_markup"`
	LogisticsSurcharge  decimal.Decimal         `json:"logistics_surcharge"`
	GlobalUpliftRate    decimal.Decimal         `json:"global_uplift_rate"`
	Categories          map[string]CategoryRate `json:"categories"`
}

var defaultCategoryRates = map[enums.ProductCategory]CategoryRate{
	enums.ProductCategoryFragile:     {Min: money.MustParse("0.20"), Max: money.MustParse("0.30"), Default: money.MustParse("0.25")},
	enums.ProductCategoryJewelry:     {Min: money.MustParse("0.10"), Max: money.MustParse("0.20"), Default: money.MustParse("0.15")},
	enums.ProductCategoryBeauty:      {Min: money.MustParse("0.15"), Max: money.MustParse("0.25"), Default: money.MustParse("0.20")},
	enums.ProductCategoryFashion:     {Min: money.MustParse("0.15"), Max: money.MustParse("0.25"), Default: money.MustParse("0.20")},
	enums.ProductCategoryHomeDecor:   {Min: money.MustParse("0.15"), Max: money.MustParse("0.25"), Default: money.MustParse("0.20")},
	enums.ProductCategoryHandicrafts: {Min: money.MustParse("0.20"), Max: money.MustParse("0.30"), Default: money.MustParse("0.25")},
	enums.ProductCategoryFood:        {Min: money.MustParse("0.10"), Max: money.MustParse("0.20"), Default: money.MustParse("0.15")},
	enums.ProductCategoryElectronics: {Min: money.MustParse("0.08"), Max: money.MustParse("0.15"), Default: money.MustParse("0.10")},
}

// DefaultConfig returns the built-in table. Each call returns an independent copy.
func DefaultConfig() Config {
	categories := make(map[string]CategoryRate, len(defaultCategoryRates))
	for category, rate := range defaultCategoryRates {
		categories[category.String()] = rate
	}
	return Config{
		VATRate:             money.MustParse("0.14"),
		CooperativeFeeRate:  money.MustParse("0.05"),
		MinimumFixedUplift:  money.MustParse("15"),
		LowPriceThreshold:   money.MustParse("100"),
		LowPriceFixedMarkup: money.MustParse("20"),
		LogisticsSurcharge:  money.MustParse("10"),
		GlobalUpliftRate:    money.MustParse("0.20"),
		Categories:          categories,
	}
}

// Clone returns a deep copy so a derived table never shares its category map.
func (c Config) Clone() Config {
	out := c
	out.Categories = make(map[string]CategoryRate, len(c.Categories))
	for id, rate := range c.Categories {
		out.Categories[id] = rate
	}
	return out
}

// WithCategory returns a copy of the table with the category rate set.
func (c Config) WithCategory(id string, rate CategoryRate) Config {
	out := c.Clone()
	out.Categories[normalizeCategory(id)] = rate
	return out
}

// RateFor resolves the uplift rate for a category, falling back to the global
// flat rate when the category is not in the table.
func (c Config) RateFor(categoryID string) (decimal.Decimal, enums.UpliftSource) {
	if rate, ok := c.Categories[normalizeCategory(categoryID)]; ok {
		return rate.Default, enums.UpliftSourceCategory
	}
	return c.GlobalUpliftRate, enums.UpliftSourceGlobal
}

// CategoryIDs lists the configured categories in sorted order.
func (c Config) CategoryIDs() []string {
	ids := make([]string, 0, len(c.Categories))
	for id := range c.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate reports every problem with the table at once.
func (c Config) Validate() error {
	var errs error
	errs = multierr.Append(errs, checkRate("vat_rate", c.VATRate))
	errs = multierr.Append(errs, checkRate("cooperative_fee_rate", c.CooperativeFeeRate))
	errs = multierr.Append(errs, checkRate("global_uplift_rate", c.GlobalUpliftRate))
	errs = multierr.Append(errs, checkNonNegative("minimum_fixed_uplift", c.MinimumFixedUplift))
	errs = multierr.Append(errs, checkNonNegative("low_price_threshold", c.LowPriceThreshold))
	errs = multierr.Append(errs, checkNonNegative("low_price_fixed_markup", c.LowPriceFixedMarkup))
	errs = multierr.Append(errs, checkNonNegative("logistics_surcharge", c.LogisticsSurcharge))
	for _, id := range c.CategoryIDs() {
		errs = multierr.Append(errs, c.Categories[id].validate(id))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, errs, "invalid pricing config")
	}
	return nil
}

func (r CategoryRate) validate(id string) error {
	var errs error
	prefix := "category " + id
	errs = multierr.Append(errs, checkRate(prefix+" min", r.Min))
	errs = multierr.Append(errs, checkRate(prefix+" max", r.Max))
	errs = multierr.Append(errs, checkRate(prefix+" default", r.Default))
	if r.Min.GreaterThan(r.Max) {
		errs = multierr.Append(errs, fmt.Errorf("%s: min %s exceeds max %s", prefix, r.Min, r.Max))
	}
	if r.Default.LessThan(r.Min) || r.Default.GreaterThan(r.Max) {
		errs = multierr.Append(errs, fmt.Errorf("%s: default %s outside [%s, %s]", prefix, r.Default, r.Min, r.Max))
	}
	return errs
}

func checkRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(money.One) {
		return fmt.Errorf("%s: rate %s outside [0, 1]", name, rate)
	}
	return nil
}

func checkNonNegative(name string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s: %s must not be negative", name, amount)
	}
	return nil
}

func normalizeCategory(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
