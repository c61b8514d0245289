package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
)

// Amount is a decimal read from YAML. Quoted and bare numbers are accepted;
// both are parsed from their source text so no float rounding occurs.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

// CategoryEntry is one row of the category table file.
type CategoryEntry struct {
	Min     Amount `yaml:"min"`
	Max     Amount `yaml:"max"`
	Default Amount `yaml:"default"`
}

// ZoneEntry is one rate card in the table file.
type ZoneEntry struct {
	BaseFee   Amount `yaml:"base_fee"`
	PerKgRate Amount `yaml:"per_kg_rate"`
}

// Table is the operator-maintained YAML file. Absent keys keep their
// current value.
//
//	vat_rate: 0.14
//	categories:
//	  toys: {min: 0.10, max: 0.20, default: 0.15}
//	zones:
//	  remote: {base_fee: 95, per_kg_rate: 12}
type Table struct {
	VATRate             *Amount                  `yaml:"vat_rate"`
	CooperativeFeeRate  *Amount                  `yaml:"cooperative_fee_rate"`
	MinimumFixedUplift  *Amount                  `yaml:"minimum_fixed_uplift"`
	LowPriceThreshold   *Amount                  `yaml:"low_price_threshold"`
	LowPriceFixedMarkup *Amount                  `yaml:"low_price_fixed_markup"`
	LogisticsSurcharge  *Amount                  `yaml:"logistics_surcharge"`
	GlobalUpliftRate    *Amount                  `yaml:"global_uplift_rate"`
	VolumetricDivisor   *Amount                  `yaml:"volumetric_divisor"`
	MaxSubsidyRatio     *Amount                  `yaml:"max_subsidy_ratio"`
	IncludedWeightKg    *Amount                  `yaml:"included_weight_kg"`
	EscrowHoldDays      *int                     `yaml:"escrow_hold_days"`
	DeviationThreshold  *Amount                  `yaml:"price_deviation_threshold"`
	Categories          map[string]CategoryEntry `yaml:"categories"`
	Zones               map[string]ZoneEntry     `yaml:"zones"`
}

// ParseTable decodes a table file. Unknown keys are rejected.
func ParseTable(r io.Reader) (Table, error) {
	var table Table
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, nil
		}
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid category table")
	}
	return table, nil
}

// LoadTable reads and decodes the table file at path.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "open category table").
			WithDetails(map[string]any{"path": path})
	}
	defer f.Close()
	return ParseTable(f)
}

// Fields flattens the table into override fields so both layers share one
// parser.
func (t Table) Fields() map[string]string {
	fields := map[string]string{}
	scalars := map[string]*Amount{
		FieldVATRate:             t.VATRate,
		FieldCooperativeFeeRate:  t.CooperativeFeeRate,
		FieldMinimumFixedUplift:  t.MinimumFixedUplift,
		FieldLowPriceThreshold:   t.LowPriceThreshold,
		FieldLowPriceFixedMarkup: t.LowPriceFixedMarkup,
		FieldLogisticsSurcharge:  t.LogisticsSurcharge,
		FieldGlobalUpliftRate:    t.GlobalUpliftRate,
		FieldVolumetricDivisor:   t.VolumetricDivisor,
		FieldMaxSubsidyRatio:     t.MaxSubsidyRatio,
		FieldIncludedWeightKg:    t.IncludedWeightKg,
		FieldDeviationThreshold:  t.DeviationThreshold,
	}
	for key, value := range scalars {
		if value != nil {
			fields[key] = value.String()
		}
	}
	if t.EscrowHoldDays != nil {
		fields[FieldEscrowHoldDays] = strconv.Itoa(*t.EscrowHoldDays)
	}
	for id, entry := range t.Categories {
		fields[categoryPrefix+id] = entry.Min.String() + "," + entry.Max.String() + "," + entry.Default.String()
	}
	for zone, entry := range t.Zones {
		fields[zonePrefix+zone] = entry.BaseFee.String() + "," + entry.PerKgRate.String()
	}
	return fields
}

// Apply layers the table over s, recording source as the layer name.
func (t Table) Apply(s Snapshot, source string) (Snapshot, error) {
	return applyLayer(s, t.Fields(), source, "invalid category table")
}
