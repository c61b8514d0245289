package enums

import "fmt"

// UpliftKind describes how a parent vendor's uplift is expressed.
type UpliftKind string

const (
	UpliftKindNone       UpliftKind = "none"
	UpliftKindFixed      UpliftKind = "fixed"
	UpliftKindPercentage UpliftKind = "percentage"
)

var validUpliftKinds = []UpliftKind{
	UpliftKindNone,
	UpliftKindFixed,
	UpliftKindPercentage,
}

// String implements fmt.Stringer.
func (k UpliftKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known UpliftKind.
func (k UpliftKind) IsValid() bool {
	for _, candidate := range validUpliftKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseUpliftKind converts raw input into an UpliftKind. Empty input means none.
func ParseUpliftKind(value string) (UpliftKind, error) {
	if value == "" {
		return UpliftKindNone, nil
	}
	for _, candidate := range validUpliftKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid uplift kind %q", value)
}

// UpliftSource records where the marketplace uplift rate came from.
type UpliftSource string

const (
	UpliftSourceCategory UpliftSource = "category"
	UpliftSourceGlobal   UpliftSource = "global"
	UpliftSourceOverride UpliftSource = "override"
)

// String implements fmt.Stringer.
func (s UpliftSource) String() string {
	return string(s)
}
