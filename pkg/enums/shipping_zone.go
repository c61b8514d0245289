package enums

import "fmt"

// ShippingZone identifies a destination rate card.
type ShippingZone string

const (
	ShippingZoneCairoGiza  ShippingZone = "cairo_giza"
	ShippingZoneAlexandria ShippingZone = "alexandria"
	ShippingZoneDelta      ShippingZone = "delta"
	ShippingZoneCanal      ShippingZone = "canal"
	ShippingZoneUpperEgypt ShippingZone = "upper_egypt"
	ShippingZoneRemote     ShippingZone = "remote"
)

var validShippingZones = []ShippingZone{
	ShippingZoneCairoGiza,
	ShippingZoneAlexandria,
	ShippingZoneDelta,
	ShippingZoneCanal,
	ShippingZoneUpperEgypt,
	ShippingZoneRemote,
}

// String implements fmt.Stringer.
func (z ShippingZone) String() string {
	return string(z)
}

// IsValid reports whether the value is a known ShippingZone.
func (z ShippingZone) IsValid() bool {
	for _, candidate := range validShippingZones {
		if candidate == z {
			return true
		}
	}
	return false
}

// ParseShippingZone converts raw input into a ShippingZone.
func ParseShippingZone(value string) (ShippingZone, error) {
	for _, candidate := range validShippingZones {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping zone %q", value)
}
