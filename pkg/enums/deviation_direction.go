package enums

// DeviationDirection states where a candidate price sits against its category average.
type DeviationDirection string

const (
	DeviationDirectionAbove DeviationDirection = "above"
	DeviationDirectionBelow DeviationDirection = "below"
	DeviationDirectionAt    DeviationDirection = "at"
)

// String implements fmt.Stringer.
func (d DeviationDirection) String() string {
	return string(d)
}
