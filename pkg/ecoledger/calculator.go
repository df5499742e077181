package ecoledger

// Conversion is the standardized result of one logged activity.
// Credits are pinned 1:1 to kg CO₂e saved.
type Conversion struct {
	CO2SavedKg float64
	Credits    float64
}

// Calculate converts an activity amount into CO₂ saved and credits.
// It is pure, applies no rounding, and fails with ErrInvalidActivity for
// unrecognized kinds instead of defaulting to a zero factor.
func Calculate(activity ActivityKind, quantity Quantity) (Conversion, error) {
	factor, err := Factor(activity)
	if err != nil {
		return Conversion{}, err
	}
	co2SavedKg := quantity.Float64() * factor.Factor
	return Conversion{
		CO2SavedKg: co2SavedKg,
		Credits:    co2SavedKg,
	}, nil
}
