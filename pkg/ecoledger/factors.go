package ecoledger

// EmissionFactor converts one native unit of an activity into kg CO₂e.
type EmissionFactor struct {
	Factor float64
	Unit   string
}

// Emission factors adapted for school activities (kg CO₂e per unit).
// The table is process-wide constant configuration and is never mutated.
var emissionFactors = map[ActivityKind]EmissionFactor{
	ActivityElectricitySaved: {Factor: 0.82, Unit: "kWh"},
	ActivityWalkBikeCommute:  {Factor: 0.15, Unit: "km"},
	ActivityWasteRecycled:    {Factor: 0.90, Unit: "kg"},
	ActivityTreesPlanted:     {Factor: 21.77, Unit: "count"},
	ActivitySolarPowerUsed:   {Factor: 0.80, Unit: "kWh"},
	ActivityPaperSaved:       {Factor: 0.005, Unit: "sheets"},
	ActivityWaterSaved:       {Factor: 0.0003, Unit: "liters"},
}

// Factor returns the emission factor for a recognized activity kind.
func Factor(activity ActivityKind) (EmissionFactor, error) {
	factor, known := emissionFactors[activity]
	if !known {
		return EmissionFactor{}, WrapError(errorOperationFactors, errorSubjectActivity, errorCodeUnknown, ErrInvalidActivity)
	}
	return factor, nil
}

// FactorRow pairs an activity with its conversion data for transparency views.
type FactorRow struct {
	Activity ActivityKind
	Factor   float64
	Unit     string
}

// FactorTable returns the full emission-factor table in declaration order.
func FactorTable() []FactorRow {
	rows := make([]FactorRow, 0, len(ActivityKinds()))
	for _, activity := range ActivityKinds() {
		factor := emissionFactors[activity]
		rows = append(rows, FactorRow{Activity: activity, Factor: factor.Factor, Unit: factor.Unit})
	}
	return rows
}
