package ecoledger

import (
	"errors"
	"testing"
)

func TestCalculateAppliesEmissionFactor(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name     string
		activity ActivityKind
		quantity float64
		wantCO2  float64
	}{
		{name: "trees planted", activity: ActivityTreesPlanted, quantity: 2, wantCO2: 43.54},
		{name: "walk bike commute", activity: ActivityWalkBikeCommute, quantity: 10, wantCO2: 1.5},
		{name: "electricity saved", activity: ActivityElectricitySaved, quantity: 100, wantCO2: 82},
		{name: "water saved", activity: ActivityWaterSaved, quantity: 5000, wantCO2: 1.5},
	}
	for _, testCase := range cases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			conversion, err := Calculate(testCase.activity, mustQuantity(test, testCase.quantity))
			if err != nil {
				test.Fatalf("calculate: %v", err)
			}
			if !almostEqual(conversion.CO2SavedKg, testCase.wantCO2) {
				test.Fatalf("expected %v kg, got %v", testCase.wantCO2, conversion.CO2SavedKg)
			}
			if conversion.Credits != conversion.CO2SavedKg {
				test.Fatalf("credits %v must equal co2 saved %v", conversion.Credits, conversion.CO2SavedKg)
			}
		})
	}
}

func TestCalculateRejectsUnknownActivity(test *testing.T) {
	test.Parallel()
	_, err := Calculate(ActivityKind("composting"), mustQuantity(test, 1))
	if !errors.Is(err, ErrInvalidActivity) {
		test.Fatalf("expected ErrInvalidActivity, got %v", err)
	}
}

func TestCalculateAppliesNoRounding(test *testing.T) {
	test.Parallel()
	conversion, err := Calculate(ActivityPaperSaved, mustQuantity(test, 333))
	if err != nil {
		test.Fatalf("calculate: %v", err)
	}
	if !almostEqual(conversion.CO2SavedKg, 333*0.005) {
		test.Fatalf("expected raw product, got %v", conversion.CO2SavedKg)
	}
}

func TestFactorTableCoversAllActivities(test *testing.T) {
	test.Parallel()
	rows := FactorTable()
	if len(rows) != len(ActivityKinds()) {
		test.Fatalf("expected %d rows, got %d", len(ActivityKinds()), len(rows))
	}
	for _, row := range rows {
		if row.Factor <= 0 {
			test.Fatalf("activity %s has non-positive factor %v", row.Activity, row.Factor)
		}
		if row.Unit == "" {
			test.Fatalf("activity %s has empty unit", row.Activity)
		}
	}
}
