package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/types"
)

func decodeMetadata(t *testing.T, result *types.EmissionResult) map[string]any {
	t.Helper()
	meta := map[string]any{}
	if err := json.Unmarshal(result.CalculationMetadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	return meta
}

func TestElectricityCalculator(t *testing.T) {
	factorRepo := &fakeFactorRepo{}
	seedFakeFactor(factorRepo, types.ActivityTypeElectricity, "United Kingdom", "0.3", types.Scope2, nil)
	matcher := NewFactorMatcher(testLogger(t), factorRepo)
	calc := NewElectricityCalculator(testLogger(t), matcher)

	activity := &types.ElectricityActivity{
		ID:           uuid.New(),
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ActivityType: types.ActivityTypeElectricity,
		Country:      "United Kingdom",
		UsageKWh:     decimal.RequireFromString("1000"),
	}

	result, err := calc.Calculate(context.Background(), nil, activity, 80)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// 1000 kWh * 0.3 kg/kWh = 300 kg = 0.3 tonnes
	if !result.CO2eTonnes.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("Calculate: co2e = %s, want 0.3", result.CO2eTonnes)
	}
	if !result.ConfidenceScore.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("Calculate: confidence = %s, want 1", result.ConfidenceScore)
	}
	meta := decodeMetadata(t, result)
	if meta["calculation_method"] != "exact" {
		t.Fatalf("Calculate: method = %v, want exact", meta["calculation_method"])
	}
	if meta["matched_country"] != "United Kingdom" {
		t.Fatalf("Calculate: matched_country = %v", meta["matched_country"])
	}
	// calculation_date maps to a date column; the stored value must carry
	// no clock component regardless of driver.
	if !result.CalculationDate.Equal(dateOnly(result.CalculationDate)) {
		t.Fatalf("Calculate: calculation_date %s is not a plain date", result.CalculationDate)
	}
}

func TestElectricityCalculatorWrongType(t *testing.T) {
	matcher := NewFactorMatcher(testLogger(t), &fakeFactorRepo{})
	calc := NewElectricityCalculator(testLogger(t), matcher)

	_, err := calc.Calculate(context.Background(), nil, &types.GoodsServicesActivity{}, 80)
	if !errors.Is(err, ErrUnknownActivityType) {
		t.Fatalf("Calculate: expected ErrUnknownActivityType, got %v", err)
	}
}

func TestTravelCalculatorMilesBackfill(t *testing.T) {
	factorRepo := &fakeFactorRepo{}
	seedFakeFactor(factorRepo, types.ActivityTypeAirTravel, "Long-haul, Economy", "0.15", types.Scope3, nil)
	matcher := NewFactorMatcher(testLogger(t), factorRepo)
	travelRepo := &fakeTravelRepo{}
	calc := NewTravelCalculator(testLogger(t), matcher, travelRepo)

	activity := &types.AirTravelActivity{
		ID:             uuid.New(),
		Date:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ActivityType:   types.ActivityTypeAirTravel,
		DistanceMiles:  decimal.NullDecimal{Decimal: decimal.RequireFromString("500"), Valid: true},
		FlightRange:    "Long-haul",
		PassengerClass: "Economy",
	}
	travelRepo.rows = append(travelRepo.rows, activity)

	result, err := calc.Calculate(context.Background(), nil, activity, 80)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// 500 mi = 804.67 km; 804.67 * 0.15 kg/km = 120.7005 kg = 0.1207005 t
	if !result.CO2eTonnes.Equal(decimal.RequireFromString("0.1207005")) {
		t.Fatalf("Calculate: co2e = %s, want 0.1207005", result.CO2eTonnes)
	}
	if !activity.DistanceKm.Valid || !activity.DistanceKm.Decimal.Equal(decimal.RequireFromString("804.67")) {
		t.Fatalf("Calculate: distance_km not backfilled: %+v", activity.DistanceKm)
	}
	meta := decodeMetadata(t, result)
	if meta["distance_backfilled"] != true {
		t.Fatalf("Calculate: distance_backfilled = %v", meta["distance_backfilled"])
	}
}

func TestTravelCalculatorZeroDistance(t *testing.T) {
	factorRepo := &fakeFactorRepo{}
	seedFakeFactor(factorRepo, types.ActivityTypeAirTravel, "Short-haul, Economy", "0.1", types.Scope3, nil)
	matcher := NewFactorMatcher(testLogger(t), factorRepo)
	calc := NewTravelCalculator(testLogger(t), matcher, &fakeTravelRepo{})

	activity := &types.AirTravelActivity{
		ID:             uuid.New(),
		ActivityType:   types.ActivityTypeAirTravel,
		DistanceKm:     decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
		FlightRange:    "Short-haul",
		PassengerClass: "Economy",
	}

	result, err := calc.Calculate(context.Background(), nil, activity, 80)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !result.CO2eTonnes.IsZero() {
		t.Fatalf("Calculate: zero distance should give zero emissions, got %s", result.CO2eTonnes)
	}
}

func TestTravelCalculatorNoDistance(t *testing.T) {
	matcher := NewFactorMatcher(testLogger(t), &fakeFactorRepo{})
	calc := NewTravelCalculator(testLogger(t), matcher, &fakeTravelRepo{})

	activity := &types.AirTravelActivity{
		ID:             uuid.New(),
		ActivityType:   types.ActivityTypeAirTravel,
		FlightRange:    "Short-haul",
		PassengerClass: "Economy",
	}

	_, err := calc.Calculate(context.Background(), nil, activity, 80)
	if !errors.Is(err, ErrNotCalculable) {
		t.Fatalf("Calculate: expected ErrNotCalculable, got %v", err)
	}
}

func TestGoodsCalculator(t *testing.T) {
	factorRepo := &fakeFactorRepo{}
	cat := types.CategoryPurchasedGoods
	seedFakeFactor(factorRepo, types.ActivityTypeGoodsServices, "IT Services", "0.5", types.Scope3, &cat)
	matcher := NewFactorMatcher(testLogger(t), factorRepo)
	calc := NewGoodsCalculator(testLogger(t), matcher)

	activity := &types.GoodsServicesActivity{
		ID:               uuid.New(),
		Date:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ActivityType:     types.ActivityTypeGoodsServices,
		SupplierCategory: "IT Services",
		SpendAmount:      decimal.RequireFromString("1000"),
	}

	result, err := calc.Calculate(context.Background(), nil, activity, 80)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// 1000 * 0.5 kg = 500 kg = 0.5 tonnes
	if !result.CO2eTonnes.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("Calculate: co2e = %s, want 0.5", result.CO2eTonnes)
	}
}

func TestGoodsCalculatorNoFactor(t *testing.T) {
	matcher := NewFactorMatcher(testLogger(t), &fakeFactorRepo{})
	calc := NewGoodsCalculator(testLogger(t), matcher)

	activity := &types.GoodsServicesActivity{
		ID:               uuid.New(),
		ActivityType:     types.ActivityTypeGoodsServices,
		SupplierCategory: "Unmapped Category",
		SpendAmount:      decimal.RequireFromString("10"),
	}

	_, err := calc.Calculate(context.Background(), nil, activity, 80)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Calculate: expected ErrNoMatch, got %v", err)
	}
}
