package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/types"
)

func SeedFactor(tb testing.TB, ctx context.Context, tx *gorm.DB, activityType, identifier, factor string, scope int, category *int) *types.EmissionFactor {
	tb.Helper()
	f := &types.EmissionFactor{
		ID:               uuid.New(),
		ActivityType:     activityType,
		LookupIdentifier: identifier,
		Unit:             "kg CO2e",
		CO2eFactor:       decimal.RequireFromString(factor),
		Scope:            scope,
		Category:         category,
		Source:           "test",
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed factor: %v", err)
	}
	return f
}

func SeedElectricity(tb testing.TB, ctx context.Context, tx *gorm.DB, country, usageKWh string, date time.Time) *types.ElectricityActivity {
	tb.Helper()
	a := &types.ElectricityActivity{
		ID:           uuid.New(),
		Date:         date,
		ActivityType: types.ActivityTypeElectricity,
		Country:      country,
		UsageKWh:     decimal.RequireFromString(usageKWh),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed electricity activity: %v", err)
	}
	return a
}

func SeedAirTravel(tb testing.TB, ctx context.Context, tx *gorm.DB, miles *string, km *string, flightRange, class string, date time.Time) *types.AirTravelActivity {
	tb.Helper()
	a := &types.AirTravelActivity{
		ID:             uuid.New(),
		Date:           date,
		ActivityType:   types.ActivityTypeAirTravel,
		FlightRange:    flightRange,
		PassengerClass: class,
	}
	if miles != nil {
		a.DistanceMiles = decimal.NullDecimal{Decimal: decimal.RequireFromString(*miles), Valid: true}
	}
	if km != nil {
		a.DistanceKm = decimal.NullDecimal{Decimal: decimal.RequireFromString(*km), Valid: true}
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed air travel activity: %v", err)
	}
	return a
}

func SeedGoods(tb testing.TB, ctx context.Context, tx *gorm.DB, category, spend string, date time.Time) *types.GoodsServicesActivity {
	tb.Helper()
	a := &types.GoodsServicesActivity{
		ID:               uuid.New(),
		Date:             date,
		ActivityType:     types.ActivityTypeGoodsServices,
		SupplierCategory: category,
		SpendAmount:      decimal.RequireFromString(spend),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed goods activity: %v", err)
	}
	return a
}

func SeedResult(tb testing.TB, ctx context.Context, tx *gorm.DB, ref types.ActivityRef, factorID uuid.UUID, tonnes string, date time.Time) *types.EmissionResult {
	tb.Helper()
	r := &types.EmissionResult{
		ID:               uuid.New(),
		ActivityType:     ref.Type,
		ActivityID:       ref.ID,
		EmissionFactorID: factorID,
		CO2eTonnes:       decimal.RequireFromString(tonnes),
		ConfidenceScore:  decimal.RequireFromString("1"),
		CalculationDate:  date,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed result: %v", err)
	}
	return r
}
