package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/types"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newSeederFixture(t *testing.T) (SeederService, *fakeFactorRepo, *fakeElectricityRepo, *fakeTravelRepo) {
	t.Helper()
	db := txDB(t)
	log := testLogger(t)
	factorRepo := &fakeFactorRepo{}
	resultRepo := &fakeResultRepo{factors: factorRepo}
	elecRepo := &fakeElectricityRepo{}
	travelRepo := &fakeTravelRepo{}
	goodsRepo := &fakeGoodsRepo{}

	factors := NewFactorService(log, db, factorRepo, resultRepo)
	activities := NewActivityService(log, db, elecRepo, travelRepo, goodsRepo, resultRepo)
	return NewSeederService(log, factors, activities), factorRepo, elecRepo, travelRepo
}

func TestSeedFactorsSkipsBadRows(t *testing.T) {
	seeder, factorRepo, _, _ := newSeederFixture(t)

	path := writeCSV(t, "factors.csv", `activity_type,lookup_identifier,unit,co2e_factor,scope,category,source,notes
Electricity,France,kWh,0.05,2,,GridDB,
Purchased Goods and Services,Paper,GBP,"0.5",3,1,EEIO,spend-based
Electricity,Broken,kWh,not-a-number,2,,,
`)

	report, err := seeder.SeedFactors(context.Background(), path)
	if err != nil {
		t.Fatalf("SeedFactors: %v", err)
	}
	if report.RowsRead != 3 || report.Created != 2 || report.Skipped != 1 {
		t.Fatalf("SeedFactors: %+v", report)
	}
	if len(factorRepo.factors) != 2 {
		t.Fatalf("SeedFactors: stored %d factors, want 2", len(factorRepo.factors))
	}
}

func TestSeedElectricityParsesDayFirstDates(t *testing.T) {
	seeder, _, elecRepo, _ := newSeederFixture(t)

	path := writeCSV(t, "electricity.csv", `date,country,electricity_usage_kwh
15/03/2024,United Kingdom,"1,250.5"
not-a-date,France,100
`)

	report, err := seeder.SeedActivities(context.Background(), types.ActivityTypeElectricity, path)
	if err != nil {
		t.Fatalf("SeedActivities: %v", err)
	}
	if report.RowsRead != 2 || report.Created != 1 || report.Skipped != 1 {
		t.Fatalf("SeedActivities: %+v", report)
	}
	row := elecRepo.rows[0]
	if !row.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("SeedActivities: date = %s", row.Date)
	}
	if !row.UsageKWh.Equal(decimal.RequireFromString("1250.5")) {
		t.Fatalf("SeedActivities: usage = %s", row.UsageKWh)
	}
}

func TestSeedAirTravelRequiresDistance(t *testing.T) {
	seeder, _, _, travelRepo := newSeederFixture(t)

	path := writeCSV(t, "air_travel.csv", `date,distance_miles,distance_km,flight_range,passenger_class
01/02/2024,500,,Long-haul,Economy
02/02/2024,,,Short-haul,Economy
`)

	report, err := seeder.SeedActivities(context.Background(), types.ActivityTypeAirTravel, path)
	if err != nil {
		t.Fatalf("SeedActivities: %v", err)
	}
	if report.Created != 1 || report.Skipped != 1 {
		t.Fatalf("SeedActivities: %+v", report)
	}
	if len(travelRepo.rows) != 1 || travelRepo.rows[0].DistanceMiles.Decimal.String() != "500" {
		t.Fatalf("SeedActivities: %+v", travelRepo.rows)
	}
}

func TestSeedActivitiesUnknownType(t *testing.T) {
	seeder, _, _, _ := newSeederFixture(t)

	path := writeCSV(t, "rail.csv", "date\n01/02/2024\n")
	_, err := seeder.SeedActivities(context.Background(), "Rail", path)
	if !errors.Is(err, ErrUnknownActivityType) {
		t.Fatalf("SeedActivities: expected ErrUnknownActivityType, got %v", err)
	}
}
