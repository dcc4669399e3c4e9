package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/carbonledger-backend/internal/db"
	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
	"github.com/yungbote/carbonledger-backend/internal/utils"
)

// Loads emission factors and activity records from CSV exports, e.g.:
//
//	seed -factors data/factors.csv \
//	     -electricity data/electricity.csv \
//	     -air-travel data/air_travel.csv \
//	     -goods data/purchased_goods.csv
func main() {
	factorsPath := flag.String("factors", "", "emission factors CSV")
	electricityPath := flag.String("electricity", "", "electricity activities CSV")
	airTravelPath := flag.String("air-travel", "", "air travel activities CSV")
	goodsPath := flag.String("goods", "", "goods and services activities CSV")
	calculate := flag.Bool("calculate", true, "sweep pending calculations after seeding")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	factorRepo := repos.NewEmissionFactorRepo(thePG, log)
	elecRepo := repos.NewElectricityActivityRepo(thePG, log)
	travelRepo := repos.NewAirTravelActivityRepo(thePG, log)
	goodsRepo := repos.NewGoodsServicesActivityRepo(thePG, log)
	resultRepo := repos.NewEmissionResultRepo(thePG, log)

	factorService := services.NewFactorService(log, thePG, factorRepo, resultRepo)
	activityService := services.NewActivityService(log, thePG, elecRepo, travelRepo, goodsRepo, resultRepo)
	seeder := services.NewSeederService(log, factorService, activityService)

	ctx := context.Background()
	seeded := false

	if *factorsPath != "" {
		report, err := seeder.SeedFactors(ctx, *factorsPath)
		if err != nil {
			log.Error("Factor seeding failed", "file", *factorsPath, "error", err)
			os.Exit(1)
		}
		fmt.Printf("factors: %d created, %d skipped\n", report.Created, report.Skipped)
		seeded = true
	}

	activityFiles := []struct {
		activityType string
		path         string
	}{
		{types.ActivityTypeElectricity, *electricityPath},
		{types.ActivityTypeAirTravel, *airTravelPath},
		{types.ActivityTypeGoodsServices, *goodsPath},
	}
	for _, file := range activityFiles {
		if file.path == "" {
			continue
		}
		report, err := seeder.SeedActivities(ctx, file.activityType, file.path)
		if err != nil {
			log.Error("Activity seeding failed", "file", file.path, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d created, %d skipped\n", file.activityType, report.Created, report.Skipped)
		seeded = true
	}

	if !seeded {
		flag.Usage()
		os.Exit(2)
	}

	if *calculate {
		threshold := utils.GetEnvAsInt("FUZZY_MATCH_THRESHOLD", services.DefaultFuzzyThreshold, log)
		matcher := services.NewFactorMatcher(log, factorRepo)
		calculators := []services.Calculator{
			services.NewElectricityCalculator(log, matcher),
			services.NewTravelCalculator(log, matcher, travelRepo),
			services.NewGoodsCalculator(log, matcher),
		}
		calculations := services.NewCalculationService(log, thePG, calculators, resultRepo, elecRepo, travelRepo, goodsRepo)
		summary, err := calculations.CalculateAllPending(ctx, services.SweepOptions{Threshold: threshold})
		if err != nil {
			log.Error("Calculation sweep failed", "error", err)
			os.Exit(1)
		}
		stats := summary.Statistics
		fmt.Printf("sweep: %d processed, %d skipped, %d errors, %s t CO2e\n",
			stats.TotalProcessed, stats.TotalSkipped, stats.TotalErrors, stats.TotalCO2eTonnes)
	}
}
