package main

import (
	"fmt"
	"os"

	"github.com/yungbote/carbonledger-backend/internal/clients/redis"
	"github.com/yungbote/carbonledger-backend/internal/db"
	"github.com/yungbote/carbonledger-backend/internal/handlers"
	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/server"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/utils"
)

func main() {
	// Logger
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

	// Env
	log.Info("Loading environment variables from main...")
	fuzzyThreshold := utils.GetEnvAsInt("FUZZY_MATCH_THRESHOLD", services.DefaultFuzzyThreshold, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	factorRepo := repos.NewEmissionFactorRepo(thePG, log)
	elecRepo := repos.NewElectricityActivityRepo(thePG, log)
	travelRepo := repos.NewAirTravelActivityRepo(thePG, log)
	goodsRepo := repos.NewGoodsServicesActivityRepo(thePG, log)
	resultRepo := repos.NewEmissionResultRepo(thePG, log)
	summaryRepo := repos.NewEmissionSummaryRepo(thePG, log)

	// Redis (optional, summaries are served from postgres without it)
	var summaryCache redis.SummaryCache
	if os.Getenv("REDIS_ADDR") != "" {
		summaryCache, err = redis.NewSummaryCache(log)
		if err != nil {
			log.Warn("Could not init summary cache", "error", err)
			summaryCache = nil
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	matcher := services.NewFactorMatcher(log, factorRepo)
	calculators := []services.Calculator{
		services.NewElectricityCalculator(log, matcher),
		services.NewTravelCalculator(log, matcher, travelRepo),
		services.NewGoodsCalculator(log, matcher),
	}
	calculationService := services.NewCalculationService(log, thePG, calculators, resultRepo, elecRepo, travelRepo, goodsRepo)
	var invalidator services.SummaryInvalidator
	if summaryCache != nil {
		invalidator = summaryCache
	}
	aggregationService := services.NewAggregationService(log, thePG, resultRepo, summaryRepo, invalidator)
	activityService := services.NewActivityService(log, thePG, elecRepo, travelRepo, goodsRepo, resultRepo)
	factorService := services.NewFactorService(log, thePG, factorRepo, resultRepo)
	var cache services.SummaryCache
	if summaryCache != nil {
		cache = summaryCache
	}
	summaryService := services.NewSummaryService(log, summaryRepo, cache)

	// Handlers
	log.Info("Setting up handlers from main...")
	activityHandler := handlers.NewActivityHandler(log, activityService)
	factorHandler := handlers.NewFactorHandler(log, factorService)
	calculationHandler := handlers.NewCalculationHandler(log, calculationService, fuzzyThreshold)
	aggregationHandler := handlers.NewAggregationHandler(log, aggregationService)
	summaryHandler := handlers.NewSummaryHandler(log, summaryService)
	reportHandler := handlers.NewReportHandler(log, summaryService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ActivityHandler:    activityHandler,
		FactorHandler:      factorHandler,
		CalculationHandler: calculationHandler,
		AggregationHandler: aggregationHandler,
		SummaryHandler:     summaryHandler,
		ReportHandler:      reportHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
