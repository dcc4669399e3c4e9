package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/carbonledger-backend/internal/handlers"
)

type RouterConfig struct {
	ActivityHandler    *handlers.ActivityHandler
	FactorHandler      *handlers.FactorHandler
	CalculationHandler *handlers.CalculationHandler
	AggregationHandler *handlers.AggregationHandler
	SummaryHandler     *handlers.SummaryHandler
	ReportHandler      *handlers.ReportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		// Activities
		api.POST("/activities/electricity", cfg.ActivityHandler.CreateElectricity)
		api.POST("/activities/air-travel", cfg.ActivityHandler.CreateAirTravel)
		api.POST("/activities/goods-services", cfg.ActivityHandler.CreateGoodsServices)
		api.GET("/activities/:type", cfg.ActivityHandler.List)
		api.GET("/activities/:type/:id", cfg.ActivityHandler.Get)
		api.DELETE("/activities/:type/:id", cfg.ActivityHandler.Delete)

		// Emission factors
		api.POST("/factors", cfg.FactorHandler.Create)
		api.GET("/factors", cfg.FactorHandler.List)
		api.GET("/factors/:id", cfg.FactorHandler.Get)
		api.PUT("/factors/:id", cfg.FactorHandler.Update)
		api.DELETE("/factors/:id", cfg.FactorHandler.Delete)

		// Calculations
		api.POST("/calculations/activities/:type/:id", cfg.CalculationHandler.CalculateActivity)
		api.POST("/calculations/activities/:type/:id/recalculate", cfg.CalculationHandler.RecalculateActivity)
		api.POST("/calculations/sweep", cfg.CalculationHandler.Sweep)

		// Aggregations
		api.POST("/aggregations/daily", cfg.AggregationHandler.AggregateDaily)
		api.POST("/aggregations/monthly", cfg.AggregationHandler.AggregateMonthly)
		api.POST("/aggregations/custom", cfg.AggregationHandler.AggregateCustomRange)
		api.POST("/aggregations/backfill", cfg.AggregationHandler.Backfill)

		// Summaries
		api.GET("/summaries", cfg.SummaryHandler.List)
		api.GET("/summaries/total", cfg.SummaryHandler.Total)
		api.GET("/summaries/monthly", cfg.SummaryHandler.MonthlySeries)
		api.GET("/summaries/latest", cfg.SummaryHandler.Latest)
		api.GET("/summaries/breakdown", cfg.SummaryHandler.Breakdown)

		// Reports
		api.GET("/reports/emissions", cfg.ReportHandler.Emissions)
	}

	return router
}
