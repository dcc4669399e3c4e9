package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type AggregationHandler struct {
	log          *logger.Logger
	aggregations services.AggregationService
}

func NewAggregationHandler(log *logger.Logger, aggregations services.AggregationService) *AggregationHandler {
	return &AggregationHandler{
		log:          log.With("handler", "AggregationHandler"),
		aggregations: aggregations,
	}
}

// POST /api/v1/aggregations/daily?date=YYYY-MM-DD
func (h *AggregationHandler) AggregateDaily(c *gin.Context) {
	day, err := parseAPIDate(c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	run, err := h.aggregations.AggregateDaily(c.Request.Context(), day)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// POST /api/v1/aggregations/monthly?month=YYYY-MM
func (h *AggregationHandler) AggregateMonthly(c *gin.Context) {
	raw := c.DefaultQuery("month", time.Now().UTC().Format("2006-01"))
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_month", fmt.Errorf("invalid month %q, expected YYYY-MM", raw))
		return
	}
	run, err := h.aggregations.AggregateMonthly(c.Request.Context(), month.Year(), month.Month())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

type customRangeRequest struct {
	FromDate     string  `json:"from_date" binding:"required"`
	ToDate       string  `json:"to_date" binding:"required"`
	Scope        *int    `json:"scope"`
	Category     *int    `json:"category"`
	ActivityType *string `json:"activity_type"`
}

// POST /api/v1/aggregations/custom
func (h *AggregationHandler) AggregateCustomRange(c *gin.Context) {
	var req customRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	from, err := parseAPIDate(req.FromDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	to, err := parseAPIDate(req.ToDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	if to.Before(from) {
		RespondError(c, http.StatusBadRequest, "invalid_range", fmt.Errorf("to_date before from_date"))
		return
	}
	summary, err := h.aggregations.AggregateCustomRange(c.Request.Context(), from, to, req.Scope, req.Category, req.ActivityType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

type backfillRequest struct {
	FromDate    string `json:"from_date" binding:"required"`
	ToDate      string `json:"to_date" binding:"required"`
	SummaryType string `json:"summary_type"`
}

// POST /api/v1/aggregations/backfill
func (h *AggregationHandler) Backfill(c *gin.Context) {
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	from, err := parseAPIDate(req.FromDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	to, err := parseAPIDate(req.ToDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	summaryType := req.SummaryType
	if summaryType == "" {
		summaryType = types.SummaryTypeDaily
	}
	run, err := h.aggregations.Backfill(c.Request.Context(), from, to, summaryType)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "backfill_failed", err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}
