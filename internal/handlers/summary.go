package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type SummaryHandler struct {
	log       *logger.Logger
	summaries services.SummaryService
}

func NewSummaryHandler(log *logger.Logger, summaries services.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		log:       log.With("handler", "SummaryHandler"),
		summaries: summaries,
	}
}

// GET /api/v1/summaries
func (h *SummaryHandler) List(c *gin.Context) {
	filter := repos.SummaryFilter{
		SummaryType: c.Query("summary_type"),
	}
	if raw := c.Query("from_date"); raw != "" {
		from, err := parseAPIDate(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to_date"); raw != "" {
		to, err := parseAPIDate(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		filter.ToDate = &to
	}
	if scope, ok := intQuery(c, "scope"); ok {
		filter.Scope = &scope
	}
	if category, ok := intQuery(c, "category"); ok {
		filter.Category = &category
	}
	if raw := c.Query("activity_type"); raw != "" {
		filter.ActivityType = &raw
	}
	offset, limit := pagination(c)
	summaries, err := h.summaries.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"summaries": summaries, "offset": offset, "limit": limit})
}

// GET /api/v1/summaries/total?from_date=&to_date=&scope=&category=&activity_type=
func (h *SummaryHandler) Total(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	var scope, category *int
	if v, found := intQuery(c, "scope"); found {
		scope = &v
	}
	if v, found := intQuery(c, "category"); found {
		category = &v
	}
	var activityType *string
	if raw := c.Query("activity_type"); raw != "" {
		activityType = &raw
	}
	report, err := h.summaries.Total(c.Request.Context(), from, to, scope, category, activityType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"total": report})
}

// GET /api/v1/summaries/monthly?from_date=&to_date=
func (h *SummaryHandler) MonthlySeries(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	points, err := h.summaries.MonthlySeries(c.Request.Context(), from, to)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"months": points})
}

// GET /api/v1/summaries/latest?summary_type=daily
func (h *SummaryHandler) Latest(c *gin.Context) {
	summaryType := c.DefaultQuery("summary_type", types.SummaryTypeDaily)
	summary, err := h.summaries.Latest(c.Request.Context(), summaryType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

// GET /api/v1/summaries/breakdown?from_date=&to_date=&summary_type=
func (h *SummaryHandler) Breakdown(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	summaryType := c.DefaultQuery("summary_type", types.SummaryTypeDaily)
	entries, err := h.summaries.Breakdown(c.Request.Context(), from, to, summaryType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"breakdown": entries})
}

func parseRangeQuery(c *gin.Context) (from, to time.Time, ok bool) {
	fromRaw, toRaw := c.Query("from_date"), c.Query("to_date")
	if fromRaw == "" || toRaw == "" {
		RespondError(c, http.StatusBadRequest, "missing_range", errParseRange)
		return from, to, false
	}
	from, err := parseAPIDate(fromRaw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return from, to, false
	}
	to, err = parseAPIDate(toRaw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return from, to, false
	}
	if to.Before(from) {
		RespondError(c, http.StatusBadRequest, "invalid_range", errParseRange)
		return from, to, false
	}
	return from, to, true
}

var errParseRange = errors.New("from_date and to_date are required, YYYY-MM-DD, and must be ordered")
