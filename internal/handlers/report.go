package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type ReportHandler struct {
	log       *logger.Logger
	summaries services.SummaryService
}

func NewReportHandler(log *logger.Logger, summaries services.SummaryService) *ReportHandler {
	return &ReportHandler{
		log:       log.With("handler", "ReportHandler"),
		summaries: summaries,
	}
}

// emissionsReport bundles the standard reporting views for one range.
type emissionsReport struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	FromDate    string                    `json:"from_date"`
	ToDate      string                    `json:"to_date"`
	Total       *services.TotalReport     `json:"total"`
	Breakdown   []services.BreakdownEntry `json:"breakdown,omitempty"`
	Monthly     []services.MonthlyPoint   `json:"monthly,omitempty"`
}

// GET /api/v1/reports/emissions?from_date=&to_date=
func (h *ReportHandler) Emissions(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	total, err := h.summaries.Total(ctx, from, to, nil, nil, nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	breakdown, err := h.summaries.Breakdown(ctx, from, to, types.SummaryTypeDaily)
	if err != nil && !errors.Is(err, services.ErrNoData) {
		RespondServiceError(c, err)
		return
	}

	monthly, err := h.summaries.MonthlySeries(ctx, from, to)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, gin.H{"report": emissionsReport{
		GeneratedAt: time.Now().UTC(),
		FromDate:    from.Format("2006-01-02"),
		ToDate:      to.Format("2006-01-02"),
		Total:       total,
		Breakdown:   breakdown,
		Monthly:     monthly,
	}})
}
