package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type CalculationHandler struct {
	log              *logger.Logger
	calculations     services.CalculationService
	defaultThreshold int
}

func NewCalculationHandler(log *logger.Logger, calculations services.CalculationService, defaultThreshold int) *CalculationHandler {
	return &CalculationHandler{
		log:              log.With("handler", "CalculationHandler"),
		calculations:     calculations,
		defaultThreshold: defaultThreshold,
	}
}

// POST /api/v1/calculations/activities/:type/:id
// Calculate one activity; no-op when a result already exists.
func (h *CalculationHandler) CalculateActivity(c *gin.Context) {
	ref, ok := h.parseRef(c)
	if !ok {
		return
	}
	opts := services.CalculationOptions{Threshold: h.threshold(c)}
	result, err := h.calculations.CalculateByRef(c.Request.Context(), ref, opts)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

// POST /api/v1/calculations/activities/:type/:id/recalculate
// Drop the stored result and recompute it atomically.
func (h *CalculationHandler) RecalculateActivity(c *gin.Context) {
	ref, ok := h.parseRef(c)
	if !ok {
		return
	}
	result, err := h.calculations.RecalculateActivity(c.Request.Context(), ref, h.threshold(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

type sweepRequest struct {
	Threshold int  `json:"threshold"`
	PageSize  int  `json:"page_size"`
	FailFast  bool `json:"fail_fast"`
	Legacy    bool `json:"legacy"`
}

// POST /api/v1/calculations/sweep
// Calculate every active activity that has no stored result yet.
func (h *CalculationHandler) Sweep(c *gin.Context) {
	var req sweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	if req.Threshold == 0 {
		req.Threshold = h.defaultThreshold
	}
	summary, err := h.calculations.CalculateAllPending(c.Request.Context(), services.SweepOptions{
		Threshold: req.Threshold,
		PageSize:  req.PageSize,
		FailFast:  req.FailFast,
		Legacy:    req.Legacy,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

func (h *CalculationHandler) parseRef(c *gin.Context) (types.ActivityRef, bool) {
	activityType, err := activityTypeFromSlug(c.Param("type"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_type", err)
		return types.ActivityRef{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return types.ActivityRef{}, false
	}
	return types.ActivityRef{Type: activityType, ID: id}, true
}

func (h *CalculationHandler) threshold(c *gin.Context) int {
	if threshold, ok := intQuery(c, "threshold"); ok {
		return threshold
	}
	return h.defaultThreshold
}
