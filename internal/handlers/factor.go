package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/services"
)

type FactorHandler struct {
	log     *logger.Logger
	factors services.FactorService
}

func NewFactorHandler(log *logger.Logger, factors services.FactorService) *FactorHandler {
	return &FactorHandler{
		log:     log.With("handler", "FactorHandler"),
		factors: factors,
	}
}

type factorRequest struct {
	ActivityType     string          `json:"activity_type" binding:"required"`
	LookupIdentifier string          `json:"lookup_identifier" binding:"required"`
	Unit             string          `json:"unit" binding:"required"`
	CO2eFactor       decimal.Decimal `json:"co2e_factor"`
	Scope            int             `json:"scope" binding:"required"`
	Category         *int            `json:"category"`
	Source           string          `json:"source"`
	Notes            string          `json:"notes"`
}

func (r factorRequest) toInput() services.FactorInput {
	return services.FactorInput{
		ActivityType:     r.ActivityType,
		LookupIdentifier: r.LookupIdentifier,
		Unit:             r.Unit,
		CO2eFactor:       r.CO2eFactor,
		Scope:            r.Scope,
		Category:         r.Category,
		Source:           r.Source,
		Notes:            r.Notes,
	}
}

// POST /api/v1/factors
func (h *FactorHandler) Create(c *gin.Context) {
	var reqs []factorRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inputs := make([]services.FactorInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, req.toInput())
	}
	created, err := h.factors.Create(c.Request.Context(), inputs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"factors": created})
}

// PUT /api/v1/factors/:id
func (h *FactorHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_factor_id", err)
		return
	}
	var req factorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	factor, err := h.factors.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "factor_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"factor": factor})
}

// GET /api/v1/factors/:id
func (h *FactorHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_factor_id", err)
		return
	}
	factor, err := h.factors.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "factor_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"factor": factor})
}

// GET /api/v1/factors
func (h *FactorHandler) List(c *gin.Context) {
	filter := repos.FactorFilter{
		ActivityType: c.Query("activity_type"),
	}
	if scope, ok := intQuery(c, "scope"); ok {
		filter.Scope = &scope
	}
	if category, ok := intQuery(c, "category"); ok {
		filter.Category = &category
	}
	offset, limit := pagination(c)
	factors, err := h.factors.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"factors": factors, "offset": offset, "limit": limit})
}

// DELETE /api/v1/factors/:id
func (h *FactorHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_factor_id", err)
		return
	}
	if err := h.factors.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": 1})
}
