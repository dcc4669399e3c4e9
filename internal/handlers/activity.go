package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/services"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type ActivityHandler struct {
	log        *logger.Logger
	activities services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activities services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:        log.With("handler", "ActivityHandler"),
		activities: activities,
	}
}

// URL slugs for the activity type tags.
var activityTypeSlugs = map[string]string{
	"electricity":    types.ActivityTypeElectricity,
	"air-travel":     types.ActivityTypeAirTravel,
	"goods-services": types.ActivityTypeGoodsServices,
}

func activityTypeFromSlug(slug string) (string, error) {
	tag, ok := activityTypeSlugs[slug]
	if !ok {
		return "", fmt.Errorf("unknown activity type %q", slug)
	}
	return tag, nil
}

type electricityActivityRequest struct {
	Date     string          `json:"date" binding:"required"`
	Country  string          `json:"country" binding:"required"`
	UsageKWh decimal.Decimal `json:"usage_kwh"`
}

type airTravelActivityRequest struct {
	Date           string           `json:"date" binding:"required"`
	DistanceMiles  *decimal.Decimal `json:"distance_miles"`
	DistanceKm     *decimal.Decimal `json:"distance_km"`
	FlightRange    string           `json:"flight_range" binding:"required"`
	PassengerClass string           `json:"passenger_class" binding:"required"`
}

type goodsServicesActivityRequest struct {
	Date             string          `json:"date" binding:"required"`
	SupplierCategory string          `json:"supplier_category" binding:"required"`
	SpendAmount      decimal.Decimal `json:"spend_amount"`
	Description      *string         `json:"description"`
}

func parseAPIDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t.UTC(), nil
}

// POST /api/v1/activities/electricity
func (h *ActivityHandler) CreateElectricity(c *gin.Context) {
	var reqs []electricityActivityRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inputs := make([]services.ElectricityActivityInput, 0, len(reqs))
	for _, req := range reqs {
		date, err := parseAPIDate(req.Date)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		inputs = append(inputs, services.ElectricityActivityInput{
			Date:     date,
			Country:  req.Country,
			UsageKWh: req.UsageKWh,
		})
	}
	created, err := h.activities.CreateElectricity(c.Request.Context(), inputs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"activities": created})
}

// POST /api/v1/activities/air-travel
func (h *ActivityHandler) CreateAirTravel(c *gin.Context) {
	var reqs []airTravelActivityRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inputs := make([]services.AirTravelActivityInput, 0, len(reqs))
	for _, req := range reqs {
		date, err := parseAPIDate(req.Date)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		inputs = append(inputs, services.AirTravelActivityInput{
			Date:           date,
			DistanceMiles:  req.DistanceMiles,
			DistanceKm:     req.DistanceKm,
			FlightRange:    req.FlightRange,
			PassengerClass: req.PassengerClass,
		})
	}
	created, err := h.activities.CreateAirTravel(c.Request.Context(), inputs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"activities": created})
}

// POST /api/v1/activities/goods-services
func (h *ActivityHandler) CreateGoodsServices(c *gin.Context) {
	var reqs []goodsServicesActivityRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inputs := make([]services.GoodsServicesActivityInput, 0, len(reqs))
	for _, req := range reqs {
		date, err := parseAPIDate(req.Date)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		inputs = append(inputs, services.GoodsServicesActivityInput{
			Date:             date,
			SupplierCategory: req.SupplierCategory,
			SpendAmount:      req.SpendAmount,
			Description:      req.Description,
		})
	}
	created, err := h.activities.CreateGoodsServices(c.Request.Context(), inputs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"activities": created})
}

// GET /api/v1/activities/:type
func (h *ActivityHandler) List(c *gin.Context) {
	activityType, err := activityTypeFromSlug(c.Param("type"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_type", err)
		return
	}
	offset, limit := pagination(c)
	activities, total, err := h.activities.List(c.Request.Context(), activityType, offset, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"activities": activities, "total": total, "offset": offset, "limit": limit})
}

// GET /api/v1/activities/:type/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	activityType, err := activityTypeFromSlug(c.Param("type"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_type", err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	activity, err := h.activities.GetByRef(c.Request.Context(), types.ActivityRef{Type: activityType, ID: id})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"activity": activity})
}

// DELETE /api/v1/activities/:type/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	activityType, err := activityTypeFromSlug(c.Param("type"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_type", err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	refs := []types.ActivityRef{{Type: activityType, ID: id}}
	if err := h.activities.Delete(c.Request.Context(), refs); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": 1})
}

func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return offset, limit
}
