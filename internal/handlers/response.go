package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carbonledger-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError maps the service layer's sentinel errors onto HTTP
// statuses; anything unrecognized is a 500.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrActivityNotFound):
		RespondError(c, http.StatusNotFound, "activity_not_found", err)
	case errors.Is(err, services.ErrNoMatch):
		RespondError(c, http.StatusUnprocessableEntity, "no_factor_match", err)
	case errors.Is(err, services.ErrNotCalculable):
		RespondError(c, http.StatusUnprocessableEntity, "not_calculable", err)
	case errors.Is(err, services.ErrUnknownActivityType):
		RespondError(c, http.StatusBadRequest, "unknown_activity_type", err)
	case errors.Is(err, services.ErrFactorReferenced):
		RespondError(c, http.StatusConflict, "factor_referenced", err)
	case errors.Is(err, services.ErrNoData):
		RespondError(c, http.StatusNotFound, "no_data", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
