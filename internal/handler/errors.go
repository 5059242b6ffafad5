package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/middleware"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

// respondError maps service errors onto the response envelope. Store and
// other unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, models.ErrStaleReport), errors.Is(err, models.ErrTransitionRejected):
		response.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		log.WithFields(log.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
