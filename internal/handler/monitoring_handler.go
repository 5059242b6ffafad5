package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

// MonitoringHandler handles HTTP requests for the live map
type MonitoringHandler struct {
	monitoringService *service.MonitoringService
}

// NewMonitoringHandler creates a new monitoring handler
func NewMonitoringHandler(monitoringService *service.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
	}
}

// Positions handles GET /api/v1/monitoring/positions
func (h *MonitoringHandler) Positions(c *gin.Context) {
	var filter models.MonitoringFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	points, err := h.monitoringService.Positions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	switch filter.Format {
	case "", "json":
		response.Success(c, points)
	case "msgpack":
		response.Msgpack(c, points)
	default:
		response.BadRequest(c, "format must be json or msgpack")
	}
}

// Facilities handles GET /api/v1/monitoring/facilities
func (h *MonitoringHandler) Facilities(c *gin.Context) {
	var filter models.MonitoringFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	facilities, err := h.monitoringService.Facilities(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, facilities)
}

// Settings handles GET /api/v1/monitoring/settings
func (h *MonitoringHandler) Settings(c *gin.Context) {
	response.Success(c, h.monitoringService.Settings())
}
