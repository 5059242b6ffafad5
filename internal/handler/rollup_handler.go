package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

// RollupHandler handles HTTP requests for dashboard rollups
type RollupHandler struct {
	rollupService *service.RollupService
}

// NewRollupHandler creates a new rollup handler
func NewRollupHandler(rollupService *service.RollupService) *RollupHandler {
	return &RollupHandler{
		rollupService: rollupService,
	}
}

func bindRollupQuery(c *gin.Context) (models.RollupQuery, bool) {
	var q models.RollupQuery
	if err := c.ShouldBindUri(&q); err != nil {
		response.BadRequest(c, "Invalid path parameters")
		return q, false
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return q, false
	}
	return q, true
}

// Daily handles GET /api/v1/rollups/:level/:id/daily
func (h *RollupHandler) Daily(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}

	series, err := h.rollupService.Daily(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, series)
}

// Events handles GET /api/v1/rollups/:level/:id/events
func (h *RollupHandler) Events(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}

	events, err := h.rollupService.Events(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, events)
}

// FacilityRanking handles GET /api/v1/rollups/:level/:id/facility-ranking
func (h *RollupHandler) FacilityRanking(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}

	ranks, err := h.rollupService.FacilityRanking(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, ranks)
}

// Children handles GET /api/v1/rollups/:level/:id/children
func (h *RollupHandler) Children(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}

	children, err := h.rollupService.Children(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, children)
}

// UnitDetail handles GET /api/v1/units/:level/:id/detail
func (h *RollupHandler) UnitDetail(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}

	detail, err := h.rollupService.UnitDetail(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, detail)
}

// UnitDetailByID handles GET /api/v1/rollups/unit-detail/:id. The unit level
// comes from ?level= and defaults to facility.
func (h *RollupHandler) UnitDetailByID(c *gin.Context) {
	q, ok := bindRollupQuery(c)
	if !ok {
		return
	}
	q.Level = c.DefaultQuery("level", string(models.LevelFacility))

	detail, err := h.rollupService.UnitDetail(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, detail)
}
