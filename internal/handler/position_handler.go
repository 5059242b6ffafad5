package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/middleware"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

// PositionHandler handles HTTP requests for position ingestion
type PositionHandler struct {
	positionService *service.PositionService
	metrics         *metrics.Metrics
}

// NewPositionHandler creates a new position handler. m may be nil.
func NewPositionHandler(positionService *service.PositionService, m *metrics.Metrics) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
		metrics:         m,
	}
}

// Report handles POST /api/v1/positions
func (h *PositionHandler) Report(c *gin.Context) {
	var req models.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.CountReport(metrics.OutcomeInvalid)
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := checkIdentity(c, *req.PersonID); err != nil {
		h.metrics.CountReport(metrics.OutcomeForbidden)
		respondError(c, err)
		return
	}

	ack, err := h.positionService.Report(c.Request.Context(), req.Report())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, ack)
}

// RecordEvent handles POST /api/v1/events
func (h *PositionHandler) RecordEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.CountReport(metrics.OutcomeInvalid)
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := checkIdentity(c, *req.PersonID); err != nil {
		h.metrics.CountReport(metrics.OutcomeForbidden)
		respondError(c, err)
		return
	}

	ack, err := h.positionService.RecordEvent(c.Request.Context(), req.Report())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, ack)
}

// Current handles GET /api/v1/persons/:id/position
func (h *PositionHandler) Current(c *gin.Context) {
	var q models.HistoryQuery
	if err := c.ShouldBindUri(&q); err != nil {
		response.BadRequest(c, "Invalid person ID")
		return
	}

	position, err := h.positionService.Current(c.Request.Context(), q.PersonID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, position)
}

// History handles GET /api/v1/persons/:id/history
func (h *PositionHandler) History(c *gin.Context) {
	var q models.HistoryQuery
	if err := c.ShouldBindUri(&q); err != nil {
		response.BadRequest(c, "Invalid person ID")
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	history, err := h.positionService.History(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, history)
}

// checkIdentity rejects a report for anyone but the bound person. Without a
// bound identity (auth disabled) every person id is accepted.
func checkIdentity(c *gin.Context, personID int64) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id == personID {
		return nil
	}
	return fmt.Errorf("%w: token is bound to person %d", models.ErrForbidden, id)
}
