package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid", fmt.Errorf("%w: latitude out of range", models.ErrInvalidInput), http.StatusBadRequest, "invalid input: latitude out of range"},
		{"not found", fmt.Errorf("wrapped: %w", models.ErrNotFound), http.StatusNotFound, "wrapped: not found"},
		{"forbidden", models.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"stale", models.ErrStaleReport, http.StatusConflict, "stale report"},
		{"transition", models.ErrTransitionRejected, http.StatusConflict, "event transition rejected"},
		{"store", errors.New("database is locked"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"message":"`+tt.message+`"`)
			assert.NotContains(t, w.Body.String(), "database is locked")
		})
	}
}

func TestCheckIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.NoError(t, checkIdentity(c, 1000), "unbound requests pass")

	c.Set("person_id", int64(1000))
	assert.NoError(t, checkIdentity(c, 1000))
	assert.ErrorIs(t, checkIdentity(c, 1001), models.ErrForbidden)
}
