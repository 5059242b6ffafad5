package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/handler"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/middleware"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/testutil"
	"github.com/Alan4CS/GeoAppHospital-sub001/pkg/response"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type options struct {
	authDisabled bool
	events       service.EventPolicy
	rateLimit    int
}

func newRouter(t *testing.T, opts options) *gin.Engine {
	t.Helper()

	db := testutil.NewSeededDB(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	positionRepo := repository.NewPositionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	rollupRepo := repository.NewRollupRepository(db)

	positions := service.NewPositionService(db, positionRepo, registrationRepo, catalogRepo, service.PositionOptions{
		Events:  opts.events,
		Metrics: m,
		Clock:   func() time.Time { return now },
	})
	rollups := service.NewRollupService(rollupRepo, catalogRepo, time.UTC, 0, m)
	monitoring := service.NewMonitoringService(positionRepo, catalogRepo, models.MonitoringSettings{
		RefreshSeconds:         300,
		PersonnelClusterRadius: 40,
		FacilityClusterRadius:  60,
	}, 7)

	limit := opts.rateLimit
	if limit == 0 {
		limit = 100
	}

	return SetupRouter(Dependencies{
		DB:           db,
		Positions:    handler.NewPositionHandler(positions, m),
		Rollups:      handler.NewRollupHandler(rollups),
		Monitoring:   handler.NewMonitoringHandler(monitoring),
		Metrics:      m,
		Gatherer:     reg,
		Limiter:      middleware.NewRateLimiter(limit, time.Minute),
		JWTSecret:    testSecret,
		AuthDisabled: opts.authDisabled,
	})
}

func token(t *testing.T, personID int64) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(personID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func do(r *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func pingBody(personID int64) string {
	return `{"person_id":` + strconv.FormatInt(personID, 10) +
		`,"latitude":20.6767,"longitude":-103.3475,"inside_perimeter":true,"registration_type":1}`
}

func eventBody(personID int64, code models.EventCode) string {
	return strings.TrimSuffix(pingBody(personID), "}") + `,"event":` + strconv.Itoa(int(code)) + `}`
}

func TestHealth(t *testing.T) {
	r := newRouter(t, options{})

	w := do(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t, options{})

	w := do(r, http.MethodOptions, "/api/v1/positions", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestReportPosition(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})

	t.Run("stored", func(t *testing.T) {
		var ack models.PositionAck
		w := do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode(t, w, &ack)
		assert.Equal(t, 0, env.Code)
		assert.True(t, ack.Ack)
		assert.Equal(t, int64(1000), ack.PersonID)
		assert.Equal(t, int64(1), ack.Revision)
	})

	t.Run("missing field", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/positions", `{"person_id":1000,"latitude":20.6,"longitude":-103.3,"registration_type":1}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero values are present values", func(t *testing.T) {
		body := `{"person_id":1001,"latitude":0,"longitude":0,"inside_perimeter":false,"registration_type":0}`
		w := do(r, http.MethodPost, "/api/v1/positions", body, "")
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("out of range latitude", func(t *testing.T) {
		body := `{"person_id":1000,"latitude":91,"longitude":-103.3,"inside_perimeter":true,"registration_type":1}`
		w := do(r, http.MethodPost, "/api/v1/positions", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown person", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/positions", pingBody(9999), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReportPosition_Identity(t *testing.T) {
	r := newRouter(t, options{})

	w := do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/positions", pingBody(1001), token(t, 1000))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), token(t, 1000))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestReportPosition_RateLimited(t *testing.T) {
	r := newRouter(t, options{rateLimit: 2})
	tok := token(t, 1000)

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), tok)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), tok)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// another identity has its own window
	w = do(r, http.MethodPost, "/api/v1/positions", pingBody(1001), token(t, 1001))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordEvent(t *testing.T) {
	r := newRouter(t, options{authDisabled: true, events: service.AlternatingPerimeter{}})

	w := do(r, http.MethodPost, "/api/v1/events", eventBody(1000, models.EventEntry), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/events", eventBody(1000, models.EventEntry), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/events", eventBody(1000, 7), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/events", pingBody(1000), "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "event is required")
}

func TestRollups(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})
	for _, body := range []string{
		eventBody(1000, models.EventEntry),
		eventBody(1000, models.EventExit),
		eventBody(1002, models.EventExit),
		eventBody(1100, models.EventEntry),
	} {
		require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/events", body, "").Code)
	}
	const window = "?start=2024-02-29&end=2024-03-01"

	t.Run("daily", func(t *testing.T) {
		var series []models.DailyCount
		w := do(r, http.MethodGet, "/api/v1/rollups/municipality/10/daily"+window, "", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &series)
		assert.Equal(t, []models.DailyCount{
			{Date: "2024-02-29", Entries: 0, Exits: 0},
			{Date: "2024-03-01", Entries: 1, Exits: 2},
		}, series)
	})

	t.Run("events", func(t *testing.T) {
		var events []models.EventCount
		w := do(r, http.MethodGet, "/api/v1/rollups/state/1/events"+window, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &events)
		assert.ElementsMatch(t, []models.EventCount{
			{EventCode: models.EventExit, Label: "Salió geocerca", Count: 2},
			{EventCode: models.EventEntry, Label: "Entró geocerca", Count: 2},
		}, events)
	})

	t.Run("facility ranking", func(t *testing.T) {
		var ranks []models.FacilityRank
		w := do(r, http.MethodGet, "/api/v1/rollups/national/0/facility-ranking"+window+"&limit=1", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &ranks)
		require.Len(t, ranks, 1)
		assert.Equal(t, int64(100), ranks[0].FacilityID)
	})

	t.Run("children", func(t *testing.T) {
		var children []models.ChildRollup
		w := do(r, http.MethodGet, "/api/v1/rollups/state/1/children"+window, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &children)
		require.Len(t, children, 2)
		assert.Equal(t, "Guadalajara", children[0].UnitName)
		assert.Equal(t, "San Pedro", children[1].UnitName)
		assert.Equal(t, int64(2), children[1].FacilityCount)
		assert.Equal(t, int64(1), children[1].Entries)
	})

	t.Run("unit detail", func(t *testing.T) {
		var detail models.UnitDetail
		w := do(r, http.MethodGet, "/api/v1/units/facility/100/detail"+window, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &detail)
		assert.Equal(t, "Clinic X", detail.UnitName)
		assert.Equal(t, "Guadalajara", detail.ParentName)
		assert.Equal(t, int64(1), detail.Exits)

		var alias models.UnitDetail
		w = do(r, http.MethodGet, "/api/v1/rollups/unit-detail/100"+window, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &alias)
		assert.Equal(t, detail, alias)

		w = do(r, http.MethodGet, "/api/v1/rollups/unit-detail/10"+window+"&level=municipality", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &alias)
		assert.Equal(t, "Guadalajara", alias.UnitName)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			path string
			want int
		}{
			{"/api/v1/rollups/planet/1/daily" + window, http.StatusBadRequest},
			{"/api/v1/rollups/state/x/daily" + window, http.StatusBadRequest},
			{"/api/v1/rollups/state/1/daily?start=2024-03-02&end=2024-03-01", http.StatusBadRequest},
			{"/api/v1/rollups/state/1/daily?start=yesterday&end=2024-03-01", http.StatusBadRequest},
			{"/api/v1/rollups/state/1/facility-ranking" + window + "&limit=abc", http.StatusBadRequest},
			{"/api/v1/rollups/state/99/children" + window, http.StatusNotFound},
			{"/api/v1/units/facility/999/detail" + window, http.StatusNotFound},
			{"/api/v1/rollups/unit-detail/999" + window, http.StatusNotFound},
		}
		for _, tt := range tests {
			w := do(r, http.MethodGet, tt.path, "", "")
			assert.Equal(t, tt.want, w.Code, tt.path)
		}
	})
}

func TestMonitoring(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), "").Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/positions", pingBody(2000), "").Code)

	t.Run("json", func(t *testing.T) {
		var points []models.MonitoringPoint
		w := do(r, http.MethodGet, "/api/v1/monitoring/positions?state_id=1", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &points)
		require.Len(t, points, 1)
		assert.Equal(t, int64(1000), points[0].PersonID)
		assert.Equal(t, models.MarkerNormal, points[0].Marker)
		assert.Len(t, points[0].Geohash, 7)
	})

	t.Run("msgpack", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/monitoring/positions?format=msgpack", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.MsgpackContentType, w.Header().Get("Content-Type"))

		var env struct {
			Code int                      `msgpack:"code"`
			Data []map[string]interface{} `msgpack:"data"`
		}
		require.NoError(t, msgpack.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&env))
		assert.Len(t, env.Data, 2)
		assert.Contains(t, env.Data[0], "person_id")
	})

	t.Run("unknown format", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/monitoring/positions?format=xml", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("facilities", func(t *testing.T) {
		var facilities []models.Facility
		w := do(r, http.MethodGet, "/api/v1/monitoring/facilities?municipality_id=10", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &facilities)
		assert.Len(t, facilities, 3)
	})

	t.Run("settings", func(t *testing.T) {
		var settings models.MonitoringSettings
		w := do(r, http.MethodGet, "/api/v1/monitoring/settings", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &settings)
		assert.Equal(t, 300, settings.RefreshSeconds)
		assert.Less(t, settings.PersonnelClusterRadius, settings.FacilityClusterRadius)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), "").Code)

	w := do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `perimeter_positions_reported_total{outcome="stored"} 1`)
	assert.Contains(t, body, `route="/api/v1/positions"`)
}

func TestPersons(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})

	w := do(r, http.MethodGet, "/api/v1/persons/1000/position", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing reported yet")

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/events", eventBody(1000, models.EventEntry), "").Code)

	var current models.CurrentPosition
	w = do(r, http.MethodGet, "/api/v1/persons/1000/position", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &current)
	assert.Equal(t, int64(1000), current.PersonID)
	require.NotNil(t, current.Event)
	assert.Equal(t, models.EventEntry, *current.Event)

	var history []models.Registration
	w = do(r, http.MethodGet, "/api/v1/persons/1000/history?start=2024-03-01&end=2024-03-01", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventEntry, history[0].Event)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/persons/abc/position", http.StatusBadRequest},
		{"/api/v1/persons/9999/position", http.StatusNotFound},
		{"/api/v1/persons/1000/history", http.StatusBadRequest},
		{"/api/v1/persons/1000/history?start=2020-01-01&end=2024-03-01", http.StatusBadRequest},
		{"/api/v1/persons/9999/history?start=2024-03-01&end=2024-03-01", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := do(r, http.MethodGet, tt.path, "", "")
		assert.Equal(t, tt.want, w.Code, tt.path)
	}
}

func TestRollups_WindowLimit(t *testing.T) {
	r := newRouter(t, options{})

	w := do(r, http.MethodGet, "/api/v1/rollups/national/0/daily?start=0001-01-01&end=9999-12-31", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var series []models.DailyCount
	w = do(r, http.MethodGet, "/api/v1/rollups/national/0/daily?start=2024-01-01&end=2024-12-31", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &series)
	assert.Len(t, series, service.DefaultMaxWindowDays)
}

func TestMonitoring_GeohashFilter(t *testing.T) {
	r := newRouter(t, options{authDisabled: true})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/positions", pingBody(1000), "").Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/positions", pingBody(2000), "").Code)

	// both pings share coordinates, so a cell around them keeps both
	var points []models.MonitoringPoint
	w := do(r, http.MethodGet, "/api/v1/monitoring/positions?geohash=9ewt", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &points)
	assert.Len(t, points, 2)

	w = do(r, http.MethodGet, "/api/v1/monitoring/positions?geohash=9ew", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &points)
	assert.Len(t, points, 2)

	w = do(r, http.MethodGet, "/api/v1/monitoring/positions?geohash=u4pr", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &points)
	assert.Empty(t, points)

	w = do(r, http.MethodGet, "/api/v1/monitoring/positions?geohash=9eta", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
