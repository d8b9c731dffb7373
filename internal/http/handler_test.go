package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stage-analytics-service/internal/auth"
	"stage-analytics-service/internal/http/middleware"
	"stage-analytics-service/internal/metrics"
	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/repository"
	"stage-analytics-service/internal/service"
	"stage-analytics-service/internal/workflow"
)

const secret = "test-secret"

var day = time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSource struct {
	vehicles []model.Vehicle
	err      error
}

func (s stubSource) VehiclesWithEventsBetween(context.Context, time.Time, time.Time) ([]model.Vehicle, error) {
	return s.vehicles, s.err
}

func (s stubSource) VehiclesEnteredBetween(context.Context, time.Time, time.Time) ([]model.Vehicle, error) {
	return s.vehicles, s.err
}

func (s stubSource) ActiveVehicles(context.Context) ([]model.Vehicle, error) {
	return s.vehicles, s.err
}

func (s stubSource) VehiclesTouching(context.Context, time.Time, time.Time) ([]model.Vehicle, error) {
	return s.vehicles, s.err
}

func (s stubSource) VehicleByNumber(_ context.Context, number string) (*model.Vehicle, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, v := range s.vehicles {
		if v.VehicleNumber == number {
			found := v
			return &found, nil
		}
	}
	return nil, repository.ErrVehicleNotFound
}

func newTestRouter(t *testing.T, source service.VehicleSource) *gin.Engine {
	t.Helper()
	recorder := metrics.NewRecorder()
	svc := service.NewAnalyticsService(source, nil, recorder, zerolog.Nop(), service.Options{
		Location: time.UTC,
		Now:      func() time.Time { return day.Add(14 * time.Hour) },
	})
	handler := NewHandler(svc, zerolog.Nop())
	return NewRouter(handler, middleware.Auth(auth.NewParser(secret)), recorder, zerolog.Nop(), RouterConfig{
		Environment: "development",
	})
}

func fixture() []model.Vehicle {
	return []model.Vehicle{{
		VehicleNumber: "KA01AB1234",
		EntryTime:     day.Add(9 * time.Hour),
		Stages: []model.StageEvent{
			{StageName: workflow.InteractiveBay, EventType: model.EventStart, Timestamp: day.Add(10 * time.Hour)},
			{StageName: workflow.InteractiveBay, EventType: model.EventEnd, Timestamp: day.Add(10*time.Hour + 45*time.Minute)},
			{StageName: workflow.Washing, EventType: model.EventStart, Timestamp: day.Add(13 * time.Hour)},
		},
	}}
}

func bearer(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "u-1",
		Role:   "workshop_manager",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func perform(t *testing.T, r *gin.Engine, path string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorized {
		req.Header.Set("Authorization", bearer(t))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/healthz", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	perform(t, r, "/analytics/live", true)
	rec = perform(t, r, "/metrics", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stage_analytics_report_seconds")
}

func TestAnalyticsRequiresToken(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/analytics/stages", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authorization header missing", decode(t, rec)["error"])
}

func TestGetStageReport(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/analytics/stages?windows=today,thisWeek", true)
	require.Equal(t, http.StatusOK, rec.Code)

	raw := rec.Body.String()
	assert.Less(t, strings.Index(raw, `"today"`), strings.Index(raw, `"thisWeek"`))
	assert.Less(t, strings.Index(raw, `"`+workflow.InteractiveBay+`"`), strings.Index(raw, `"`+workflow.Washing+`"`))

	data := decode(t, rec)["data"].(map[string]interface{})
	windows := data["windows"].(map[string]interface{})
	today := windows["today"].(map[string]interface{})
	stages := today["stages"].(map[string]interface{})
	interactive := stages[workflow.InteractiveBay].(map[string]interface{})
	assert.Equal(t, "00:45:00", interactive["total_duration"])
	assert.Equal(t, float64(1), interactive["count"])
}

func TestGetStageReportBadRequests(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	tests := []struct {
		name string
		path string
	}{
		{"unknown window", "/analytics/stages?windows=fortnight"},
		{"malformed from", "/analytics/stages?from=yesterday"},
		{"end before start", "/analytics/stages?from=2026-10-15T12:00:00Z&to=2026-10-15T11:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(t, r, tt.path, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestGetVehicleReport(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/analytics/vehicles?windows=today", true)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["active"])
	today := data["windows"].(map[string]interface{})["today"].(map[string]interface{})
	vehicles := today["vehicles"].(map[string]interface{})
	assert.Equal(t, float64(1), vehicles["entered"])
	assert.Equal(t, float64(0), vehicles["exited"])
}

func TestGetLiveStatus(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/analytics/live", true)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	stages := data["stages"].(map[string]interface{})
	washing := stages[workflow.Washing].([]interface{})
	require.Len(t, washing, 1)
	assert.Equal(t, "01:00:00", washing[0].(map[string]interface{})["elapsed"])
}

func TestGetVehicleTimeline(t *testing.T) {
	r := newTestRouter(t, stubSource{vehicles: fixture()})

	rec := perform(t, r, "/analytics/vehicles/KA01AB1234/timeline", true)
	require.Equal(t, http.StatusOK, rec.Code)
	intervals := decode(t, rec)["data"].(map[string]interface{})["intervals"].([]interface{})
	assert.Len(t, intervals, 2)

	rec = perform(t, r, "/analytics/vehicles/UNKNOWN/timeline", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	r := newTestRouter(t, stubSource{err: errors.New("mongo: no reachable servers")})

	rec := perform(t, r, "/analytics/stages", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}
