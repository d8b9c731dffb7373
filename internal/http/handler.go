package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stage-analytics-service/internal/http/middleware"
	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/service"
)

type Handler struct {
	analytics *service.AnalyticsService
	log       zerolog.Logger
}

func NewHandler(analytics *service.AnalyticsService, log zerolog.Logger) *Handler {
	return &Handler{analytics: analytics, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/analytics")
	protected.Use(authMiddleware)

	protected.GET("/stages", h.getStageReport)
	protected.GET("/vehicles", h.getVehicleReport)
	protected.GET("/vehicles/:number/timeline", h.getVehicleTimeline)
	protected.GET("/live", h.getLiveStatus)
}

func (h *Handler) getStageReport(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	req, err := parseWindowRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	report, err := h.analytics.GetStageReport(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) getVehicleReport(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	req, err := parseWindowRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	report, err := h.analytics.GetVehicleReport(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) getLiveStatus(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	live, err := h.analytics.GetLiveStatus(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(live))
}

func (h *Handler) getVehicleTimeline(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	timeline, err := h.analytics.GetVehicleTimeline(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(timeline))
}

// parseWindowRequest reads ?windows=a,b&from=RFC3339&to=RFC3339.
func parseWindowRequest(c *gin.Context) (model.WindowRequest, error) {
	var req model.WindowRequest
	for _, raw := range c.QueryArray("windows") {
		for _, name := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				req.Kinds = append(req.Kinds, trimmed)
			}
		}
	}

	var err error
	if req.Custom.From, err = parseTime(c, "from"); err != nil {
		return model.WindowRequest{}, err
	}
	if req.Custom.To, err = parseTime(c, "to"); err != nil {
		return model.WindowRequest{}, err
	}
	return req, nil
}

func parseTime(c *gin.Context, param string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected RFC3339 timestamp", param)
	}
	return parsed, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
