package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/service"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// EmotionAnalyticsHandler serves the per-user emotion snapshot views
type EmotionAnalyticsHandler struct {
	snapshots *service.EmotionSnapshotService
}

// NewEmotionAnalyticsHandler builds the snapshot handler
func NewEmotionAnalyticsHandler(snapshots *service.EmotionSnapshotService) *EmotionAnalyticsHandler {
	return &EmotionAnalyticsHandler{snapshots: snapshots}
}

// Overview returns the aggregate snapshot for the window
func (h *EmotionAnalyticsHandler) Overview(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	overview, err := h.snapshots.Overview(c.Request().Context(), tenant.ID, user.ID, start, end)
	if err != nil {
		logger.FromEcho(c).Error("failed to build emotion overview", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to build overview"})
	}

	prometheus.RecordAnalyticsOperation("emotion_overview")
	return c.JSON(http.StatusOK, overview)
}

// Trends returns the per-day mood series
func (h *EmotionAnalyticsHandler) Trends(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	trends, err := h.snapshots.Trends(c.Request().Context(), tenant.ID, user.ID, start, end)
	if err != nil {
		logger.FromEcho(c).Error("failed to build emotion trends", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to build trends"})
	}

	prometheus.RecordAnalyticsOperation("emotion_trends")
	return c.JSON(http.StatusOK, echo.Map{"trends": trends})
}

// Insights returns top emotions and the best/worst days in the window
func (h *EmotionAnalyticsHandler) Insights(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	insights, err := h.snapshots.Insights(c.Request().Context(), tenant.ID, user.ID, start, end)
	if err != nil {
		logger.FromEcho(c).Error("failed to build emotion insights", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to build insights"})
	}

	prometheus.RecordAnalyticsOperation("emotion_insights")
	return c.JSON(http.StatusOK, insights)
}

// Heatmap returns mood buckets keyed by weekday and time of day
func (h *EmotionAnalyticsHandler) Heatmap(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	cells, err := h.snapshots.Heatmap(c.Request().Context(), tenant.ID, user.ID, start, end)
	if err != nil {
		logger.FromEcho(c).Error("failed to build emotion heatmap", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to build heatmap"})
	}

	prometheus.RecordAnalyticsOperation("emotion_heatmap")
	return c.JSON(http.StatusOK, echo.Map{"heatmap": cells})
}
