package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/service"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// ConversationAnalyticsHandler exposes the dashboard query layer and the
// on-demand analytics recompute
type ConversationAnalyticsHandler struct {
	dashboard  *service.DashboardService
	aggregator *service.Aggregator
	convs      *service.ConversationService
}

// NewConversationAnalyticsHandler builds the analytics handler
func NewConversationAnalyticsHandler(dashboard *service.DashboardService, aggregator *service.Aggregator, convs *service.ConversationService) *ConversationAnalyticsHandler {
	return &ConversationAnalyticsHandler{dashboard: dashboard, aggregator: aggregator, convs: convs}
}

// Dashboard returns the tenant-wide rollup for the requested window.
// Accepts either timeRange ("7d", "30d", "90d") or startDate/endDate.
func (h *ConversationAnalyticsHandler) Dashboard(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	summary, err := h.dashboard.Dashboard(c.Request().Context(), tenant.ID, start, end)
	if err != nil {
		log.Error("failed to build dashboard", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to build dashboard"})
	}

	prometheus.RecordAnalyticsOperation("dashboard")
	return c.JSON(http.StatusOK, summary)
}

// UserAnalytics returns per-conversation analytics rows for one user.
// Everyone can read their own; reading another user requires manager or above.
func (h *ConversationAnalyticsHandler) UserAnalytics(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid user id"})
	}
	if uint(targetID) != user.ID && !user.HasRole(model.RoleManager) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "insufficient permissions"})
	}

	start, end, err := service.ParseTimeWindow(
		c.QueryParam("timeRange"),
		c.QueryParam("startDate"),
		c.QueryParam("endDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	records, err := h.dashboard.UserAnalytics(c.Request().Context(), tenant.ID, uint(targetID), start, end)
	if err != nil {
		log.Error("failed to load user analytics", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to load analytics"})
	}

	prometheus.RecordAnalyticsOperation("user_analytics")
	return c.JSON(http.StatusOK, echo.Map{
		"analytics": records,
		"count":     len(records),
	})
}

// Analyze recomputes analytics for a completed conversation. Manager and
// above. The insert is idempotent: if a record already exists for the
// conversation, the existing one comes back.
func (h *ConversationAnalyticsHandler) Analyze(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)

	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid conversation id"})
	}

	conv, err := h.convs.GetByID(c.Request().Context(), tenant.ID, uint(conversationID))
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "conversation not found"})
		}
		log.Error("failed to load conversation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to load conversation"})
	}

	var req struct {
		ContextFactors *service.ContextFactors `json:"context_factors"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	analytics, err := h.aggregator.Analyze(c.Request().Context(), conv, req.ContextFactors)
	if err != nil {
		log.Error("failed to analyze conversation",
			zap.Uint("conversation_id", conv.ID), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	prometheus.RecordAnalyticsOperation("analyze")
	log.Info("conversation analyzed", zap.Uint("conversation_id", conv.ID))
	return c.JSON(http.StatusOK, echo.Map{"analytics": analytics})
}
