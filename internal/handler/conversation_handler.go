package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/service"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// ConversationHandler exposes the emotion conversation lifecycle
type ConversationHandler struct {
	svc *service.ConversationService
}

// NewConversationHandler builds the conversation handler
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// Start opens a new conversation session and returns its question script
func (h *ConversationHandler) Start(c echo.Context) error {
	log := logger.FromEcho(c)

	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req struct {
		ConversationType string `json:"conversation_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.ConversationType == "" {
		req.ConversationType = "daily"
	}

	conv, questions, err := h.svc.Start(c.Request().Context(), tenant.ID, user.ID, req.ConversationType)
	if err != nil {
		log.Error("failed to start conversation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	prometheus.RecordConversationOperation("start")
	log.Info("conversation started",
		zap.String("session_id", conv.SessionID),
		zap.String("type", conv.ConversationType))
	return c.JSON(http.StatusCreated, echo.Map{
		"conversation": conv,
		"questions":    questions,
	})
}

// Respond records one user answer and returns its emotion score
func (h *ConversationHandler) Respond(c echo.Context) error {
	log := logger.FromEcho(c)

	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)
	sessionID := c.Param("session_id")

	var req struct {
		QuestionID   string `json:"question_id"`
		QuestionText string `json:"question_text"`
		Response     string `json:"response"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.Response == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "response is required"})
	}

	conv, analysis, err := h.svc.Respond(c.Request().Context(), tenant.ID, user.ID, sessionID, req.QuestionID, req.QuestionText, req.Response)
	if err != nil {
		return h.mapError(c, err, "failed to record response")
	}

	prometheus.RecordConversationOperation("respond")
	log.Info("conversation response recorded",
		zap.String("session_id", sessionID),
		zap.String("primary_emotion", analysis.PrimaryEmotion),
		zap.Bool("scored", analysis.Scored))
	return c.JSON(http.StatusOK, echo.Map{
		"conversation": conv,
		"analysis":     analysis,
	})
}

// Complete closes the session, runs the extraction pipeline, and returns
// the conversation with its analytics record
func (h *ConversationHandler) Complete(c echo.Context) error {
	log := logger.FromEcho(c)

	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)
	sessionID := c.Param("session_id")

	var req struct {
		ContextFactors *service.ContextFactors `json:"context_factors"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	conv, analytics, err := h.svc.Complete(c.Request().Context(), tenant.ID, user.ID, sessionID, req.ContextFactors)
	if err != nil {
		return h.mapError(c, err, "failed to complete conversation")
	}

	prometheus.RecordConversationOperation("complete")
	log.Info("conversation completed",
		zap.String("session_id", sessionID),
		zap.Uint("conversation_id", conv.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"conversation": conv,
		"analytics":    analytics,
	})
}

// Get returns one conversation by session id
func (h *ConversationHandler) Get(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	conv, err := h.svc.GetBySession(c.Request().Context(), tenant.ID, user.ID, c.Param("session_id"))
	if err != nil {
		return h.mapError(c, err, "failed to load conversation")
	}
	return c.JSON(http.StatusOK, echo.Map{"conversation": conv})
}

// List returns the acting user's recent conversations
func (h *ConversationHandler) List(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	conversations, err := h.svc.List(c.Request().Context(), tenant.ID, user.ID, limit)
	if err != nil {
		logger.FromEcho(c).Error("failed to list conversations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to list conversations"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func (h *ConversationHandler) mapError(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "conversation not found"})
	case errors.Is(err, service.ErrConversationCompleted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "conversation is already completed"})
	default:
		logger.FromEcho(c).Error(message, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": message})
	}
}
