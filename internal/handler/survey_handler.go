package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/service"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// SurveyHandler owns survey CRUD and response collection
type SurveyHandler struct {
	db  *gorm.DB
	svc *service.SurveyService
}

// NewSurveyHandler builds the survey handler
func NewSurveyHandler(db *gorm.DB, svc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{db: db, svc: svc}
}

// Create adds a new survey in draft status. Manager and above.
func (h *SurveyHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req struct {
		Title       string                   `json:"title"`
		Description string                   `json:"description"`
		Questions   model.SurveyQuestionList `json:"questions"`
		Settings    model.SurveySettings     `json:"settings"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "title is required"})
	}
	if len(req.Questions) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "at least one question is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Enforce the tenant's survey cap
	var surveyCount int64
	h.db.Model(&model.Survey{}).Where("tenant_id = ?", tenant.ID).Count(&surveyCount)
	if tenant.Limits.MaxSurveys > 0 && surveyCount >= int64(tenant.Limits.MaxSurveys) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "tenant survey limit reached"})
	}

	survey := model.Survey{
		TenantID:    tenant.ID,
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
		Settings:    req.Settings,
		Status:      model.SurveyDraft,
		CreatedBy:   user.ID,
	}
	if err := h.db.Create(&survey).Error; err != nil {
		log.Error("failed to create survey", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "survey creation failed"})
	}

	prometheus.RecordSurveyOperation("create")
	log.Info("survey created", zap.Uint("survey_id", survey.ID))
	return c.JSON(http.StatusCreated, echo.Map{"survey": survey})
}

// List returns the tenant's surveys, optionally filtered by status
func (h *SurveyHandler) List(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)

	query := h.db.Where("tenant_id = ?", tenant.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var surveys []model.Survey
	if err := query.Order("created_at DESC").Find(&surveys).Error; err != nil {
		logger.FromEcho(c).Error("failed to list surveys", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to list surveys"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"surveys": surveys,
		"count":   len(surveys),
	})
}

// Get returns one survey by id
func (h *SurveyHandler) Get(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)

	surveyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey id"})
	}

	survey, err := h.svc.Get(c.Request().Context(), tenant.ID, uint(surveyID))
	if err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "survey not found"})
		}
		logger.FromEcho(c).Error("failed to load survey", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to load survey"})
	}
	return c.JSON(http.StatusOK, echo.Map{"survey": survey})
}

// Update modifies a survey's definition or status. Manager and above.
func (h *SurveyHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)

	surveyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey id"})
	}

	survey, err := h.svc.Get(c.Request().Context(), tenant.ID, uint(surveyID))
	if err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "survey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to load survey"})
	}

	var req struct {
		Title       string                    `json:"title"`
		Description *string                   `json:"description"`
		Questions   *model.SurveyQuestionList `json:"questions"`
		Settings    *model.SurveySettings     `json:"settings"`
		Status      string                    `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	if req.Status != "" {
		switch req.Status {
		case model.SurveyDraft, model.SurveyActive, model.SurveyClosed:
			survey.Status = req.Status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey status"})
		}
	}
	if req.Title != "" {
		survey.Title = req.Title
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.Questions != nil {
		survey.Questions = *req.Questions
	}
	if req.Settings != nil {
		survey.Settings = *req.Settings
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.db.Save(survey).Error; err != nil {
		log.Error("failed to update survey", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "survey update failed"})
	}

	prometheus.RecordSurveyOperation("update")
	return c.JSON(http.StatusOK, echo.Map{"survey": survey})
}

// Delete soft-deletes a survey. Manager and above.
func (h *SurveyHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)

	surveyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ? AND id = ?", tenant.ID, uint(surveyID)).Delete(&model.Survey{})
	if result.Error != nil {
		log.Error("failed to delete survey", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "survey deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "survey not found"})
	}

	prometheus.RecordSurveyOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "survey deleted"})
}

// SubmitResponse records a survey response. This endpoint sits behind the
// tenant resolver but not the auth gate: anonymous submission is allowed
// when the survey permits it, and an authenticated user is attributed when
// a valid token is present.
func (h *SurveyHandler) SubmitResponse(c echo.Context) error {
	log := logger.FromEcho(c)
	tenant, _ := middleware.TenantFromContext(c)

	surveyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey id"})
	}

	var req struct {
		Answers  []service.SubmittedAnswer `json:"answers"`
		Metadata model.ResponseMetadata    `json:"metadata"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if len(req.Answers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "at least one answer is required"})
	}

	var userID *uint
	if user, ok := middleware.UserFromContext(c); ok {
		userID = &user.ID
	}

	response, err := h.svc.SubmitResponse(c.Request().Context(), tenant.ID, uint(surveyID), userID, req.Answers, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "survey not found"})
		case errors.Is(err, service.ErrSurveyClosed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "survey is not accepting responses"})
		case errors.Is(err, service.ErrSurveyAnonymous):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "survey requires authentication"})
		default:
			log.Error("failed to submit survey response", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "submission failed"})
		}
	}

	prometheus.RecordSurveyOperation("submit_response")
	log.Info("survey response submitted",
		zap.Uint("survey_id", uint(surveyID)),
		zap.Bool("anonymous", userID == nil))
	return c.JSON(http.StatusCreated, echo.Map{"response": response})
}

// ListResponses returns a survey's responses. Analyst and above.
func (h *SurveyHandler) ListResponses(c echo.Context) error {
	tenant, _ := middleware.TenantFromContext(c)

	surveyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid survey id"})
	}

	if _, err := h.svc.Get(c.Request().Context(), tenant.ID, uint(surveyID)); err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "survey not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to load survey"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var responses []model.SurveyResponse
	err = h.db.Where("tenant_id = ? AND survey_id = ?", tenant.ID, uint(surveyID)).
		Order("created_at DESC").
		Find(&responses).Error
	if err != nil {
		logger.FromEcho(c).Error("failed to list survey responses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "failed to list responses"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"responses": responses,
		"count":     len(responses),
	})
}
