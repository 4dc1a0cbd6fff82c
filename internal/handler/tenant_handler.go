package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// TenantHandler owns tenant provisioning and settings
type TenantHandler struct {
	db *gorm.DB
}

// NewTenantHandler builds the tenant handler
func NewTenantHandler(db *gorm.DB) *TenantHandler {
	return &TenantHandler{db: db}
}

// CreateTenant provisions a new tenant namespace. This endpoint is not
// tenant-scoped: it sits outside the resolver chain so new organizations
// can be onboarded.
func (h *TenantHandler) CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Name      string `json:"name"`
		Subdomain string `json:"subdomain"`
		Domain    string `json:"domain"`
		Plan      string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.Name == "" || req.Subdomain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "name and subdomain are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var existing model.Tenant
	if err := h.db.Where("subdomain = ?", req.Subdomain).First(&existing).Error; err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "subdomain is already taken"})
	}

	plan := req.Plan
	if plan == "" {
		plan = model.PlanFree
	}

	tenant := model.Tenant{
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Domain:    req.Domain,
		Features:  model.DefaultFeatures(),
		Limits:    model.DefaultLimits(),
		Subscription: model.Subscription{
			Plan:   plan,
			Status: "active",
		},
		Active: true,
	}
	if err := h.db.Create(&tenant).Error; err != nil {
		log.Error("failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "tenant creation failed"})
	}

	prometheus.RecordTenantOperation("create")
	log.Info("tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain))
	return c.JSON(http.StatusCreated, echo.Map{"message": "tenant created", "tenant": tenant})
}

// GetCurrentTenant returns the resolved tenant for this request
func (h *TenantHandler) GetCurrentTenant(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant_not_found", "message": "no tenant matches this request"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}

// UpdateTenantSettings updates theme and feature toggles. Admin only.
func (h *TenantHandler) UpdateTenantSettings(c echo.Context) error {
	log := logger.FromEcho(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant_not_found", "message": "no tenant matches this request"})
	}

	var req struct {
		Name     string                `json:"name"`
		Domain   *string               `json:"domain"`
		Theme    *model.ThemeSettings  `json:"theme"`
		Features *model.FeatureToggles `json:"features"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Domain != nil {
		tenant.Domain = *req.Domain
	}
	if req.Theme != nil {
		tenant.Theme = *req.Theme
	}
	if req.Features != nil {
		tenant.Features = *req.Features
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.db.Save(tenant).Error; err != nil {
		log.Error("failed to update tenant settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "tenant update failed"})
	}

	prometheus.RecordTenantOperation("update_settings")
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant updated", "tenant": tenant})
}
