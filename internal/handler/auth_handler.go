package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/middleware"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/jwtutil"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// AuthHandler owns registration, login and profile management
type AuthHandler struct {
	db *gorm.DB
}

// NewAuthHandler builds the auth handler
func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

// Register creates a tenant-scoped account. The first account in a tenant
// becomes its admin.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant_not_found", "message": "no tenant matches this request"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	// Enforce the tenant's user cap
	var userCount int64
	h.db.Model(&model.User{}).Where("tenant_id = ?", tenant.ID).Count(&userCount)
	if tenant.Limits.MaxUsers > 0 && userCount >= int64(tenant.Limits.MaxUsers) {
		prometheus.RecordAuthError("user_limit_reached")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "tenant user limit reached"})
	}

	var existing model.User
	result := h.db.Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&existing)
	if result.Error == nil {
		prometheus.RecordAuthError("email_taken")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "email is already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "registration failed"})
	}

	role := model.RoleUser
	if userCount == 0 {
		role = model.RoleAdmin
	}

	user := model.User{
		TenantID:    tenant.ID,
		Email:       req.Email,
		Password:    string(hashed),
		Name:        req.Name,
		Role:        role,
		Permissions: model.StringList{},
		Active:      true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		log.Error("failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "registration failed"})
	}

	log.Info("user registered",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful",
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Login verifies credentials and issues a tenant-scoped token
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant_not_found", "message": "no tenant matches this request"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := h.db.Where("tenant_id = ? AND email = ? AND active = ?", tenant.ID, req.Email, true).First(&user)
	if result.Error != nil {
		log.Warn("login failed, user not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("login failed, invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.Name, user.Role)
	if err != nil {
		log.Error("failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "token error"})
	}

	log.Info("user logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
		"tenant": echo.Map{
			"id":   tenant.ID,
			"name": tenant.Name,
		},
	})
}

// GetProfile returns the acting user's profile
func (h *AuthHandler) GetProfile(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}

	var profile model.UserProfile
	err := h.db.Where("tenant_id = ? AND user_id = ?", user.TenantID, user.ID).First(&profile).Error

	response := echo.Map{"user": user}
	if err == nil {
		response["profile"] = profile
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateProfile upserts the acting user's profile fields
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}

	var req struct {
		Name        string                    `json:"name"`
		Department  string                    `json:"department"`
		Team        string                    `json:"team"`
		JobTitle    string                    `json:"job_title"`
		Timezone    string                    `json:"timezone"`
		Preferences *model.ProfilePreferences `json:"preferences"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}

	if req.Name != "" {
		if err := h.db.Model(user).Update("name", req.Name).Error; err != nil {
			log.Error("failed to update user name", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "profile update failed"})
		}
	}

	var profile model.UserProfile
	err := h.db.Where("tenant_id = ? AND user_id = ?", user.TenantID, user.ID).First(&profile).Error
	if err != nil {
		profile = model.UserProfile{TenantID: user.TenantID, UserID: user.ID}
	}

	profile.Department = req.Department
	profile.Team = req.Team
	profile.JobTitle = req.JobTitle
	profile.Timezone = req.Timezone
	if req.Preferences != nil {
		profile.Preferences = *req.Preferences
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.db.Save(&profile).Error; err != nil {
		log.Error("failed to save profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "profile update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "profile": profile})
}

// ChangePassword rotates the acting user's credential
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	log := logger.FromEcho(c)

	user, ok := middleware.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid request"})
	}
	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "new password is required"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "password change failed"})
	}

	if err := h.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		log.Error("failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "password change failed"})
	}

	log.Info("password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
