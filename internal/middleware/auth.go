package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/jwtutil"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// AuthGate validates the bearer token and loads the acting user scoped to
// the resolved tenant. It runs after the tenant resolver.
type AuthGate struct {
	db *gorm.DB
}

// NewAuthGate builds the auth middleware
func NewAuthGate(db *gorm.DB) *AuthGate {
	return &AuthGate{db: db}
}

// Middleware validates the JWT and stores the acting user in the context
func (g *AuthGate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "missing authorization token",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("invalid authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "invalid authorization format, expected Bearer token",
				})
			}

			claims, err := jwtutil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "invalid or expired token",
				})
			}

			tenant, ok := TenantFromContext(c)
			if !ok {
				log.Error("auth gate ran without tenant context")
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"error":   "internal",
					"message": "tenant context missing",
				})
			}

			// A token issued for another tenant never crosses the boundary.
			if claims.TenantID != tenant.ID {
				log.Warn("token tenant does not match resolved tenant",
					zap.Uint("token_tenant", claims.TenantID),
					zap.Uint("resolved_tenant", tenant.ID))
				prometheus.RecordAuthError("tenant_mismatch")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "forbidden",
					"message": "token is not valid for this tenant",
				})
			}

			var user model.User
			err = g.db.Where("tenant_id = ? AND id = ? AND active = ?", tenant.ID, claims.UserID, true).
				First(&user).Error
			if err != nil {
				log.Warn("token user not found or inactive",
					zap.Uint("user_id", claims.UserID), zap.Error(err))
				prometheus.RecordAuthError("user_not_found")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "account not found or disabled",
				})
			}

			c.Set("user", &user)
			c.Set("user_id", user.ID)
			c.Set("user_role", user.Role)

			log.Debug("request authenticated",
				zap.Uint("user_id", user.ID),
				zap.String("role", user.Role))
			return next(c)
		}
	}
}

// OptionalMiddleware attributes the acting user when a valid token is
// present but lets unauthenticated requests through. Used on endpoints
// that accept anonymous traffic, like public survey submission.
func (g *AuthGate) OptionalMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return next(c)
			}

			claims, err := jwtutil.ValidateToken(parts[1])
			if err != nil {
				return next(c)
			}

			tenant, ok := TenantFromContext(c)
			if !ok || claims.TenantID != tenant.ID {
				return next(c)
			}

			var user model.User
			err = g.db.Where("tenant_id = ? AND id = ? AND active = ?", tenant.ID, claims.UserID, true).
				First(&user).Error
			if err == nil {
				c.Set("user", &user)
				c.Set("user_id", user.ID)
				c.Set("user_role", user.Role)
			}
			return next(c)
		}
	}
}

// RequireRole returns a middleware that rejects users below the required
// role. Runs after the auth gate.
func RequireRole(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok {
				prometheus.RecordAuthError("missing_user_context")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "authentication required",
				})
			}
			if !user.HasRole(required) {
				prometheus.RecordAuthError("insufficient_role")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "forbidden",
					"message": "insufficient role for this operation",
				})
			}
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user set by the auth gate
func UserFromContext(c echo.Context) (*model.User, bool) {
	user, ok := c.Get("user").(*model.User)
	return user, ok
}
