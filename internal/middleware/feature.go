package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// RequireFeature gates a route group on one of the tenant's feature toggles.
// Must run after the tenant resolver.
func RequireFeature(name string, enabled func(model.FeatureToggles) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant, ok := TenantFromContext(c)
			if !ok || !enabled(tenant.Features) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "feature_disabled",
					"message": name + " is not enabled for this tenant",
				})
			}
			return next(c)
		}
	}
}
