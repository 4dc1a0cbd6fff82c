package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/logger"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// TenantResolver maps an inbound request to a tenant record and gates all
// further processing on the tenant being usable. Resolution order: the
// X-Tenant-ID header, then the request subdomain, then an exact domain
// match, then the development default.
type TenantResolver struct {
	db               *gorm.DB
	env              string
	defaultSubdomain string
}

// NewTenantResolver builds the resolver middleware
func NewTenantResolver(db *gorm.DB, env, defaultSubdomain string) *TenantResolver {
	return &TenantResolver{db: db, env: env, defaultSubdomain: defaultSubdomain}
}

// Middleware resolves the tenant and stores it in the echo context under
// "tenant" and "tenant_id".
func (r *TenantResolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			tenant, err := r.resolve(c)
			if err != nil {
				log.Warn("tenant resolution failed",
					zap.String("host", c.Request().Host), zap.Error(err))
				prometheus.RecordTenantError("not_found")
				return c.JSON(http.StatusNotFound, echo.Map{
					"error":   "tenant_not_found",
					"message": "no tenant matches this request",
				})
			}

			if !tenant.Usable() {
				log.Warn("tenant is not usable",
					zap.Uint("tenant_id", tenant.ID),
					zap.Bool("active", tenant.Active),
					zap.String("subscription_status", tenant.Subscription.Status))
				prometheus.RecordTenantError("inactive")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "tenant_inactive",
					"message": "tenant is inactive or its subscription has lapsed",
				})
			}

			c.Set("tenant", tenant)
			c.Set("tenant_id", tenant.ID)
			return next(c)
		}
	}
}

func (r *TenantResolver) resolve(c echo.Context) (*model.Tenant, error) {
	// Header takes precedence: a numeric value is a tenant id, anything
	// else is treated as a subdomain.
	if header := c.Request().Header.Get("X-Tenant-ID"); header != "" {
		if id, err := strconv.ParseUint(header, 10, 32); err == nil {
			return r.byID(uint(id))
		}
		return r.bySubdomain(header)
	}

	host := c.Request().Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	if host != "" && host != "localhost" {
		// Exact custom-domain match first
		if tenant, err := r.byDomain(host); err == nil {
			return tenant, nil
		}
		// Then the first label as a subdomain
		if i := strings.IndexByte(host, '.'); i > 0 {
			if tenant, err := r.bySubdomain(host[:i]); err == nil {
				return tenant, nil
			}
		}
	}

	// Development fallback only
	if r.env != "production" {
		return r.bySubdomain(r.defaultSubdomain)
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *TenantResolver) byID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantResolver) bySubdomain(subdomain string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("subdomain = ?", subdomain).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantResolver) byDomain(domain string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("domain = ?", domain).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// TenantFromContext returns the resolved tenant set by the middleware
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get("tenant").(*model.Tenant)
	return tenant, ok
}
