package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.User{}))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, tenant *model.Tenant) *model.Tenant {
	t.Helper()
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func runResolver(t *testing.T, resolver *TenantResolver, configure func(*http.Request)) (*httptest.ResponseRecorder, *model.Tenant) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	configure(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var resolved *model.Tenant
	handler := resolver.Middleware()(func(c echo.Context) error {
		resolved, _ = TenantFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, resolved
}

func TestResolveByHeaderID(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	resolver := NewTenantResolver(db, "production", "")

	rec, resolved := runResolver(t, resolver, func(req *http.Request) {
		req.Header.Set("X-Tenant-ID", "1")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resolved)
	require.Equal(t, tenant.ID, resolved.ID)
}

func TestResolveByHeaderSubdomain(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	resolver := NewTenantResolver(db, "production", "")

	rec, resolved := runResolver(t, resolver, func(req *http.Request) {
		req.Header.Set("X-Tenant-ID", "acme")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acme", resolved.Subdomain)
}

func TestResolveByHostSubdomain(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	resolver := NewTenantResolver(db, "production", "")

	rec, resolved := runResolver(t, resolver, func(req *http.Request) {
		req.Host = "acme.example.com:8080"
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acme", resolved.Subdomain)
}

func TestResolveByCustomDomain(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Domain: "feedback.acme.io", Active: true})
	resolver := NewTenantResolver(db, "production", "")

	rec, resolved := runResolver(t, resolver, func(req *http.Request) {
		req.Host = "feedback.acme.io"
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acme", resolved.Subdomain)
}

func TestUnknownTenantReturns404(t *testing.T) {
	db := openTestDB(t)
	resolver := NewTenantResolver(db, "production", "")

	rec, _ := runResolver(t, resolver, func(req *http.Request) {
		req.Host = "nobody.example.com"
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevelopmentDefaultSubdomain(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, &model.Tenant{Name: "Dev", Subdomain: "dev", Active: true})

	dev := NewTenantResolver(db, "development", "dev")
	rec, resolved := runResolver(t, dev, func(req *http.Request) {
		req.Host = "localhost:8080"
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dev", resolved.Subdomain)

	// The fallback never applies in production
	prod := NewTenantResolver(db, "production", "dev")
	rec, _ = runResolver(t, prod, func(req *http.Request) {
		req.Host = "localhost:8080"
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInactiveTenantReturns403(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Gone", Subdomain: "gone", Active: true})
	// the default:true column needs an explicit update to go false
	require.NoError(t, db.Model(tenant).Update("active", false).Error)
	resolver := NewTenantResolver(db, "production", "")

	rec, _ := runResolver(t, resolver, func(req *http.Request) {
		req.Header.Set("X-Tenant-ID", "gone")
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLapsedSubscriptionReturns403(t *testing.T) {
	db := openTestDB(t)
	expired := time.Now().Add(-24 * time.Hour)
	seedTenant(t, db, &model.Tenant{
		Name: "Lapsed", Subdomain: "lapsed", Active: true,
		Subscription: model.Subscription{Plan: model.PlanStandard, Status: "active", ExpiresAt: &expired},
	})
	resolver := NewTenantResolver(db, "production", "")

	rec, _ := runResolver(t, resolver, func(req *http.Request) {
		req.Header.Set("X-Tenant-ID", "lapsed")
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
}
