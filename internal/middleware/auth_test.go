package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/config"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/jwtutil"
)

func initJWT(t *testing.T) {
	t.Helper()
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
}

func seedUser(t *testing.T, db *gorm.DB, tenantID uint, role string) *model.User {
	t.Helper()
	user := &model.User{
		TenantID: tenantID,
		Email:    "user@example.com",
		Name:     "Test User",
		Role:     role,
		Active:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func runAuthGate(t *testing.T, db *gorm.DB, tenant *model.Tenant, token string) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant", tenant)
	c.Set("tenant_id", tenant.ID)

	var acting *model.User
	handler := NewAuthGate(db).Middleware()(func(c echo.Context) error {
		acting, _ = UserFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, acting
}

func TestAuthGateAcceptsValidToken(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	user := seedUser(t, db, tenant.ID, model.RoleUser)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.Name, user.Role)
	require.NoError(t, err)

	rec, acting := runAuthGate(t, db, tenant, token)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, acting)
	require.Equal(t, user.ID, acting.ID)
}

func TestAuthGateRejectsMissingToken(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})

	rec, _ := runAuthGate(t, db, tenant, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGateRejectsGarbageToken(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})

	rec, _ := runAuthGate(t, db, tenant, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGateRejectsCrossTenantToken(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenantA := seedTenant(t, db, &model.Tenant{Name: "A", Subdomain: "a", Active: true})
	tenantB := seedTenant(t, db, &model.Tenant{Name: "B", Subdomain: "b", Active: true})
	user := seedUser(t, db, tenantA.ID, model.RoleUser)

	// Token issued for tenant A, request resolved to tenant B
	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenantA.ID, tenantA.Name, user.Role)
	require.NoError(t, err)

	rec, _ := runAuthGate(t, db, tenantB, token)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthGateRejectsDeactivatedUser(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	user := seedUser(t, db, tenant.ID, model.RoleUser)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.Name, user.Role)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("active", false).Error)

	rec, _ := runAuthGate(t, db, tenant, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalMiddlewarePassesAnonymous(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant", tenant)

	var acting *model.User
	var seen bool
	handler := NewAuthGate(db).OptionalMiddleware()(func(c echo.Context) error {
		acting, seen = UserFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, seen)
	require.Nil(t, acting)
}

func TestOptionalMiddlewareAttributesUser(t *testing.T) {
	initJWT(t)
	db := openTestDB(t)
	tenant := seedTenant(t, db, &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true})
	user := seedUser(t, db, tenant.ID, model.RoleUser)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.Name, user.Role)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant", tenant)

	var acting *model.User
	handler := NewAuthGate(db).OptionalMiddleware()(func(c echo.Context) error {
		acting, _ = UserFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.NotNil(t, acting)
	require.Equal(t, user.ID, acting.ID)
}

func TestRequireRoleOrdering(t *testing.T) {
	cases := []struct {
		role     string
		required string
		allowed  bool
	}{
		{model.RoleAdmin, model.RoleManager, true},
		{model.RoleManager, model.RoleManager, true},
		{model.RoleAnalyst, model.RoleManager, false},
		{model.RoleUser, model.RoleViewer, true},
		{model.RoleUser, model.RoleAnalyst, false},
	}

	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user", &model.User{Role: tc.role})

		handler := RequireRole(tc.required)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))

		if tc.allowed {
			require.Equal(t, http.StatusOK, rec.Code, "%s vs %s", tc.role, tc.required)
		} else {
			require.Equal(t, http.StatusForbidden, rec.Code, "%s vs %s", tc.role, tc.required)
		}
	}
}
