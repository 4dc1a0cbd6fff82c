package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

func runFeatureGate(t *testing.T, tenant *model.Tenant) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenant != nil {
		c.Set("tenant", tenant)
	}

	gate := RequireFeature("analytics", func(f model.FeatureToggles) bool { return f.Analytics })
	handler := gate(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRequireFeatureAllowsEnabledToggle(t *testing.T) {
	tenant := &model.Tenant{Features: model.FeatureToggles{Analytics: true}}
	rec := runFeatureGate(t, tenant)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireFeatureRejectsDisabledToggle(t *testing.T) {
	tenant := &model.Tenant{Features: model.FeatureToggles{Analytics: false}}
	rec := runFeatureGate(t, tenant)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireFeatureRejectsMissingTenant(t *testing.T) {
	rec := runFeatureGate(t, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
