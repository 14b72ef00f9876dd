package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "homni_backend/internal/http"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

type testRouterConfig struct{}

func (testRouterConfig) GetHTTPAddr() string        { return ":0" }
func (testRouterConfig) GetCORSAllowAll() bool      { return false }
func (testRouterConfig) GetCORSOrigins() []string   { return []string{"https://app.homni.no"} }
func (testRouterConfig) GetCORSAllowCreds() bool    { return true }
func (testRouterConfig) GetJWTAccessSecret() string { return "test-secret" }

type probeModule struct{}

func (probeModule) Name() string { return "probe" }

func (probeModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	ctx.V1.GET("/public/ping", ok)
	ctx.Protected.GET("/private/ping", ok)
	ctx.Admin.GET("/ping", ok)
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testRouterConfig{},
		Logger:  logger.Discard(),
		Metrics: metrics.New(),
		Errors:  httpkit.NewErrorTracker(0),
		Modules: []apphttp.Module{probeModule{}},
	})
}

func get(engine http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouteGroupsApplyAuth(t *testing.T) {
	engine := newTestEngine()

	cases := map[string]int{
		"/api/v1/public/ping":  http.StatusOK,
		"/api/v1/private/ping": http.StatusUnauthorized,
		"/api/v1/admin/ping":   http.StatusUnauthorized,
		"/metrics":             http.StatusOK,
	}
	for path, want := range cases {
		if rec := get(engine, path); rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	engine := newTestEngine()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/ping", nil)
	req.Header.Set("Origin", "https://app.homni.no")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.homni.no" {
		t.Fatalf("expected CORS allow origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
