package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (testConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (testConfig) GetCORSAllowCreds() bool    { return true }
func (testConfig) GetJWTAccessSecret() string { return "secret" }

type testHealth struct{ err error }

func (h testHealth) Ping(context.Context) error { return h.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }
func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	ctx.Protected.GET("/secret", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newApp(health error) *apphttp.App {
	gin.SetMode(gin.TestMode)
	return &apphttp.App{
		Config:  testConfig{},
		Logger:  logger.New("test"),
		Health:  testHealth{err: health},
		Modules: []apphttp.Module{pingModule{}},
	}
}

func TestHealthReportsDatabaseState(t *testing.T) {
	rec := httptest.NewRecorder()
	New(newApp(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	New(newApp(errors.New("down"))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestModulesAreMounted(t *testing.T) {
	engine := New(newApp(nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("expected pong, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/secret", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected protected route to require auth, got %d", rec.Code)
	}
}
