package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(testJWTConfig{}), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.CounsellorID(), "role": id.Role()})
	})
	r.GET("/admin", AuthRequired(testJWTConfig{}), RequireRole(RoleAdmin, RoleSupervisor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "CNS-ABCDEF12",
		"role": RoleL2,
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsRefreshToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "CNS-ABCDEF12", "type": "refresh"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredAcceptsQueryToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "CNS-ABCDEF12", "role": RoleL3, "type": "access"})
	req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	r := newTestRouter()
	for role, want := range map[string]int{RoleL2: http.StatusForbidden, RoleSupervisor: http.StatusNoContent} {
		token := signToken(t, jwt.MapClaims{"sub": "CNS-ABCDEF12", "role": role, "type": "access"})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("role %s: expected %d, got %d", role, want, rec.Code)
		}
	}
}
