// Package http defines how domain modules plug into the API server.
package http

import (
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is one bounded context (students, payments, chat...) that owns its
// routes. The router calls RegisterRoutes once at startup.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount routes on.
//
//	V1         /api/v1, public
//	Protected  /api/v1, bearer token required
//	Admin      /api/v1/admin, admin-level role required
type RouterContext struct {
	Engine    *gin.Engine
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup

	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter throttles login attempts per IP. May be nil in tests.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
