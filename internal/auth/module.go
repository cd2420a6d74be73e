// Package auth provides counsellor login and token issuance.
package auth

import (
	"admissions_crm_backend/internal/auth/handler"
	"admissions_crm_backend/internal/auth/service"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires login over the counsellor directory.
func NewModule(store service.Store, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/auth")
	if ctx.AuthRateLimiter != nil {
		public.Use(ctx.AuthRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(public)

	ctx.Protected.GET("/auth/me", m.handler.Me)
}

var _ apphttp.Module = (*Module)(nil)
