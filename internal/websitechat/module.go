// Package websitechat serves the website chat widget and the counsellor inbox.
package websitechat

import (
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/internal/websitechat/handler"
	"admissions_crm_backend/internal/websitechat/ports"
	"admissions_crm_backend/internal/websitechat/repository"
	"admissions_crm_backend/internal/websitechat/service"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

type Module struct {
	handler *handler.Handler
	limiter *httpkit.IPRateLimiter
	Service *service.Service
}

// NewModule wires the chat. presence may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, presence service.Presence, leads ports.LeadProcessor, hours service.BusinessHours, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), presence, leads, hours, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		limiter: httpkit.NewIPRateLimiter(rate.Limit(1), 20, log),
		Service: svc,
	}
}

func (m *Module) Name() string {
	return "websitechat"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/public/website-chat")
	public.Use(m.limiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/website-chat"))
}

var _ apphttp.Module = (*Module)(nil)
