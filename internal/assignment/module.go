// Package assignment provides the counsellor assignment module: L2 rule
// scoring for new leads and L3 hierarchy matching for course progress.
package assignment

import (
	"admissions_crm_backend/internal/assignment/handler"
	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/internal/assignment/service"
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule wires the assignment module. counsellors is usually the counsellors module repository.
func NewModule(pool *pgxpool.Pool, counsellors service.CounsellorDirectory, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, counsellors, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

func (m *Module) Name() string {
	return "assignment"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/assignment"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/assignment"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
