// Package counsellors provides the counsellor directory module.
package counsellors

import (
	"admissions_crm_backend/internal/counsellors/handler"
	"admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/counsellors/service"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the counsellors bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	Service *service.Service
}

// NewModule creates the counsellors module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
		Service: svc,
	}
}

func (m *Module) Name() string {
	return "counsellors"
}

// Repository exposes the directory to other modules (assignment, students, auth).
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/counsellors"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/counsellors"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
