// Package students provides lead intake and the student record module.
package students

import (
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/internal/students/handler"
	"admissions_crm_backend/internal/students/ports"
	"admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/internal/students/service"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	Service *service.Service
}

// NewModule wires the students module. assigner runs L2 assignment; load is
// usually the counsellors repository.
func NewModule(pool *pgxpool.Pool, assigner ports.LeadAssigner, load ports.CounsellorLoad, eventBus events.Bus, businessNumber string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, assigner, load, eventBus, businessNumber, log)
	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
		Service: svc,
	}
}

// Repository exposes student persistence to cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) Name() string {
	return "students"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/students"))
}

var _ apphttp.Module = (*Module)(nil)
