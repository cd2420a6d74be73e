// Package coursestatus records per-course admission progress for students.
package coursestatus

import (
	"admissions_crm_backend/internal/coursestatus/handler"
	"admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/coursestatus/repository"
	"admissions_crm_backend/internal/coursestatus/service"
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	Service *service.Service
}

func NewModule(pool *pgxpool.Pool, students ports.StudentProgress, l3 ports.L3Requester, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), students, l3, eventBus, log)
	return &Module{handler: handler.New(svc, val), Service: svc}
}

func (m *Module) Name() string {
	return "coursestatus"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/course-status"))
}

var _ apphttp.Module = (*Module)(nil)
