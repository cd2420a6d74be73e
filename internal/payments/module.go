// Package payments tracks student fee payments and their receipts.
package payments

import (
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/internal/payments/handler"
	"admissions_crm_backend/internal/payments/ports"
	"admissions_crm_backend/internal/payments/repository"
	"admissions_crm_backend/internal/payments/service"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule wires payments. receipts may be nil.
func NewModule(pool *pgxpool.Pool, students ports.StudentLookup, receipts ports.ReceiptStorage, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), students, receipts, eventBus, log)
	return &Module{handler: handler.New(svc, val), Service: svc}
}

func (m *Module) Name() string {
	return "payments"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/payments"))
}

var _ apphttp.Module = (*Module)(nil)
