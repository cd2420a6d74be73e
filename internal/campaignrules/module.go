// Package campaignrules stores the campaign ids routed to the regular database.
package campaignrules

import (
	"admissions_crm_backend/internal/campaignrules/handler"
	"admissions_crm_backend/internal/campaignrules/repository"
	"admissions_crm_backend/internal/campaignrules/service"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(repository.New(pool), log))}
}

func (m *Module) Name() string {
	return "campaignrules"
}

// RegisterRoutes exposes reads to every counsellor and writes to admins.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/campaign-rules", m.handler.Get)
	ctx.Admin.PUT("/campaign-rules", m.handler.Save)
}

var _ apphttp.Module = (*Module)(nil)
