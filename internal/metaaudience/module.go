// Package metaaudience syncs students into Meta remarketing audiences.
package metaaudience

import (
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/internal/metaaudience/client"
	"admissions_crm_backend/internal/metaaudience/handler"
	"admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/metaaudience/repository"
	"admissions_crm_backend/internal/metaaudience/service"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule wires audience sync. The Graph client is only built when Meta is
// configured; queue may be nil to upload inline.
func NewModule(pool *pgxpool.Pool, cfg config.MetaConfig, contacts ports.StudentContacts, queue ports.UploadQueue, val *validator.Validator, log *logger.Logger) *Module {
	var graph service.Graph
	if cfg.IsMetaEnabled() {
		graph = client.New(cfg, log)
	}
	svc := service.New(repository.New(pool), graph, contacts, queue, log)
	return &Module{handler: handler.New(svc, val), Service: svc}
}

func (m *Module) Name() string {
	return "metaaudience"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/meta/audiences",
		httpkit.RequireRole(httpkit.RoleAdmin, httpkit.RoleSupervisor, httpkit.RoleSuperAdmin)))
}

var _ apphttp.Module = (*Module)(nil)
