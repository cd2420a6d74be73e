package webhook

import (
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
	limiter *httpkit.IPRateLimiter
}

// NewModule creates the webhook module. meta may be nil when lead ads are not configured.
func NewModule(pool *pgxpool.Pool, intake LeadIntake, meta MetaLeadFetcher, cfg config.MetaLeadsConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(intake, meta, log)
	return &Module{
		handler: NewHandler(service, repo, val, cfg.GetMetaWebhookVerifyToken(), cfg.GetMetaAppSecret()),
		repo:    repo,
		limiter: httpkit.NewIPRateLimiter(rate.Limit(5), 30, log),
	}
}

func (m *Module) Name() string {
	return "webhook"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/webhook")
	public.Use(m.limiter.RateLimit())

	// Website and partner forms (API key auth, no JWT)
	forms := public.Group("")
	forms.Use(APIKeyAuthMiddleware(m.repo))
	forms.POST("/leads", m.handler.HandleFormSubmission)

	// Ad platforms authenticate in the payload or by signature
	public.POST("/google-leads", m.handler.HandleGoogleLeadWebhook)
	public.GET("/meta-leads", m.handler.HandleMetaVerify)
	public.POST("/meta-leads", m.handler.HandleMetaLeads)

	keys := ctx.Admin.Group("/webhook/keys")
	keys.POST("", m.handler.HandleCreateAPIKey)
	keys.GET("", m.handler.HandleListAPIKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
