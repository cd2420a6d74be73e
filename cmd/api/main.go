package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admissions_crm_backend/internal/adapters"
	"admissions_crm_backend/internal/adapters/storage"
	"admissions_crm_backend/internal/assignment"
	"admissions_crm_backend/internal/auth"
	"admissions_crm_backend/internal/campaignrules"
	"admissions_crm_backend/internal/counsellors"
	"admissions_crm_backend/internal/coursestatus"
	coursestatusports "admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/email"
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	"admissions_crm_backend/internal/http/router"
	"admissions_crm_backend/internal/metaaudience"
	metaclient "admissions_crm_backend/internal/metaaudience/client"
	metaports "admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/notification"
	"admissions_crm_backend/internal/payments"
	paymentports "admissions_crm_backend/internal/payments/ports"
	"admissions_crm_backend/internal/scheduler"
	"admissions_crm_backend/internal/students"
	"admissions_crm_backend/internal/webhook"
	"admissions_crm_backend/internal/websitechat"
	"admissions_crm_backend/internal/websitechat/cache"
	chatservice "admissions_crm_backend/internal/websitechat/service"
	"admissions_crm_backend/internal/whatsapp"
	"admissions_crm_backend/migrations"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/db"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	jobs, closeJobs := initJobClient(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	chatCache, closeCache := initChatCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	receipts := initReceiptStorage(ctx, cfg, log)

	hours, err := chatservice.NewBusinessHours(cfg.GetChatTimezone(), cfg.GetChatOpenHour(), cfg.GetChatCloseHour())
	if err != nil {
		log.Error("invalid chat business hours", "error", err)
		panic("invalid chat business hours: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	counsellorsModule := counsellors.NewModule(pool, val)
	counsellorRepo := counsellorsModule.Repository()

	authModule := auth.NewModule(counsellorRepo, cfg, val, log)
	assignmentModule := assignment.NewModule(pool, counsellorRepo, eventBus, val, log)

	leadAssigner := adapters.NewLeadAssigner(assignmentModule.Service)
	studentsModule := students.NewModule(pool, leadAssigner, counsellorRepo, eventBus, cfg.GetWhatsAppBusinessNumber(), val, log)
	studentRepo := studentsModule.Repository()

	// L3 assignment writes back to the student record
	assignmentModule.Service.SetStudentDirectory(adapters.NewStudentDirectory(studentRepo))

	var l3 coursestatusports.L3Requester = adapters.NewInlineL3Requester(assignmentModule.Service)
	if jobs != nil {
		l3 = adapters.NewQueuedL3Requester(jobs)
	}
	courseStatusModule := coursestatus.NewModule(pool, adapters.NewStudentProgress(studentRepo), l3, eventBus, val, log)

	paymentsModule := payments.NewModule(pool, adapters.NewPaymentStudents(studentRepo), receipts, eventBus, val, log)
	campaignRulesModule := campaignrules.NewModule(pool, log)

	var presence chatservice.Presence
	if chatCache != nil {
		presence = chatCache
	}
	chatModule := websitechat.NewModule(pool, presence, adapters.NewChatLeads(studentsModule.Service), hours, eventBus, val, log)

	var audienceQueue metaports.UploadQueue
	if jobs != nil {
		audienceQueue = adapters.NewQueuedAudienceUploads(jobs)
	}
	metaModule := metaaudience.NewModule(pool, cfg, adapters.NewAudienceContacts(studentRepo), audienceQueue, val, log)

	var metaLeads webhook.MetaLeadFetcher
	if cfg.GetMetaLeadsAccessToken() != "" {
		metaLeads = adapters.NewMetaLeads(metaclient.NewLeadsClient(cfg, log))
	}
	webhookModule := webhook.NewModule(pool, adapters.NewWebhookLeads(studentsModule.Service), metaLeads, cfg, val, log)

	// Notification module subscribes to domain events
	notificationModule := notification.New(pool, email.New(cfg), cfg, log)
	if wa := whatsapp.NewClient(cfg, log); wa != nil {
		notificationModule.SetWhatsApp(wa, studentRepo)
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			counsellorsModule,
			assignmentModule,
			studentsModule,
			courseStatusModule,
			paymentsModule,
			campaignRulesModule,
			chatModule,
			metaModule,
			webhookModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initJobClient returns nil when Redis is not configured; L3 assignment and
// audience uploads then run inline.
func initJobClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background jobs run inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initChatCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	c, err := cache.New(ctx, cfg.GetRedisURL())
	if err != nil {
		log.Warn("website chat cache unavailable; unread counts come from postgres", "error", err)
		return nil, nil
	}

	return c, func() {
		_ = c.Close()
	}
}

func initReceiptStorage(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) paymentports.ReceiptStorage {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; payment receipts disabled")
		return nil
	}

	store, err := storage.NewReceiptStore(cfg)
	if err != nil {
		log.Error("failed to initialize receipt storage", "error", err)
		panic("failed to initialize receipt storage: " + err.Error())
	}

	if err := withRetry(ctx, log, "ensure receipts bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketPaymentReceipts())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "receiptsBucket", cfg.GetMinioBucketPaymentReceipts())

	return adapters.NewReceiptStorage(store)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
