package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admissions_crm_backend/internal/adapters"
	"admissions_crm_backend/internal/assignment"
	"admissions_crm_backend/internal/counsellors"
	"admissions_crm_backend/internal/email"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/metaaudience"
	"admissions_crm_backend/internal/notification"
	"admissions_crm_backend/internal/scheduler"
	studentsrepo "admissions_crm_backend/internal/students/repository"
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
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// L3 assignment emails are sent from the worker that performs the assignment.
	notificationModule := notification.New(pool, email.New(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	counsellorsModule := counsellors.NewModule(pool, val)
	assignmentModule := assignment.NewModule(pool, counsellorsModule.Repository(), eventBus, val, log)
	studentRepo := studentsrepo.New(pool)
	assignmentModule.Service.SetStudentDirectory(adapters.NewStudentDirectory(studentRepo))

	var audience scheduler.AudienceProcessor
	if cfg.IsMetaEnabled() {
		metaModule := metaaudience.NewModule(pool, cfg, adapters.NewAudienceContacts(studentRepo), nil, val, log)
		audience = adapters.NewAudienceTaskProcessor(metaModule.Service)
	} else {
		log.Warn("meta audiences not configured; audience tasks will be dropped")
	}

	worker, err := scheduler.NewWorker(cfg, adapters.NewL3TaskProcessor(assignmentModule.Service), audience, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
