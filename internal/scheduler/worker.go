package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// L3Processor runs a queued L3 assignment.
type L3Processor interface {
	ProcessL3Assignment(ctx context.Context, payload L3AssignmentPayload) error
}

// AudienceProcessor pushes one student into a Meta custom audience.
type AudienceProcessor interface {
	ProcessAudienceUser(ctx context.Context, payload MetaAudienceUserPayload) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	l3       L3Processor
	audience AudienceProcessor
	log      *logger.Logger
}

// NewWorker builds the asynq server. audience may be nil when Meta is not configured;
// its tasks are then dropped with a warning.
func NewWorker(cfg config.SchedulerConfig, l3 L3Processor, audience AudienceProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		l3:       l3,
		audience: audience,
		log:      log,
	}
	w.mux.HandleFunc(TaskL3Assignment, w.handleL3Assignment)
	w.mux.HandleFunc(TaskMetaAudienceAddUser, w.handleMetaAudienceUser)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleL3Assignment(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseL3AssignmentPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.StudentID == "" {
		return fmt.Errorf("%w: missing student id", asynq.SkipRetry)
	}
	return w.l3.ProcessL3Assignment(ctx, payload)
}

func (w *Worker) handleMetaAudienceUser(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMetaAudienceUserPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if w.audience == nil {
		w.log.Warn("meta audience task dropped, meta is not configured", slog.String("studentId", payload.StudentID))
		return nil
	}
	return w.audience.ProcessAudienceUser(ctx, payload)
}
