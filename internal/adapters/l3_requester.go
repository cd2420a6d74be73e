package adapters

import (
	"context"
	"fmt"

	assignmentsvc "admissions_crm_backend/internal/assignment/service"
	assignmenttransport "admissions_crm_backend/internal/assignment/transport"
	coursestatusports "admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/scheduler"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// L3Assigner is the slice of the assignment service that runs L3 assignment.
type L3Assigner interface {
	AssignL3(ctx context.Context, in assignmentsvc.L3Input) (assignmenttransport.L3AssignmentResponse, error)
}

// L3Enqueuer is satisfied by *scheduler.Client.
type L3Enqueuer interface {
	EnqueueL3Assignment(ctx context.Context, payload scheduler.L3AssignmentPayload) error
}

// InlineL3Requester assigns the L3 counsellor within the calling request.
type InlineL3Requester struct {
	assigner L3Assigner
}

func NewInlineL3Requester(assigner L3Assigner) *InlineL3Requester {
	return &InlineL3Requester{assigner: assigner}
}

func (r *InlineL3Requester) RequestL3(ctx context.Context, req coursestatusports.L3Request) error {
	_, err := r.assigner.AssignL3(ctx, toL3Input(req))
	return err
}

// QueuedL3Requester hands the assignment to the scheduler worker.
type QueuedL3Requester struct {
	queue L3Enqueuer
}

func NewQueuedL3Requester(queue L3Enqueuer) *QueuedL3Requester {
	return &QueuedL3Requester{queue: queue}
}

func (r *QueuedL3Requester) RequestL3(ctx context.Context, req coursestatusports.L3Request) error {
	return r.queue.EnqueueL3Assignment(ctx, scheduler.L3AssignmentPayload{
		StudentID:      req.StudentID.String(),
		CollegeName:    req.CollegeName,
		Course:         req.Course,
		Degree:         req.Degree,
		Specialization: req.Specialization,
		Level:          req.Level,
		Stream:         req.Stream,
		Source:         req.Source,
	})
}

// L3TaskProcessor runs queued L3 assignments. It implements scheduler.L3Processor.
type L3TaskProcessor struct {
	assigner L3Assigner
}

func NewL3TaskProcessor(assigner L3Assigner) *L3TaskProcessor {
	return &L3TaskProcessor{assigner: assigner}
}

// ProcessL3Assignment stops retries for failures that a retry cannot fix.
func (p *L3TaskProcessor) ProcessL3Assignment(ctx context.Context, payload scheduler.L3AssignmentPayload) error {
	studentID, err := uuid.Parse(payload.StudentID)
	if err != nil {
		return fmt.Errorf("%w: invalid student id %q", asynq.SkipRetry, payload.StudentID)
	}
	_, err = p.assigner.AssignL3(ctx, toL3Input(coursestatusports.L3Request{
		StudentID:      studentID,
		CollegeName:    payload.CollegeName,
		Course:         payload.Course,
		Degree:         payload.Degree,
		Specialization: payload.Specialization,
		Level:          payload.Level,
		Stream:         payload.Stream,
		Source:         payload.Source,
	}))
	if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindBadRequest) || apperr.Is(err, apperr.KindValidation) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func toL3Input(req coursestatusports.L3Request) assignmentsvc.L3Input {
	return assignmentsvc.L3Input{
		StudentID:      req.StudentID,
		CollegeName:    req.CollegeName,
		Course:         req.Course,
		Degree:         req.Degree,
		Specialization: req.Specialization,
		Level:          req.Level,
		Source:         req.Source,
		Stream:         req.Stream,
	}
}

var (
	_ coursestatusports.L3Requester = (*InlineL3Requester)(nil)
	_ coursestatusports.L3Requester = (*QueuedL3Requester)(nil)
	_ scheduler.L3Processor         = (*L3TaskProcessor)(nil)
	_ L3Enqueuer                    = (*scheduler.Client)(nil)
)
