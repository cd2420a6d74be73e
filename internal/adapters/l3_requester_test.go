package adapters

import (
	"context"
	"errors"
	"testing"

	assignmentsvc "admissions_crm_backend/internal/assignment/service"
	assignmenttransport "admissions_crm_backend/internal/assignment/transport"
	coursestatusports "admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/scheduler"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type stubL3 struct {
	in  assignmentsvc.L3Input
	err error
}

func (s *stubL3) AssignL3(_ context.Context, in assignmentsvc.L3Input) (assignmenttransport.L3AssignmentResponse, error) {
	s.in = in
	return assignmenttransport.L3AssignmentResponse{}, s.err
}

type stubQueue struct{ payloads []scheduler.L3AssignmentPayload }

func (s *stubQueue) EnqueueL3Assignment(_ context.Context, p scheduler.L3AssignmentPayload) error {
	s.payloads = append(s.payloads, p)
	return nil
}

func sampleL3Request() coursestatusports.L3Request {
	return coursestatusports.L3Request{
		StudentID:   uuid.New(),
		CollegeName: "Amity University",
		Course:      "Online MBA",
		Degree:      "MBA",
		Level:       "PG",
		Source:      "google",
	}
}

func TestInlineL3RequesterPassesCourse(t *testing.T) {
	stub := &stubL3{}
	req := sampleL3Request()
	if err := NewInlineL3Requester(stub).RequestL3(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.in.StudentID != req.StudentID || stub.in.CollegeName != "Amity University" || stub.in.Source != "google" {
		t.Fatalf("unexpected input: %+v", stub.in)
	}
}

func TestQueuedRequesterRoundTripsThroughProcessor(t *testing.T) {
	queue := &stubQueue{}
	req := sampleL3Request()
	if err := NewQueuedL3Requester(queue).RequestL3(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue.payloads) != 1 {
		t.Fatalf("expected one queued payload, got %d", len(queue.payloads))
	}

	stub := &stubL3{}
	if err := NewL3TaskProcessor(stub).ProcessL3Assignment(context.Background(), queue.payloads[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.in.StudentID != req.StudentID || stub.in.Degree != "MBA" || stub.in.Level != "PG" {
		t.Fatalf("unexpected input after queue: %+v", stub.in)
	}
}

func TestL3TaskProcessorRetryPolicy(t *testing.T) {
	payload := scheduler.L3AssignmentPayload{StudentID: uuid.NewString()}

	err := NewL3TaskProcessor(&stubL3{err: apperr.NotFound("No active ruleset found")}).ProcessL3Assignment(context.Background(), payload)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for not found, got %v", err)
	}

	transient := errors.New("connection reset")
	err = NewL3TaskProcessor(&stubL3{err: transient}).ProcessL3Assignment(context.Background(), payload)
	if !errors.Is(err, transient) || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}

	err = NewL3TaskProcessor(&stubL3{}).ProcessL3Assignment(context.Background(), scheduler.L3AssignmentPayload{StudentID: "nope"})
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for bad id, got %v", err)
	}
}
