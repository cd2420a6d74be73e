package adapters

import (
	"context"
	"errors"
	"testing"

	metaports "admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/scheduler"
	studentsrepo "admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type stubStudentReader map[uuid.UUID]studentsrepo.Student

func (s stubStudentReader) GetByID(_ context.Context, id uuid.UUID) (studentsrepo.Student, error) {
	st, ok := s[id]
	if !ok {
		return studentsrepo.Student{}, studentsrepo.ErrNotFound
	}
	return st, nil
}

type stubUploader struct {
	audienceID string
	contact    metaports.Contact
	err        error
}

func (s *stubUploader) Upload(_ context.Context, audienceID string, contact metaports.Contact) error {
	s.audienceID, s.contact = audienceID, contact
	return s.err
}

func TestAudienceContacts(t *testing.T) {
	id := uuid.New()
	contacts := NewAudienceContacts(stubStudentReader{id: {ID: id, Email: "a@b.com", Phone: "9876543210"}})

	c, err := contacts.Contact(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Email != "a@b.com" || c.Phone != "9876543210" {
		t.Fatalf("unexpected contact %+v", c)
	}
	if _, err := contacts.Contact(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAudienceTaskProcessor(t *testing.T) {
	uploader := &stubUploader{}
	p := NewAudienceTaskProcessor(uploader)
	id := uuid.New()

	err := p.ProcessAudienceUser(context.Background(), scheduler.MetaAudienceUserPayload{AudienceID: "meta-1", StudentID: id.String(), Email: "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uploader.audienceID != "meta-1" || uploader.contact.StudentID != id {
		t.Fatalf("unexpected upload %+v", uploader)
	}

	if err := p.ProcessAudienceUser(context.Background(), scheduler.MetaAudienceUserPayload{StudentID: "nope"}); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for bad id, got %v", err)
	}

	uploader.err = apperr.Validation("email or phone is required for Meta audience")
	if err := p.ProcessAudienceUser(context.Background(), scheduler.MetaAudienceUserPayload{StudentID: id.String()}); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for validation, got %v", err)
	}

	uploader.err = apperr.Unavailable("Meta API unavailable")
	err = p.ProcessAudienceUser(context.Background(), scheduler.MetaAudienceUserPayload{StudentID: id.String()})
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
