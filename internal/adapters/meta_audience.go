package adapters

import (
	"context"
	"errors"
	"fmt"

	metaports "admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/scheduler"
	studentsrepo "admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// StudentReader loads a student by id.
type StudentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (studentsrepo.Student, error)
}

// AudienceContacts reads the identifiers Meta matches students on.
type AudienceContacts struct {
	students StudentReader
}

func NewAudienceContacts(students StudentReader) *AudienceContacts {
	return &AudienceContacts{students: students}
}

func (a *AudienceContacts) Contact(ctx context.Context, studentID uuid.UUID) (metaports.Contact, error) {
	s, err := a.students.GetByID(ctx, studentID)
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return metaports.Contact{}, apperr.NotFound("Student not found")
	}
	if err != nil {
		return metaports.Contact{}, err
	}
	return metaports.Contact{StudentID: s.ID, Email: s.Email, Phone: s.Phone}, nil
}

// AudienceEnqueuer is satisfied by *scheduler.Client.
type AudienceEnqueuer interface {
	EnqueueMetaAudienceUser(ctx context.Context, payload scheduler.MetaAudienceUserPayload) error
}

// QueuedAudienceUploads sends audience uploads through the scheduler.
type QueuedAudienceUploads struct {
	queue AudienceEnqueuer
}

func NewQueuedAudienceUploads(queue AudienceEnqueuer) *QueuedAudienceUploads {
	return &QueuedAudienceUploads{queue: queue}
}

func (q *QueuedAudienceUploads) EnqueueUpload(ctx context.Context, job metaports.UploadJob) error {
	return q.queue.EnqueueMetaAudienceUser(ctx, scheduler.MetaAudienceUserPayload{
		AudienceID: job.AudienceID,
		StudentID:  job.Contact.StudentID.String(),
		Email:      job.Contact.Email,
		Phone:      job.Contact.Phone,
	})
}

// AudienceUploader is the metaaudience service upload call.
type AudienceUploader interface {
	Upload(ctx context.Context, metaAudienceID string, contact metaports.Contact) error
}

// AudienceTaskProcessor runs queued uploads. It implements scheduler.AudienceProcessor.
type AudienceTaskProcessor struct {
	uploader AudienceUploader
}

func NewAudienceTaskProcessor(uploader AudienceUploader) *AudienceTaskProcessor {
	return &AudienceTaskProcessor{uploader: uploader}
}

func (p *AudienceTaskProcessor) ProcessAudienceUser(ctx context.Context, payload scheduler.MetaAudienceUserPayload) error {
	studentID, err := uuid.Parse(payload.StudentID)
	if err != nil {
		return fmt.Errorf("%w: invalid student id %q", asynq.SkipRetry, payload.StudentID)
	}
	err = p.uploader.Upload(ctx, payload.AudienceID, metaports.Contact{
		StudentID: studentID,
		Email:     payload.Email,
		Phone:     payload.Phone,
	})
	if apperr.Is(err, apperr.KindValidation) || apperr.Is(err, apperr.KindBadRequest) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

var (
	_ metaports.StudentContacts   = (*AudienceContacts)(nil)
	_ metaports.UploadQueue       = (*QueuedAudienceUploads)(nil)
	_ scheduler.AudienceProcessor = (*AudienceTaskProcessor)(nil)
	_ AudienceEnqueuer            = (*scheduler.Client)(nil)
)
