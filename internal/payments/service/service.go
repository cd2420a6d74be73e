// Package service records payment snapshots and builds payment reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/payments/ports"
	"admissions_crm_backend/internal/payments/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusPaid      = "PAID"
	StatusFailed    = "FAILED"

	msgPaymentNotFound = "Payment not found"
	msgStatusUnchanged = "Status already updated"
)

type Store interface {
	Create(ctx context.Context, p repository.Payment) (repository.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Payment, error)
	GetBySnapshotID(ctx context.Context, snapshotID string) (repository.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, remarks string) (repository.Payment, error)
	SetReceiptKey(ctx context.Context, id uuid.UUID, key string) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]repository.Payment, error)
	List(ctx context.Context, limit, offset int) ([]repository.Payment, int, error)
	ListForReport(ctx context.Context, f repository.ReportFilter) ([]repository.ReportRow, error)
	CollegeTotals(ctx context.Context, f repository.ReportFilter) ([]repository.CollegeTotal, error)
}

type Service struct {
	repo     Store
	students ports.StudentLookup
	receipts ports.ReceiptStorage
	eventBus events.Bus
	log      *logger.Logger
}

// New builds the service. receipts may be nil when object storage is not configured.
func New(repo Store, students ports.StudentLookup, receipts ports.ReceiptStorage, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, students: students, receipts: receipts, eventBus: eventBus, log: log}
}

type CreateInput struct {
	SnapshotID  string
	Email       string
	Phone       string
	CollegeName string
	CourseName  string
	Amount      float64
	FinalAmount float64
	Status      string
	Remarks     string
}

// Create stores a payment snapshot and links it to a student by email, then phone.
func (s *Service) Create(ctx context.Context, in CreateInput) (repository.Payment, error) {
	in.SnapshotID = strings.TrimSpace(in.SnapshotID)
	if in.SnapshotID == "" {
		return repository.Payment{}, apperr.Validation("snapshotId is required")
	}
	status := normalizeStatus(in.Status)
	if status == "" {
		status = StatusPending
	}

	studentID, err := s.linkStudent(ctx, strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone))
	if err != nil {
		return repository.Payment{}, err
	}

	p, err := s.repo.Create(ctx, repository.Payment{
		SnapshotID:  in.SnapshotID,
		StudentID:   studentID,
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		CollegeName: strings.TrimSpace(in.CollegeName),
		CourseName:  strings.TrimSpace(in.CourseName),
		Amount:      in.Amount,
		FinalAmount: in.FinalAmount,
		Status:      status,
		Remarks:     in.Remarks,
	})
	if errors.Is(err, repository.ErrDuplicateSnapshot) {
		return repository.Payment{}, apperr.Conflict("payment snapshot already recorded")
	}
	if err != nil {
		return repository.Payment{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.PaymentRecorded{
			BaseEvent:   events.NewBaseEvent(),
			PaymentID:   p.ID,
			SnapshotID:  p.SnapshotID,
			StudentID:   p.StudentID,
			Email:       p.Email,
			Phone:       p.Phone,
			CollegeName: p.CollegeName,
			Status:      p.Status,
		})
	}
	return p, nil
}

func (s *Service) linkStudent(ctx context.Context, email, phone string) (*uuid.UUID, error) {
	if email != "" {
		id, err := s.students.FindStudentByEmail(ctx, email)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, ports.ErrStudentNotFound) {
			return nil, err
		}
	}
	if phone != "" {
		id, err := s.students.FindStudentByPhone(ctx, phone)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, ports.ErrStudentNotFound) {
			return nil, err
		}
	}
	s.log.WithContext(ctx).Info("payment not linked to a student", slog.String("email", email))
	return nil, nil
}

type StatusUpdate struct {
	Payment repository.Payment
	Changed bool
	Message string
}

// UpdateStatus looks the payment up by snapshot id. Setting the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, snapshotID, status, remarks string) (StatusUpdate, error) {
	status = normalizeStatus(status)
	if status == "" {
		return StatusUpdate{}, apperr.Validation("status is required")
	}

	current, err := s.repo.GetBySnapshotID(ctx, snapshotID)
	if errors.Is(err, repository.ErrNotFound) {
		return StatusUpdate{}, apperr.NotFound(msgPaymentNotFound)
	}
	if err != nil {
		return StatusUpdate{}, err
	}
	if current.Status == status {
		return StatusUpdate{Payment: current, Message: msgStatusUnchanged}, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, status, remarks)
	if err != nil {
		return StatusUpdate{}, err
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.PaymentStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			PaymentID:      updated.ID,
			SnapshotID:     updated.SnapshotID,
			StudentID:      updated.StudentID,
			PreviousStatus: current.Status,
			Status:         updated.Status,
		})
	}
	return StatusUpdate{Payment: updated, Changed: true, Message: "Payment status updated"}, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]repository.Payment, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *Service) List(ctx context.Context, page, limit int) ([]repository.Payment, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.List(ctx, limit, (page-1)*limit)
}

type StudentDetails struct {
	Student  ports.StudentSummary
	Payments []repository.Payment
}

// StudentDetails loads the student and their payments concurrently.
func (s *Service) StudentDetails(ctx context.Context, studentID uuid.UUID) (StudentDetails, error) {
	var out StudentDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.students.GetStudentSummary(gctx, studentID)
		if errors.Is(err, ports.ErrStudentNotFound) {
			return apperr.NotFound("Student not found")
		}
		out.Student = summary
		return err
	})
	g.Go(func() error {
		payments, err := s.repo.ListByStudent(gctx, studentID)
		out.Payments = payments
		return err
	})
	if err := g.Wait(); err != nil {
		return StudentDetails{}, err
	}
	return out, nil
}

// ReceiptUploadURL presigns an upload and records the key on the payment.
func (s *Service) ReceiptUploadURL(ctx context.Context, paymentID uuid.UUID, fileName, contentType string, sizeBytes int64) (ports.PresignedURL, error) {
	if s.receipts == nil {
		return ports.PresignedURL{}, apperr.Unavailable("receipt storage not configured")
	}
	if _, err := s.getPayment(ctx, paymentID); err != nil {
		return ports.PresignedURL{}, err
	}

	presigned, err := s.receipts.PresignUpload(ctx, paymentID, fileName, contentType, sizeBytes)
	if err != nil {
		return ports.PresignedURL{}, apperr.Validation(err.Error())
	}
	if err := s.repo.SetReceiptKey(ctx, paymentID, presigned.FileKey); err != nil {
		return ports.PresignedURL{}, fmt.Errorf("store receipt key: %w", err)
	}
	return presigned, nil
}

func (s *Service) ReceiptDownloadURL(ctx context.Context, paymentID uuid.UUID) (ports.PresignedURL, error) {
	if s.receipts == nil {
		return ports.PresignedURL{}, apperr.Unavailable("receipt storage not configured")
	}
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return ports.PresignedURL{}, err
	}
	if p.ReceiptKey == "" {
		return ports.PresignedURL{}, apperr.NotFound("Receipt not uploaded")
	}
	return s.receipts.PresignDownload(ctx, p.ReceiptKey)
}

func (s *Service) getPayment(ctx context.Context, id uuid.UUID) (repository.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Payment{}, apperr.NotFound(msgPaymentNotFound)
	}
	return p, err
}

func normalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// ParseReportDates turns YYYY-MM-DD bounds into a range; to covers the whole day.
func ParseReportDates(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return nil, nil, apperr.Validation("from_date must be YYYY-MM-DD")
		}
		start = &t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return nil, nil, apperr.Validation("to_date must be YYYY-MM-DD")
		}
		t = t.Add(24*time.Hour - time.Second)
		end = &t
	}
	return start, end, nil
}
