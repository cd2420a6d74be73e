package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/coursestatus/repository"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	courses map[uuid.UUID]repository.Course
	history []repository.HistoryEntry
	latest  map[[2]uuid.UUID]string
}

func (f *fakeStore) GetCourse(_ context.Context, id uuid.UUID) (repository.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return repository.Course{}, repository.ErrCourseNotFound
	}
	return c, nil
}
func (f *fakeStore) ListCourses(context.Context) ([]repository.Course, error) { return nil, nil }
func (f *fakeStore) CreateHistory(_ context.Context, h repository.HistoryEntry) (repository.HistoryEntry, error) {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	f.history = append(f.history, h)
	f.latest[[2]uuid.UUID{h.StudentID, h.CourseID}] = h.Status
	return h, nil
}
func (f *fakeStore) ListHistory(context.Context, uuid.UUID) ([]repository.HistoryEntry, error) {
	return f.history, nil
}

type fakeStudents struct {
	source string
	marked []uuid.UUID
}

func (f *fakeStudents) LeadSource(context.Context, uuid.UUID) (string, error) { return f.source, nil }
func (f *fakeStudents) MarkFirstFormFilled(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeL3 struct {
	requests []ports.L3Request
	err      error
}

func (f *fakeL3) RequestL3(_ context.Context, req ports.L3Request) error {
	f.requests = append(f.requests, req)
	return f.err
}

type recordingBus struct{ published []events.Event }

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

type fixture struct {
	svc      *Service
	store    *fakeStore
	students *fakeStudents
	l3       *fakeL3
	bus      *recordingBus
	courseID uuid.UUID
}

func newFixture() *fixture {
	courseID := uuid.New()
	f := &fixture{
		store: &fakeStore{
			courses: map[uuid.UUID]repository.Course{courseID: {
				ID:             courseID,
				UniversityName: "Amity University",
				CourseName:     "Online MBA",
				DegreeName:     "MBA",
				Specialization: "Finance",
				Level:          "PG",
				Stream:         "Management",
			}},
			latest: map[[2]uuid.UUID]string{},
		},
		students: &fakeStudents{source: "google"},
		l3:       &fakeL3{},
		bus:      &recordingBus{},
		courseID: courseID,
	}
	f.svc = New(f.store, f.students, f.l3, f.bus, logger.New("test"))
	return f
}

func TestLogStatusTriggerRequestsL3(t *testing.T) {
	f := newFixture()
	studentID := uuid.New()

	res, err := f.svc.LogStatus(context.Background(), LogInput{
		StudentID:     studentID,
		CourseID:      f.courseID,
		CounsellorID:  "CNS-AAAA0001",
		Status:        "Form Submitted – Completed",
		DepositAmount: 5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.L3Requested {
		t.Fatalf("expected l3 to be requested")
	}
	if res.Entry.Currency != "INR" {
		t.Fatalf("expected INR currency, got %q", res.Entry.Currency)
	}
	if len(f.l3.requests) != 1 {
		t.Fatalf("expected one l3 request, got %d", len(f.l3.requests))
	}
	req := f.l3.requests[0]
	if req.CollegeName != "Amity University" || req.Course != "Online MBA" || req.Degree != "MBA" || req.Source != "google" {
		t.Fatalf("unexpected l3 request: %+v", req)
	}
	if len(f.students.marked) != 1 || f.students.marked[0] != studentID {
		t.Fatalf("expected first form date to be stamped, got %v", f.students.marked)
	}
	if got := f.store.latest[[2]uuid.UUID{studentID, f.courseID}]; got != "Form Submitted – Completed" {
		t.Fatalf("expected latest status to move, got %q", got)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(f.bus.published))
	}
}

func TestLogStatusNonTriggerSkipsL3(t *testing.T) {
	f := newFixture()

	res, err := f.svc.LogStatus(context.Background(), LogInput{StudentID: uuid.New(), CourseID: f.courseID, Status: "Interested"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.L3Requested || len(f.l3.requests) != 0 {
		t.Fatalf("expected no l3 request")
	}
	if len(f.students.marked) != 0 {
		t.Fatalf("expected first form date untouched")
	}
	if res.Entry.CounsellorID != nil {
		t.Fatalf("expected nil counsellor id when none is given")
	}
}

func TestLogStatusUnknownCourse(t *testing.T) {
	f := newFixture()

	_, err := f.svc.LogStatus(context.Background(), LogInput{StudentID: uuid.New(), CourseID: uuid.New(), Status: "Interested"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.store.history) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestLogStatusRequiresStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.LogStatus(context.Background(), LogInput{StudentID: uuid.New(), CourseID: f.courseID, Status: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogStatusKeepsEntryWhenL3Fails(t *testing.T) {
	f := newFixture()
	f.l3.err = errors.New("queue down")

	res, err := f.svc.LogStatus(context.Background(), LogInput{StudentID: uuid.New(), CourseID: f.courseID, Status: "Walkin Completed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.L3Requested {
		t.Fatalf("expected l3 request to be reported as failed")
	}
	if len(f.store.history) != 1 {
		t.Fatalf("expected entry to be stored, got %d", len(f.store.history))
	}
}
