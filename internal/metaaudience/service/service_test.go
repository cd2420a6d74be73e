package service

import (
	"context"
	"errors"
	"testing"

	"admissions_crm_backend/internal/metaaudience/client"
	"admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/metaaudience/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	audiences map[uuid.UUID]repository.Audience
}

func (f *fakeStore) Create(_ context.Context, a repository.Audience) (repository.Audience, error) {
	a.ID = uuid.New()
	f.audiences[a.ID] = a
	return a, nil
}
func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Audience, error) {
	a, ok := f.audiences[id]
	if !ok {
		return repository.Audience{}, repository.ErrNotFound
	}
	return a, nil
}
func (f *fakeStore) List(context.Context) ([]repository.Audience, error) { return nil, nil }

type fakeGraph struct {
	createErr error
	addErr    error
	created   []string
	added     []string
}

func (g *fakeGraph) CreateAudience(_ context.Context, name string) (string, error) {
	g.created = append(g.created, name)
	return "meta-1", g.createErr
}
func (g *fakeGraph) AddUser(_ context.Context, audienceID, email, _ string) (client.AddUsersResult, error) {
	if g.addErr != nil {
		return client.AddUsersResult{}, g.addErr
	}
	g.added = append(g.added, audienceID+":"+email)
	return client.AddUsersResult{NumReceived: 1}, nil
}

type fakeContacts map[uuid.UUID]ports.Contact

func (f fakeContacts) Contact(_ context.Context, id uuid.UUID) (ports.Contact, error) {
	c, ok := f[id]
	if !ok {
		return ports.Contact{}, apperr.NotFound("Student not found")
	}
	return c, nil
}

type fakeQueue struct {
	jobs []ports.UploadJob
	err  error
}

func (q *fakeQueue) EnqueueUpload(_ context.Context, job ports.UploadJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func seeded() (*fakeStore, uuid.UUID) {
	id := uuid.New()
	return &fakeStore{audiences: map[uuid.UUID]repository.Audience{id: {ID: id, Name: "Amity MBA", MetaAudienceID: "meta-1"}}}, id
}

func TestCreateStoresSanitisedName(t *testing.T) {
	graph := &fakeGraph{}
	store := &fakeStore{audiences: map[uuid.UUID]repository.Audience{}}
	svc := New(store, graph, fakeContacts{}, nil, logger.New("test"))

	a, err := svc.Create(context.Background(), " Amity University MBA ", "CNS-ADMIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "Amity MBA" || a.MetaAudienceID != "meta-1" || a.CreatedBy != "CNS-ADMIN" {
		t.Fatalf("unexpected audience %+v", a)
	}
}

func TestCreateWithoutMeta(t *testing.T) {
	svc := New(&fakeStore{}, nil, fakeContacts{}, nil, logger.New("test"))
	if _, err := svc.Create(context.Background(), "x", ""); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "  ", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMapsGraphErrors(t *testing.T) {
	store := &fakeStore{audiences: map[uuid.UUID]repository.Audience{}}
	graph := &fakeGraph{createErr: &client.APIError{Status: 400, Message: "Invalid name"}}
	svc := New(store, graph, fakeContacts{}, nil, logger.New("test"))
	if _, err := svc.Create(context.Background(), "x", ""); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}

	graph.createErr = &client.APIError{Status: 503, Message: "down"}
	if _, err := svc.Create(context.Background(), "x", ""); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(store.audiences) != 0 {
		t.Fatal("expected nothing stored after a failed create")
	}
}

func TestAddStudentsQueuesEachStudentOnce(t *testing.T) {
	store, audienceID := seeded()
	known := uuid.New()
	noIdentifiers := uuid.New()
	missing := uuid.New()
	contacts := fakeContacts{
		known:         {StudentID: known, Email: "riya@example.com", Phone: "9876543210"},
		noIdentifiers: {StudentID: noIdentifiers},
	}
	queue := &fakeQueue{}
	svc := New(store, &fakeGraph{}, contacts, queue, logger.New("test"))

	res, err := svc.AddStudents(context.Background(), audienceID, []uuid.UUID{known, known, noIdentifiers, missing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Queued != 1 || res.Uploaded != 0 || len(res.Failed) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if queue.jobs[0].AudienceID != "meta-1" || queue.jobs[0].Contact.Email != "riya@example.com" {
		t.Fatalf("unexpected job %+v", queue.jobs[0])
	}
	if res.Failed[1].Reason != "Student not found" {
		t.Fatalf("unexpected failure reason %q", res.Failed[1].Reason)
	}
}

func TestAddStudentsUploadsInlineWithoutQueue(t *testing.T) {
	store, audienceID := seeded()
	id := uuid.New()
	graph := &fakeGraph{}
	svc := New(store, graph, fakeContacts{id: {StudentID: id, Email: "a@b.com"}}, nil, logger.New("test"))

	res, err := svc.AddStudents(context.Background(), audienceID, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Uploaded != 1 || len(graph.added) != 1 || graph.added[0] != "meta-1:a@b.com" {
		t.Fatalf("unexpected inline upload %+v %v", res, graph.added)
	}
}

func TestAddStudentsReportsQueueFailures(t *testing.T) {
	store, audienceID := seeded()
	id := uuid.New()
	svc := New(store, nil, fakeContacts{id: {StudentID: id, Phone: "9876543210"}}, &fakeQueue{err: errors.New("redis down")}, logger.New("test"))

	res, err := svc.AddStudents(context.Background(), audienceID, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Queued != 0 || len(res.Failed) != 1 || res.Failed[0].Reason != "could not queue upload" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAddStudentsValidation(t *testing.T) {
	store, audienceID := seeded()
	svc := New(store, &fakeGraph{}, fakeContacts{}, nil, logger.New("test"))

	if _, err := svc.AddStudents(context.Background(), audienceID, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.AddStudents(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadClassifiesErrors(t *testing.T) {
	graph := &fakeGraph{addErr: client.ErrNoIdentifiers}
	svc := New(&fakeStore{}, graph, fakeContacts{}, nil, logger.New("test"))

	if err := svc.Upload(context.Background(), "meta-1", ports.Contact{}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	graph.addErr = &client.APIError{Status: 429, Message: "slow down"}
	if err := svc.Upload(context.Background(), "meta-1", ports.Contact{Email: "a@b.com"}); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
