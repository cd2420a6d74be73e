package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/students/ports"
	"admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	students   []repository.Student
	remarks    map[uuid.UUID][]time.Time
	activities map[uuid.UUID][]time.Time
	logs       []string
	chats      []repository.Chat
	messages   []repository.ChatMessage
	touched    map[uuid.UUID]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		remarks:    map[uuid.UUID][]time.Time{},
		activities: map[uuid.UUID][]time.Time{},
		touched:    map[uuid.UUID]time.Time{},
	}
}

func latest(ts []time.Time) *time.Time {
	if len(ts) == 0 {
		return nil
	}
	newest := ts[0]
	for _, t := range ts[1:] {
		if t.After(newest) {
			newest = t
		}
	}
	return &newest
}

func (f *fakeStore) Create(_ context.Context, s repository.Student) (repository.Student, error) {
	s.CreatedAt = time.Now()
	f.students = append(f.students, s)
	return s, nil
}
func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return repository.Student{}, repository.ErrNotFound
}
func (f *fakeStore) FindExisting(_ context.Context, email, phone string) (repository.Existing, error) {
	for _, s := range f.students {
		if s.Email == email || s.Phone == phone {
			return repository.Existing{Student: s, LastRemarkAt: latest(f.remarks[s.ID]), LastActivityAt: latest(f.activities[s.ID])}, nil
		}
	}
	return repository.Existing{}, repository.ErrNotFound
}
func (f *fakeStore) MarkReactivated(_ context.Context, id uuid.UUID) error {
	for i := range f.students {
		if f.students[i].ID == id {
			f.students[i].IsReactivity = true
		}
	}
	return nil
}
func (f *fakeStore) ListByCounsellor(context.Context, repository.ListParams) ([]repository.Student, int, error) {
	return nil, 0, nil
}
func (f *fakeStore) CreateLeadActivity(_ context.Context, a repository.LeadActivity) (repository.LeadActivity, error) {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	f.activities[a.StudentID] = append(f.activities[a.StudentID], a.CreatedAt)
	return a, nil
}
func (f *fakeStore) CreateAssignmentLog(_ context.Context, _ uuid.UUID, counsellorID, assignedBy string) error {
	f.logs = append(f.logs, counsellorID+"/"+assignedBy)
	return nil
}
func (f *fakeStore) CreateRemark(_ context.Context, studentID uuid.UUID, counsellorID, remark string) (repository.Remark, error) {
	now := time.Now()
	f.remarks[studentID] = append(f.remarks[studentID], now)
	return repository.Remark{ID: uuid.New(), StudentID: studentID, CounsellorID: counsellorID, Remark: remark, CreatedAt: now}, nil
}
func (f *fakeStore) ListRemarks(context.Context, uuid.UUID) ([]repository.Remark, error) {
	return nil, nil
}
func (f *fakeStore) FindChatByParticipants(_ context.Context, a, b string) (repository.Chat, error) {
	for _, c := range f.chats {
		if contains(c.Participants, a) && contains(c.Participants, b) {
			return c, nil
		}
	}
	return repository.Chat{}, repository.ErrChatNotFound
}
func (f *fakeStore) CreateChat(_ context.Context, participants []string, initiatedBy string) (repository.Chat, error) {
	c := repository.Chat{ID: uuid.New(), Participants: participants, InitiatedBy: initiatedBy}
	f.chats = append(f.chats, c)
	return c, nil
}
func (f *fakeStore) MessageExists(_ context.Context, chatID uuid.UUID, messageID, text string, sentAt time.Time) (bool, error) {
	for _, m := range f.messages {
		if m.ChatID != chatID {
			continue
		}
		if (messageID != "" && m.MessageID == messageID) || (m.Message == text && m.SentAt.Equal(sentAt)) {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeStore) InsertMessage(_ context.Context, m repository.ChatMessage) error {
	f.messages = append(f.messages, m)
	return nil
}
func (f *fakeStore) TouchChat(_ context.Context, chatID uuid.UUID, at time.Time) error {
	f.touched[chatID] = at
	return nil
}

func contains(items []string, v string) bool {
	for _, i := range items {
		if i == v {
			return true
		}
	}
	return false
}

type fakeAssigner struct {
	calls  int
	fields map[string]any
	err    error
}

func (f *fakeAssigner) AssignLead(_ context.Context, fields map[string]any) (ports.AssignedCounsellor, error) {
	f.calls++
	f.fields = fields
	if f.err != nil {
		return ports.AssignedCounsellor{}, f.err
	}
	return ports.AssignedCounsellor{ID: "CNS-AAAA0001", Name: "Asha", AssignmentType: "rule-based"}, nil
}

type fakeLoad struct{ incremented []string }

func (f *fakeLoad) IncrementLeadCounters(_ context.Context, id string) error {
	f.incremented = append(f.incremented, id)
	return nil
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
	assigner *fakeAssigner
	load     *fakeLoad
	bus      *recordingBus
}

func newFixture() *fixture {
	f := &fixture{store: newFakeStore(), assigner: &fakeAssigner{}, load: &fakeLoad{}, bus: &recordingBus{}}
	f.svc = New(f.store, f.assigner, f.load, f.bus, "918000000000", logger.New("test"))
	return f
}

func rawLead() map[string]any {
	return map[string]any{
		"name":         "Riya",
		"email":        "riya@example.com",
		"phoneNumber":  "9876543210",
		"source":       "Google",
		"utm_campaign": "spring",
	}
}

func TestProcessLeadRequiresEmailAndPhone(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ProcessLead(context.Background(), map[string]any{"name": "Riya", "email": "riya@example.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.assigner.calls != 0 {
		t.Fatal("expected no assignment for an invalid lead")
	}
}

func TestProcessLeadCreatesStudent(t *testing.T) {
	f := newFixture()
	res, err := f.svc.ProcessLead(context.Background(), rawLead())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StudentStatus != StatusCreated {
		t.Fatalf("expected created, got %s", res.StudentStatus)
	}
	if res.Student.AssignedCounsellorID == nil || *res.Student.AssignedCounsellorID != "CNS-AAAA0001" {
		t.Fatal("expected student assigned to the L2 counsellor")
	}
	if res.Student.Mode != "Regular" {
		t.Fatalf("expected default mode Regular, got %q", res.Student.Mode)
	}
	if len(f.load.incremented) != 1 {
		t.Fatal("expected counsellor counters incremented")
	}
	if len(f.store.logs) != 1 || f.store.logs[0] != "CNS-AAAA0001/Ruleset Based" {
		t.Fatalf("unexpected assignment logs %v", f.store.logs)
	}
	if res.LeadActivity.UTMCampaign != "spring" {
		t.Fatalf("expected activity campaign spring, got %q", res.LeadActivity.UTMCampaign)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected LeadAssigned, got %d events", len(f.bus.published))
	}
	if _, ok := f.bus.published[0].(events.LeadAssigned); !ok {
		t.Fatalf("expected LeadAssigned, got %T", f.bus.published[0])
	}
	if f.assigner.fields["utmCampaign"] != "spring" {
		t.Fatalf("expected scorer fields to carry the campaign, got %v", f.assigner.fields["utmCampaign"])
	}
}

func TestProcessLeadExistingWithoutRemarksReactivates(t *testing.T) {
	f := newFixture()
	first, err := f.svc.ProcessLead(context.Background(), rawLead())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead := rawLead()
	lead["email"] = "other@example.com"
	second, err := f.svc.ProcessLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.StudentStatus != StatusAlreadyExists || second.Student.ID != first.Student.ID {
		t.Fatal("expected the phone match to reuse the student")
	}
	if !second.Student.IsReactivity {
		t.Fatal("expected reactivation without remarks")
	}
	if len(f.load.incremented) != 1 {
		t.Fatal("expected counters to move only for the new student")
	}
	if _, ok := f.bus.published[len(f.bus.published)-1].(events.StudentReactivated); !ok {
		t.Fatal("expected StudentReactivated event")
	}
}

func TestProcessLeadRecentRemarkDoesNotReactivate(t *testing.T) {
	f := newFixture()
	first, err := f.svc.ProcessLead(context.Background(), rawLead())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.store.remarks[first.Student.ID] = []time.Time{time.Now().Add(time.Hour)}

	second, err := f.svc.ProcessLead(context.Background(), rawLead())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Student.IsReactivity {
		t.Fatal("expected no reactivation when the last remark is newer than the last activity")
	}
}

func TestProcessLeadAssignmentFailure(t *testing.T) {
	f := newFixture()
	f.assigner.err = errors.New("assignment failed")
	if _, err := f.svc.ProcessLead(context.Background(), rawLead()); err == nil {
		t.Fatal("expected assignment error")
	}
	if len(f.store.students) != 0 {
		t.Fatal("expected no student stored")
	}
}

func TestShouldReactivate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	cases := []struct {
		name     string
		remark   *time.Time
		activity *time.Time
		want     bool
	}{
		{name: "no remarks", remark: nil, activity: &now, want: true},
		{name: "remark before activity", remark: &earlier, activity: &now, want: true},
		{name: "remark after activity", remark: &now, activity: &earlier, want: false},
		{name: "remark without activity", remark: &now, activity: nil, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := shouldReactivate(repository.Existing{LastRemarkAt: tc.remark, LastActivityAt: tc.activity})
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAddRemarkValidation(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.AddRemark(context.Background(), uuid.New(), "CNS-1", "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.AddRemark(context.Background(), uuid.New(), "CNS-1", "called"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
