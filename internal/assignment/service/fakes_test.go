package service

import (
	"context"
	"sort"
	"sync"

	"admissions_crm_backend/internal/assignment/ports"
	"admissions_crm_backend/internal/assignment/repository"
	counsellorsrepo "admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/events"

	"github.com/google/uuid"
)

type fakeRules struct {
	l2      []repository.L2Rule
	l3      []repository.L3Ruleset
	cursors map[uuid.UUID]int
	l2Err   error
}

func newFakeRules() *fakeRules {
	return &fakeRules{cursors: map[uuid.UUID]int{}}
}

func (f *fakeRules) ListActiveL2Rules(context.Context) ([]repository.L2Rule, error) {
	if f.l2Err != nil {
		return nil, f.l2Err
	}
	out := make([]repository.L2Rule, 0)
	for _, r := range f.l2 {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}
func (f *fakeRules) ListL2Rules(context.Context) ([]repository.L2Rule, error) { return f.l2, nil }
func (f *fakeRules) CreateL2Rule(_ context.Context, r repository.L2Rule) (repository.L2Rule, error) {
	f.l2 = append(f.l2, r)
	return r, nil
}
func (f *fakeRules) ToggleL2Rule(context.Context, uuid.UUID) (repository.L2Rule, error) {
	return repository.L2Rule{}, repository.ErrNotFound
}
func (f *fakeRules) DeleteL2Rule(context.Context, uuid.UUID) error { return repository.ErrNotFound }
func (f *fakeRules) AdvanceL2Cursor(_ context.Context, id uuid.UUID, size int) (int, error) {
	used, next := repository.NextCursor(f.cursors[id], size)
	f.cursors[id] = next
	return used, nil
}

func (f *fakeRules) ListActiveL3Rulesets(context.Context) ([]repository.L3Ruleset, error) {
	out := make([]repository.L3Ruleset, 0)
	for _, r := range f.l3 {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeRules) ListL3Rulesets(context.Context) ([]repository.L3Ruleset, error) { return f.l3, nil }
func (f *fakeRules) GetL3Ruleset(_ context.Context, id uuid.UUID) (repository.L3Ruleset, error) {
	for _, r := range f.l3 {
		if r.ID == id {
			return r, nil
		}
	}
	return repository.L3Ruleset{}, repository.ErrNotFound
}
func (f *fakeRules) CreateL3Ruleset(_ context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error) {
	rs.Name = "L3-RULE-0001"
	f.l3 = append(f.l3, rs)
	return rs, nil
}
func (f *fakeRules) UpdateL3Ruleset(_ context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error) {
	for i, r := range f.l3 {
		if r.ID == rs.ID {
			f.l3[i] = rs
			return rs, nil
		}
	}
	return repository.L3Ruleset{}, repository.ErrNotFound
}
func (f *fakeRules) DeleteL3Ruleset(_ context.Context, id uuid.UUID) (repository.L3Ruleset, error) {
	for i, r := range f.l3 {
		if r.ID == id {
			f.l3 = append(f.l3[:i], f.l3[i+1:]...)
			return r, nil
		}
	}
	return repository.L3Ruleset{}, repository.ErrNotFound
}
func (f *fakeRules) ToggleL3Ruleset(_ context.Context, id uuid.UUID) (repository.L3Ruleset, error) {
	for i, r := range f.l3 {
		if r.ID == id {
			f.l3[i].IsActive = !r.IsActive
			return f.l3[i], nil
		}
	}
	return repository.L3Ruleset{}, repository.ErrNotFound
}
func (f *fakeRules) AdvanceL3Cursor(_ context.Context, id uuid.UUID, size int) (int, error) {
	used, next := repository.NextCursor(f.cursors[id], size)
	f.cursors[id] = next
	return used, nil
}

type fakeCounsellors struct {
	byID        map[string]counsellorsrepo.Counsellor
	ensureCalls int
}

func newFakeCounsellors(items ...counsellorsrepo.Counsellor) *fakeCounsellors {
	f := &fakeCounsellors{byID: map[string]counsellorsrepo.Counsellor{}}
	for _, c := range items {
		f.byID[c.ID] = c
	}
	return f
}

func active(id, role string) counsellorsrepo.Counsellor {
	return counsellorsrepo.Counsellor{ID: id, Name: "Name " + id, Email: id + "@example.com", Role: role, Status: counsellorsrepo.StatusActive, PreferredMode: "Online"}
}

func (f *fakeCounsellors) GetByID(_ context.Context, id string) (counsellorsrepo.Counsellor, error) {
	c, ok := f.byID[id]
	if !ok {
		return counsellorsrepo.Counsellor{}, counsellorsrepo.ErrNotFound
	}
	return c, nil
}
func (f *fakeCounsellors) ListByIDs(_ context.Context, ids []string) ([]counsellorsrepo.Counsellor, error) {
	out := make([]counsellorsrepo.Counsellor, 0)
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeCounsellors) ListActiveByIDs(_ context.Context, ids []string) ([]counsellorsrepo.Counsellor, error) {
	out := make([]counsellorsrepo.Counsellor, 0)
	for _, id := range ids {
		if c, ok := f.byID[id]; ok && c.IsActive() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (f *fakeCounsellors) FindActiveByID(_ context.Context, id string) (counsellorsrepo.Counsellor, error) {
	c, ok := f.byID[id]
	if !ok || !c.IsActive() {
		return counsellorsrepo.Counsellor{}, counsellorsrepo.ErrNotFound
	}
	return c, nil
}
func (f *fakeCounsellors) FindActiveByEmail(_ context.Context, email string) (counsellorsrepo.Counsellor, error) {
	for _, c := range f.byID {
		if c.Email == email && c.IsActive() {
			return c, nil
		}
	}
	return counsellorsrepo.Counsellor{}, counsellorsrepo.ErrNotFound
}
func (f *fakeCounsellors) FindFirstByRole(_ context.Context, role string) (counsellorsrepo.Counsellor, error) {
	ids := make([]string, 0)
	for id, c := range f.byID {
		if c.Role == role {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return counsellorsrepo.Counsellor{}, counsellorsrepo.ErrNotFound
	}
	sort.Strings(ids)
	return f.byID[ids[0]], nil
}
func (f *fakeCounsellors) EnsureDefault(_ context.Context, c counsellorsrepo.Counsellor) (counsellorsrepo.Counsellor, error) {
	f.ensureCalls++
	if existing, ok := f.byID[c.ID]; ok {
		if existing.Name != c.Name {
			existing.Name = c.Name
			existing.PreferredMode = c.PreferredMode
		}
		f.byID[c.ID] = existing
		return existing, nil
	}
	f.byID[c.ID] = c
	return c, nil
}
func (f *fakeCounsellors) CountByRole(_ context.Context, ids []string, role string) (int, error) {
	n := 0
	for _, id := range ids {
		if c, ok := f.byID[id]; ok && c.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeStudents struct {
	contacts map[uuid.UUID]ports.StudentContact
	l3       map[uuid.UUID]string
}

func newFakeStudents(ids ...uuid.UUID) *fakeStudents {
	f := &fakeStudents{contacts: map[uuid.UUID]ports.StudentContact{}, l3: map[uuid.UUID]string{}}
	for _, id := range ids {
		f.contacts[id] = ports.StudentContact{ID: id, Name: "Student", Email: "student@example.com", Phone: "9876543210"}
	}
	return f
}

func (f *fakeStudents) GetStudentContact(_ context.Context, id uuid.UUID) (ports.StudentContact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return ports.StudentContact{}, ports.ErrStudentNotFound
	}
	return c, nil
}

func (f *fakeStudents) SetL3Counsellor(_ context.Context, id uuid.UUID, counsellorID string) error {
	f.l3[id] = counsellorID
	return nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}
