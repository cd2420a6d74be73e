package service

import (
	"context"
	"regexp"
	"testing"

	"admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/counsellors/transport"
	"admissions_crm_backend/platform/apperr"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	byID map[string]repository.Counsellor
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]repository.Counsellor{}}
}

func (f *fakeStore) Create(_ context.Context, c repository.Counsellor) (repository.Counsellor, error) {
	for _, existing := range f.byID {
		if existing.Email == c.Email {
			return repository.Counsellor{}, repository.ErrEmailTaken
		}
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (repository.Counsellor, error) {
	c, ok := f.byID[id]
	if !ok {
		return repository.Counsellor{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]repository.Counsellor, error) {
	out := make([]repository.Counsellor, 0)
	for _, c := range f.byID {
		if filter.Role != "" && c.Role != filter.Role {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status string) (repository.Counsellor, error) {
	c := f.byID[id]
	c.Status = status
	f.byID[id] = c
	return c, nil
}

func TestNewCounsellorIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^CNS-[0-9A-F]{8}$`)
	for i := 0; i < 20; i++ {
		if id := NewCounsellorID(); !pattern.MatchString(id) {
			t.Fatalf("expected CNS-XXXXXXXX, got %q", id)
		}
	}
}

func TestCreateHashesPasswordAndDefaultsMode(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	resp, err := svc.Create(context.Background(), transport.CreateCounsellorRequest{
		Name:     " Asha ",
		Email:    "Asha@Example.com",
		Password: "s3cret-pass",
		Role:     "l2",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.PreferredMode != "Regular" {
		t.Fatalf("expected Regular mode, got %q", resp.PreferredMode)
	}
	if resp.Email != "asha@example.com" || resp.Name != "Asha" {
		t.Fatalf("expected normalized name/email, got %q %q", resp.Name, resp.Email)
	}
	stored := store.byID[resp.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Fatal("expected bcrypt hash of the password")
	}
	if stored.Status != repository.StatusActive {
		t.Fatalf("expected active status, got %q", stored.Status)
	}
}

func TestCreateDuplicateEmailIsConflict(t *testing.T) {
	svc := New(newFakeStore())
	req := transport.CreateCounsellorRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: "l3"}
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), req)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestToggleStatus(t *testing.T) {
	store := newFakeStore()
	store.byID["CNS-00000001"] = repository.Counsellor{ID: "CNS-00000001", Status: repository.StatusActive}
	svc := New(store)

	resp, err := svc.ToggleStatus(context.Background(), "CNS-00000001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Status != repository.StatusInactive {
		t.Fatalf("expected inactive, got %q", resp.Status)
	}

	if _, err := svc.ToggleStatus(context.Background(), "CNS-MISSING0"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
