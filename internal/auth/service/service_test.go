package service

import (
	"context"
	"testing"
	"time"

	"admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeConfig struct{}

func (fakeConfig) GetJWTAccessSecret() string       { return testSecret }
func (fakeConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

type fakeStore struct {
	items []repository.Counsellor
}

func (f *fakeStore) FindActiveByEmail(_ context.Context, email string) (repository.Counsellor, error) {
	for _, c := range f.items {
		if c.Email == email && c.Status == repository.StatusActive {
			return c, nil
		}
	}
	return repository.Counsellor{}, repository.ErrNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id string) (repository.Counsellor, error) {
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Counsellor{}, repository.ErrNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store := &fakeStore{items: []repository.Counsellor{
		{ID: "CNS-1", Name: "Asha", Email: "asha@example.com", PasswordHash: string(hash), Role: "l2", Status: repository.StatusActive},
		{ID: "CNS-2", Name: "Ravi", Email: "ravi@example.com", PasswordHash: string(hash), Role: "l3", Status: repository.StatusInactive},
	}}
	svc := New(store, fakeConfig{}, logger.New("test"))
	svc.now = func() time.Time { return time.Now().Add(-time.Minute) }
	return svc
}

func TestLoginIssuesAccessToken(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Login(context.Background(), "  Asha@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Counsellor.ID != "CNS-1" {
		t.Fatalf("expected CNS-1, got %q", resp.Counsellor.ID)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("expected 3600 seconds, got %d", resp.ExpiresIn)
	}

	parsed, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		t.Fatalf("expected valid token, got %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "CNS-1" {
		t.Fatalf("expected sub CNS-1, got %v", claims["sub"])
	}
	if claims["role"] != "l2" {
		t.Fatalf("expected role l2, got %v", claims["role"])
	}
	if claims["type"] != "access" {
		t.Fatalf("expected type access, got %v", claims["type"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	cases := map[string][2]string{
		"wrong password":  {"asha@example.com", "nope"},
		"unknown email":   {"nobody@example.com", "correct-horse"},
		"inactive member": {"ravi@example.com", "correct-horse"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc[0], tc[1])
			if !apperr.Is(err, apperr.KindUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestMe(t *testing.T) {
	svc := newTestService(t)

	me, err := svc.Me(context.Background(), "CNS-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Email != "ravi@example.com" {
		t.Fatalf("expected ravi@example.com, got %q", me.Email)
	}

	if _, err := svc.Me(context.Background(), "CNS-404"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
