package service

import (
	"context"
	"testing"
	"time"

	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/payments/ports"
	"admissions_crm_backend/internal/payments/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	payments []repository.Payment
	reportF  repository.ReportFilter
}

func (f *fakeStore) Create(_ context.Context, p repository.Payment) (repository.Payment, error) {
	for _, existing := range f.payments {
		if existing.SnapshotID == p.SnapshotID {
			return repository.Payment{}, repository.ErrDuplicateSnapshot
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	f.payments = append(f.payments, p)
	return p, nil
}
func (f *fakeStore) find(match func(repository.Payment) bool) (int, error) {
	for i, p := range f.payments {
		if match(p) {
			return i, nil
		}
	}
	return -1, repository.ErrNotFound
}
func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Payment, error) {
	i, err := f.find(func(p repository.Payment) bool { return p.ID == id })
	if err != nil {
		return repository.Payment{}, err
	}
	return f.payments[i], nil
}
func (f *fakeStore) GetBySnapshotID(_ context.Context, snapshotID string) (repository.Payment, error) {
	i, err := f.find(func(p repository.Payment) bool { return p.SnapshotID == snapshotID })
	if err != nil {
		return repository.Payment{}, err
	}
	return f.payments[i], nil
}
func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status, remarks string) (repository.Payment, error) {
	i, err := f.find(func(p repository.Payment) bool { return p.ID == id })
	if err != nil {
		return repository.Payment{}, err
	}
	f.payments[i].Status = status
	if remarks != "" {
		f.payments[i].Remarks = remarks
	}
	return f.payments[i], nil
}
func (f *fakeStore) SetReceiptKey(_ context.Context, id uuid.UUID, key string) error {
	i, err := f.find(func(p repository.Payment) bool { return p.ID == id })
	if err != nil {
		return err
	}
	f.payments[i].ReceiptKey = key
	return nil
}
func (f *fakeStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]repository.Payment, error) {
	var out []repository.Payment
	for _, p := range f.payments {
		if p.StudentID != nil && *p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeStore) List(_ context.Context, limit, offset int) ([]repository.Payment, int, error) {
	if offset >= len(f.payments) {
		return nil, len(f.payments), nil
	}
	end := min(offset+limit, len(f.payments))
	return f.payments[offset:end], len(f.payments), nil
}
func (f *fakeStore) ListForReport(_ context.Context, filter repository.ReportFilter) ([]repository.ReportRow, error) {
	f.reportF = filter
	rows := make([]repository.ReportRow, 0, len(f.payments))
	for _, p := range f.payments {
		rows = append(rows, repository.ReportRow{Payment: p})
	}
	return rows, nil
}
func (f *fakeStore) CollegeTotals(context.Context, repository.ReportFilter) ([]repository.CollegeTotal, error) {
	return []repository.CollegeTotal{{CollegeName: "Amity University", Payments: 1, Revenue: 100}}, nil
}

type fakeStudents struct {
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID
	summary map[uuid.UUID]ports.StudentSummary
}

func (f *fakeStudents) FindStudentByEmail(_ context.Context, email string) (uuid.UUID, error) {
	if id, ok := f.byEmail[email]; ok {
		return id, nil
	}
	return uuid.Nil, ports.ErrStudentNotFound
}
func (f *fakeStudents) FindStudentByPhone(_ context.Context, phone string) (uuid.UUID, error) {
	if id, ok := f.byPhone[phone]; ok {
		return id, nil
	}
	return uuid.Nil, ports.ErrStudentNotFound
}
func (f *fakeStudents) GetStudentSummary(_ context.Context, id uuid.UUID) (ports.StudentSummary, error) {
	if s, ok := f.summary[id]; ok {
		return s, nil
	}
	return ports.StudentSummary{}, ports.ErrStudentNotFound
}

type fakeReceipts struct{ key string }

func (f *fakeReceipts) PresignUpload(_ context.Context, paymentID uuid.UUID, fileName, _ string, _ int64) (ports.PresignedURL, error) {
	f.key = "receipts/" + paymentID.String() + "/" + fileName
	return ports.PresignedURL{URL: "https://minio.local/put", FileKey: f.key}, nil
}
func (f *fakeReceipts) PresignDownload(_ context.Context, key string) (ports.PresignedURL, error) {
	return ports.PresignedURL{URL: "https://minio.local/get", FileKey: key}, nil
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
	receipts *fakeReceipts
	bus      *recordingBus
}

func newFixture() *fixture {
	f := &fixture{
		store:    &fakeStore{},
		students: &fakeStudents{byEmail: map[string]uuid.UUID{}, byPhone: map[string]uuid.UUID{}, summary: map[uuid.UUID]ports.StudentSummary{}},
		receipts: &fakeReceipts{},
		bus:      &recordingBus{},
	}
	f.svc = New(f.store, f.students, f.receipts, f.bus, logger.New("test"))
	return f
}

func TestCreateLinksByEmailThenPhone(t *testing.T) {
	f := newFixture()
	byEmail, byPhone := uuid.New(), uuid.New()
	f.students.byEmail["riya@example.com"] = byEmail
	f.students.byPhone["9876543210"] = byPhone

	p, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1", Email: "riya@example.com", Phone: "9876543210"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.StudentID == nil || *p.StudentID != byEmail {
		t.Fatalf("expected email match to win, got %v", p.StudentID)
	}
	if p.Status != StatusPending {
		t.Fatalf("expected default status PENDING, got %q", p.Status)
	}

	p, err = f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-2", Email: "other@example.com", Phone: "9876543210"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.StudentID == nil || *p.StudentID != byPhone {
		t.Fatalf("expected phone fallback, got %v", p.StudentID)
	}

	p, err = f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-3", Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.StudentID != nil {
		t.Fatalf("expected unlinked payment, got %v", p.StudentID)
	}
	if len(f.bus.published) != 3 {
		t.Fatalf("expected three events, got %d", len(f.bus.published))
	}
}

func TestCreateDuplicateSnapshot(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1", Status: "pending"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.bus.published = nil

	res, err := f.svc.UpdateStatus(context.Background(), "snap-1", "pending", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed || res.Message != "Status already updated" {
		t.Fatalf("expected no-op, got %+v", res)
	}

	res, err = f.svc.UpdateStatus(context.Background(), "snap-1", "paid", "cleared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Changed || res.Payment.Status != StatusPaid || res.Payment.Remarks != "cleared" {
		t.Fatalf("unexpected update: %+v", res)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected one status event, got %d", len(f.bus.published))
	}

	if _, err := f.svc.UpdateStatus(context.Background(), "missing", "PAID", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListDefaultsPagination(t *testing.T) {
	f := newFixture()
	for i := 0; i < 12; i++ {
		if _, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: uuid.NewString()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	items, total, err := f.svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 10 || total != 12 {
		t.Fatalf("expected 10 of 12, got %d of %d", len(items), total)
	}
	items, _, _ = f.svc.List(context.Background(), 2, 10)
	if len(items) != 2 {
		t.Fatalf("expected 2 on page 2, got %d", len(items))
	}
}

func TestStudentDetails(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.students.byEmail["riya@example.com"] = id
	f.students.summary[id] = ports.StudentSummary{ID: id, Name: "Riya"}
	if _, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1", Email: "riya@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	details, err := f.svc.StudentDetails(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Student.Name != "Riya" || len(details.Payments) != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}

	if _, err := f.svc.StudentDetails(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReceiptURLs(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Create(context.Background(), CreateInput{SnapshotID: "snap-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.ReceiptDownloadURL(context.Background(), p.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found before upload, got %v", err)
	}

	up, err := f.svc.ReceiptUploadURL(context.Background(), p.ID, "fee.pdf", "application/pdf", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.store.GetByID(context.Background(), p.ID)
	if stored.ReceiptKey != up.FileKey {
		t.Fatalf("expected receipt key %q to be stored, got %q", up.FileKey, stored.ReceiptKey)
	}

	down, err := f.svc.ReceiptDownloadURL(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.FileKey != up.FileKey {
		t.Fatalf("expected download of %q, got %q", up.FileKey, down.FileKey)
	}
}

func TestReceiptWithoutStorage(t *testing.T) {
	f := newFixture()
	svc := New(f.store, f.students, nil, f.bus, logger.New("test"))
	if _, err := svc.ReceiptUploadURL(context.Background(), uuid.New(), "a.pdf", "application/pdf", 1); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	rows := []repository.ReportRow{
		{Payment: repository.Payment{Status: StatusCompleted, FinalAmount: 1000}},
		{Payment: repository.Payment{Status: StatusPaid, FinalAmount: 500.5}},
		{Payment: repository.Payment{Status: StatusFailed, FinalAmount: 900}},
		{Payment: repository.Payment{Status: "INITIATED", FinalAmount: 10}},
		{Payment: repository.Payment{Status: StatusPending}},
	}
	got := Summarize(rows)
	want := Analytics{TotalRecords: 5, Success: 2, Failed: 1, Pending: 2, TotalRevenue: 1500.5}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestReportNormalizesStatusFilter(t *testing.T) {
	f := newFixture()
	report, err := f.svc.Report(context.Background(), repository.ReportFilter{Status: " paid "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.reportF.Status != "PAID" {
		t.Fatalf("expected normalized status filter, got %q", f.store.reportF.Status)
	}
	if len(report.Colleges) != 1 {
		t.Fatalf("expected college totals, got %d", len(report.Colleges))
	}
}

func TestParseReportDates(t *testing.T) {
	from, to, err := ParseReportDates("2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from: %v", from)
	}
	if !to.Equal(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("expected end of day, got %v", to)
	}
	if _, _, err := ParseReportDates("01/02/2025", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	from, to, err = ParseReportDates("", "")
	if err != nil || from != nil || to != nil {
		t.Fatalf("expected open range, got %v %v %v", from, to, err)
	}
}
