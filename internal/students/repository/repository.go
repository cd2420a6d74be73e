package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("student not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Student struct {
	ID                      uuid.UUID
	Name                    string
	Email                   string
	Phone                   string
	ParentsNumber           string
	WhatsApp                string
	AssignedCounsellorID    *string
	AssignedCounsellorL3ID  *string
	Mode                    string
	PreferredStream         []string
	PreferredBudget         string
	PreferredDegree         []string
	PreferredLevel          []string
	PreferredSpecialization []string
	PreferredCity           []string
	PreferredState          []string
	PreferredUniversity     []string
	Source                  string
	FirstSourceURL          string
	UTMCampaign             string
	UTMCampaignID           string
	UTMSource               string
	UTMMedium               string
	SecondaryEmail          string
	CurrentCity             string
	CurrentState            string
	CurrentProfession       string
	CurrentRole             string
	WorkExperience          string
	Age                     int
	Objective               string
	IsTransfered            bool
	IsReactivity            bool
	FirstFormFilledDate     *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Existing is a student found by contact details, with the timestamps that
// decide whether a repeated lead reactivates it.
type Existing struct {
	Student        Student
	LastRemarkAt   *time.Time
	LastActivityAt *time.Time
}

const studentColumns = `
	s.student_id, s.student_name, s.student_email, s.student_phone, s.parents_number, s.whatsapp,
	s.assigned_counsellor_id, s.assigned_counsellor_l3_id, s.mode, s.preferred_stream, s.preferred_budget,
	s.preferred_degree, s.preferred_level, s.preferred_specialization, s.preferred_city, s.preferred_state,
	s.preferred_university, s.source, s.first_source_url, s.utm_campaign, s.utm_campaign_id, s.utm_source,
	s.utm_medium, s.student_secondary_email, s.student_current_city, s.student_current_state,
	s.current_profession, s.current_role, s.work_experience, s.student_age, s.objective, s.is_transfered,
	s.is_reactivity, s.first_form_filled_date, s.created_at, s.updated_at`

func scanTargets(s *Student) []any {
	return []any{
		&s.ID, &s.Name, &s.Email, &s.Phone, &s.ParentsNumber, &s.WhatsApp,
		&s.AssignedCounsellorID, &s.AssignedCounsellorL3ID, &s.Mode, &s.PreferredStream, &s.PreferredBudget,
		&s.PreferredDegree, &s.PreferredLevel, &s.PreferredSpecialization, &s.PreferredCity, &s.PreferredState,
		&s.PreferredUniversity, &s.Source, &s.FirstSourceURL, &s.UTMCampaign, &s.UTMCampaignID, &s.UTMSource,
		&s.UTMMedium, &s.SecondaryEmail, &s.CurrentCity, &s.CurrentState,
		&s.CurrentProfession, &s.CurrentRole, &s.WorkExperience, &s.Age, &s.Objective, &s.IsTransfered,
		&s.IsReactivity, &s.FirstFormFilledDate, &s.CreatedAt, &s.UpdatedAt,
	}
}

func (r *Repository) Create(ctx context.Context, s Student) (Student, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	var out Student
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students AS s (
			student_id, student_name, student_email, student_phone, parents_number, whatsapp,
			assigned_counsellor_id, mode, preferred_stream, preferred_budget, preferred_degree, preferred_level,
			preferred_specialization, preferred_city, preferred_state, preferred_university, source,
			first_source_url, utm_campaign, utm_campaign_id, utm_source, utm_medium, student_secondary_email,
			student_current_city, student_current_state, current_profession, current_role, work_experience,
			student_age, objective, is_transfered
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
		RETURNING `+studentColumns,
		s.ID, s.Name, s.Email, s.Phone, s.ParentsNumber, s.WhatsApp,
		s.AssignedCounsellorID, s.Mode, nonNil(s.PreferredStream), s.PreferredBudget, nonNil(s.PreferredDegree), nonNil(s.PreferredLevel),
		nonNil(s.PreferredSpecialization), nonNil(s.PreferredCity), nonNil(s.PreferredState), nonNil(s.PreferredUniversity), s.Source,
		s.FirstSourceURL, s.UTMCampaign, s.UTMCampaignID, s.UTMSource, s.UTMMedium, s.SecondaryEmail,
		s.CurrentCity, s.CurrentState, s.CurrentProfession, s.CurrentRole, s.WorkExperience,
		s.Age, s.Objective, s.IsTransfered,
	).Scan(scanTargets(&out)...)
	return out, err
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.student_id = $1`, id).
		Scan(scanTargets(&s)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return s, err
}

// FindExisting returns the oldest student sharing the email or phone.
func (r *Repository) FindExisting(ctx context.Context, email, phone string) (Existing, error) {
	var e Existing
	targets := append(scanTargets(&e.Student), &e.LastRemarkAt, &e.LastActivityAt)
	err := r.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`,
			(SELECT max(created_at) FROM student_remarks WHERE student_id = s.student_id),
			(SELECT max(created_at) FROM student_lead_activities WHERE student_id = s.student_id)
		FROM students s
		WHERE ($1 <> '' AND lower(s.student_email) = lower($1))
			OR ($2 <> '' AND s.student_phone = $2)
		ORDER BY s.created_at ASC
		LIMIT 1
	`, email, phone).Scan(targets...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Existing{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) FindIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	return r.findID(ctx, `SELECT student_id FROM students WHERE lower(student_email) = lower($1) ORDER BY created_at LIMIT 1`, email)
}

func (r *Repository) FindIDByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	return r.findID(ctx, `SELECT student_id FROM students WHERE student_phone = $1 ORDER BY created_at LIMIT 1`, phone)
}

func (r *Repository) findID(ctx context.Context, query, arg string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, arg).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return id, err
}

func (r *Repository) MarkReactivated(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE students SET is_reactivity = true, updated_at = now() WHERE student_id = $1`, id)
	return err
}

func (r *Repository) SetL3Counsellor(ctx context.Context, id uuid.UUID, counsellorID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE students SET assigned_counsellor_l3_id = $2, updated_at = now() WHERE student_id = $1
	`, id, counsellorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFirstFormFilled sets first_form_filled_date only when it is still empty.
func (r *Repository) MarkFirstFormFilled(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE students SET first_form_filled_date = $2, updated_at = now()
		WHERE student_id = $1 AND first_form_filled_date IS NULL
	`, id, at)
	return err
}

type ListParams struct {
	CounsellorID string
	Limit        int
	Offset       int
}

// ListByCounsellor returns students whose L2 or L3 counsellor is CounsellorID, newest first.
func (r *Repository) ListByCounsellor(ctx context.Context, p ListParams) ([]Student, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM students
		WHERE assigned_counsellor_id = $1 OR assigned_counsellor_l3_id = $1
	`, p.CounsellorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+studentColumns+`
		FROM students s
		WHERE s.assigned_counsellor_id = $1 OR s.assigned_counsellor_l3_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`, p.CounsellorID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Student, 0)
	for rows.Next() {
		var s Student
		if err := rows.Scan(scanTargets(&s)...); err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

type LeadActivity struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	Source      string
	UTMCampaign string
	SourceURL   string
	Payload     map[string]any
	CreatedAt   time.Time
}

func (r *Repository) CreateLeadActivity(ctx context.Context, a LeadActivity) (LeadActivity, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return LeadActivity{}, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO student_lead_activities (id, student_id, source, utm_campaign, source_url, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, a.ID, a.StudentID, a.Source, a.UTMCampaign, a.SourceURL, payload).Scan(&a.CreatedAt)
	return a, err
}

func (r *Repository) CreateAssignmentLog(ctx context.Context, studentID uuid.UUID, counsellorID, assignedBy string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_assignment_logs (id, student_id, assigned_counsellor_id, assigned_by)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), studentID, counsellorID, assignedBy)
	return err
}

type Remark struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	CounsellorID string
	Remark       string
	CreatedAt    time.Time
}

func (r *Repository) CreateRemark(ctx context.Context, studentID uuid.UUID, counsellorID, remark string) (Remark, error) {
	out := Remark{ID: uuid.New(), StudentID: studentID, CounsellorID: counsellorID, Remark: remark}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO student_remarks (id, student_id, counsellor_id, remark)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, out.ID, studentID, counsellorID, remark).Scan(&out.CreatedAt)
	return out, err
}

func (r *Repository) ListRemarks(ctx context.Context, studentID uuid.UUID) ([]Remark, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, counsellor_id, remark, created_at
		FROM student_remarks WHERE student_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Remark, 0)
	for rows.Next() {
		var rm Remark
		if err := rows.Scan(&rm.ID, &rm.StudentID, &rm.CounsellorID, &rm.Remark, &rm.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, rm)
	}
	return items, rows.Err()
}
