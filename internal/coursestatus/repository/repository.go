package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCourseNotFound = errors.New("course not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Course struct {
	ID             uuid.UUID
	UniversityName string
	CourseName     string
	DegreeName     string
	Specialization string
	Level          string
	Stream         string
}

type HistoryEntry struct {
	ID                uuid.UUID
	StudentID         uuid.UUID
	CourseID          uuid.UUID
	CounsellorID      *string
	Status            string
	DepositAmount     float64
	Currency          string
	ExamInterviewDate *time.Time
	LastAdmissionDate *time.Time
	Notes             string
	CreatedAt         time.Time

	// Filled by ListHistory.
	UniversityName string
	CourseName     string
}

func (r *Repository) GetCourse(ctx context.Context, id uuid.UUID) (Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx, `
		SELECT course_id, university_name, course_name, degree_name, specialization, level, stream
		FROM university_courses WHERE course_id = $1
	`, id).Scan(&c.ID, &c.UniversityName, &c.CourseName, &c.DegreeName, &c.Specialization, &c.Level, &c.Stream)
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, ErrCourseNotFound
	}
	return c, err
}

// ListCourses returns every course ordered by university and course name.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT course_id, university_name, course_name, degree_name, specialization, level, stream
		FROM university_courses
		ORDER BY university_name ASC, course_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Course, 0)
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.UniversityName, &c.CourseName, &c.DegreeName, &c.Specialization, &c.Level, &c.Stream); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateHistory appends a status entry and moves the latest status of the
// student/course pair in one transaction.
func (r *Repository) CreateHistory(ctx context.Context, h HistoryEntry) (HistoryEntry, error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return HistoryEntry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO course_status_history (
			status_history_id, student_id, course_id, counsellor_id, course_status, deposit_amount,
			currency, exam_interview_date, last_admission_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, h.ID, h.StudentID, h.CourseID, h.CounsellorID, h.Status, h.DepositAmount,
		h.Currency, h.ExamInterviewDate, h.LastAdmissionDate, h.Notes).Scan(&h.CreatedAt)
	if err != nil {
		return HistoryEntry{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO course_status (student_id, course_id, latest_course_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, course_id)
		DO UPDATE SET latest_course_status = EXCLUDED.latest_course_status, updated_at = now()
	`, h.StudentID, h.CourseID, h.Status)
	if err != nil {
		return HistoryEntry{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return HistoryEntry{}, err
	}
	return h, nil
}

// ListHistory returns the student's entries, newest first.
func (r *Repository) ListHistory(ctx context.Context, studentID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.status_history_id, h.student_id, h.course_id, h.counsellor_id, h.course_status,
			h.deposit_amount, h.currency, h.exam_interview_date, h.last_admission_date, h.notes, h.created_at,
			c.university_name, c.course_name
		FROM course_status_history h
		JOIN university_courses c ON c.course_id = h.course_id
		WHERE h.student_id = $1
		ORDER BY h.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryEntry, 0)
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.StudentID, &h.CourseID, &h.CounsellorID, &h.Status,
			&h.DepositAmount, &h.Currency, &h.ExamInterviewDate, &h.LastAdmissionDate, &h.Notes, &h.CreatedAt,
			&h.UniversityName, &h.CourseName); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
