package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("payment not found")
	ErrDuplicateSnapshot = errors.New("payment snapshot already recorded")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Payment struct {
	ID          uuid.UUID
	SnapshotID  string
	StudentID   *uuid.UUID
	Email       string
	Phone       string
	CollegeName string
	CourseName  string
	Amount      float64
	FinalAmount float64
	Status      string
	Remarks     string
	ReceiptKey  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const paymentColumns = `payment_id, snapshot_id, student_id, email, phone, college_name, course_name,
	amount, final_amount, status, remarks, receipt_key, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.SnapshotID, &p.StudentID, &p.Email, &p.Phone, &p.CollegeName, &p.CourseName,
		&p.Amount, &p.FinalAmount, &p.Status, &p.Remarks, &p.ReceiptKey, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return p, err
}

func collect(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	items := make([]Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *Repository) Create(ctx context.Context, p Payment) (Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	created, err := scanPayment(r.pool.QueryRow(ctx, `
		INSERT INTO payments (payment_id, snapshot_id, student_id, email, phone, college_name, course_name,
			amount, final_amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+paymentColumns,
		p.ID, p.SnapshotID, p.StudentID, p.Email, p.Phone, p.CollegeName, p.CourseName,
		p.Amount, p.FinalAmount, p.Status, p.Remarks))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Payment{}, ErrDuplicateSnapshot
	}
	return created, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, id))
}

func (r *Repository) GetBySnapshotID(ctx context.Context, snapshotID string) (Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE snapshot_id = $1`, snapshotID))
}

// UpdateStatus changes the status. An empty remarks argument keeps the stored remarks.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status, remarks string) (Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `
		UPDATE payments
		SET status = $2, remarks = CASE WHEN $3 = '' THEN remarks ELSE $3 END, updated_at = now()
		WHERE payment_id = $1
		RETURNING `+paymentColumns, id, status, remarks))
}

func (r *Repository) SetReceiptKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET receipt_key = $2, updated_at = now() WHERE payment_id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE student_id = $1 ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// List returns one page, newest first, with the total row count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

// ReportFilter narrows report rows. Zero values mean no filter.
type ReportFilter struct {
	From         *time.Time
	To           *time.Time
	Status       string
	CollegeName  string
	CounsellorID string
}

const reportWhere = `
	WHERE ($1::timestamptz IS NULL OR p.created_at >= $1)
	  AND ($2::timestamptz IS NULL OR p.created_at <= $2)
	  AND ($3 = '' OR p.status = $3)
	  AND ($4 = '' OR p.college_name = $4)
	  AND ($5 = '' OR s.assigned_counsellor_id = $5 OR s.assigned_counsellor_l3_id = $5)`

func reportArgs(f ReportFilter) []any {
	return []any{f.From, f.To, f.Status, f.CollegeName, f.CounsellorID}
}

// ReportRow is a payment with the linked student's contact.
type ReportRow struct {
	Payment
	StudentName          *string
	AssignedCounsellorID *string
}

func (r *Repository) ListForReport(ctx context.Context, f ReportFilter) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.payment_id, p.snapshot_id, p.student_id, p.email, p.phone, p.college_name, p.course_name,
			p.amount, p.final_amount, p.status, p.remarks, p.receipt_key, p.created_at, p.updated_at,
			s.student_name, s.assigned_counsellor_id
		FROM payments p
		LEFT JOIN students s ON s.student_id = p.student_id`+reportWhere+`
		ORDER BY p.created_at DESC
	`, reportArgs(f)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ReportRow, 0)
	for rows.Next() {
		var row ReportRow
		p := &row.Payment
		if err := rows.Scan(&p.ID, &p.SnapshotID, &p.StudentID, &p.Email, &p.Phone, &p.CollegeName, &p.CourseName,
			&p.Amount, &p.FinalAmount, &p.Status, &p.Remarks, &p.ReceiptKey, &p.CreatedAt, &p.UpdatedAt,
			&row.StudentName, &row.AssignedCounsellorID); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

type CollegeTotal struct {
	CollegeName string
	Payments    int
	Revenue     float64
}

// CollegeTotals groups successful payments by college.
func (r *Repository) CollegeTotals(ctx context.Context, f ReportFilter) ([]CollegeTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.college_name, count(*), COALESCE(sum(p.final_amount), 0)::float8
		FROM payments p
		LEFT JOIN students s ON s.student_id = p.student_id`+reportWhere+`
		  AND p.status IN ('COMPLETED', 'PAID')
		GROUP BY p.college_name
		ORDER BY 3 DESC
	`, reportArgs(f)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CollegeTotal, 0)
	for rows.Next() {
		var t CollegeTotal
		if err := rows.Scan(&t.CollegeName, &t.Payments, &t.Revenue); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
