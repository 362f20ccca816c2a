package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

const enrollmentColumns = `id, student_career_id, period_id, assigned_date, confirmed_at, status, blocked, block_reason, receipt_number`

// EnrollmentRepository persists enrollments and their selected offerings.
// Methods taking a sqlx.ExtContext run inside the caller's transaction.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentCareerAndPeriod returns the enrollment with its selections. Missing rows yield sql.ErrNoRows.
func (r *EnrollmentRepository) FindByStudentCareerAndPeriod(ctx context.Context, studentCareerID, periodID int64) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_career_id, e.period_id, e.assigned_date, e.confirmed_at, e.status,
        e.blocked, e.block_reason, e.receipt_number, ap.code AS period_code
        FROM enrollments e
        JOIN academic_periods ap ON ap.id = e.period_id
        WHERE e.student_career_id = $1 AND e.period_id = $2`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, studentCareerID, periodID); err != nil {
		return nil, err
	}
	offerings, err := r.ListSelections(ctx, detail.ID)
	if err != nil {
		return nil, err
	}
	detail.Offerings = offerings
	return &detail, nil
}

// ListSelections returns the selected offerings of an enrollment with course data.
func (r *EnrollmentRepository) ListSelections(ctx context.Context, enrollmentID string) ([]models.SelectedOfferingDetail, error) {
	const query = `SELECT eo.enrollment_id, eo.offering_id, eo.group_code, eo.created_at,
        co.code AS course_code, co.name AS course_name, co.credits, o.schedule, o.instructor
        FROM enrollment_offerings eo
        JOIN offerings o ON o.id = eo.offering_id
        JOIN curriculum_courses cc ON cc.id = o.curriculum_course_id
        JOIN courses co ON co.id = cc.course_id
        WHERE eo.enrollment_id = $1
        ORDER BY co.code, eo.group_code`
	var selections []models.SelectedOfferingDetail
	if err := r.db.SelectContext(ctx, &selections, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment selections: %w", err)
	}
	return selections, nil
}

// HeldOfferingIDs returns the offerings currently held by the student career in the period.
func (r *EnrollmentRepository) HeldOfferingIDs(ctx context.Context, studentCareerID, periodID int64) ([]int64, error) {
	const query = `SELECT eo.offering_id FROM enrollment_offerings eo
        JOIN enrollments e ON e.id = eo.enrollment_id
        WHERE e.student_career_id = $1 AND e.period_id = $2
        ORDER BY eo.offering_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, studentCareerID, periodID); err != nil {
		return nil, fmt.Errorf("list held offerings: %w", err)
	}
	return ids, nil
}

// LockOrCreate returns the enrollment row locked for update, inserting a PENDING one first when absent.
// The boolean reports whether this call created the row.
func (r *EnrollmentRepository) LockOrCreate(ctx context.Context, q sqlx.ExtContext, studentCareerID, periodID int64, assigned time.Time) (*models.Enrollment, bool, error) {
	const insertQuery = `INSERT INTO enrollments (id, student_career_id, period_id, assigned_date, status)
        VALUES ($1, $2, $3, $4, 'PENDING')
        ON CONFLICT (student_career_id, period_id) DO NOTHING`
	res, err := q.ExecContext(ctx, insertQuery, uuid.NewString(), studentCareerID, periodID, assigned)
	if err != nil {
		return nil, false, fmt.Errorf("insert enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert enrollment: %w", err)
	}

	selectQuery := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_career_id = $1 AND period_id = $2 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, q, &enrollment, selectQuery, studentCareerID, periodID); err != nil {
		return nil, false, fmt.Errorf("lock enrollment: %w", err)
	}
	return &enrollment, affected > 0, nil
}

// SelectionIDs lists the offering ids selected by the enrollment.
func (r *EnrollmentRepository) SelectionIDs(ctx context.Context, q sqlx.ExtContext, enrollmentID string) ([]int64, error) {
	const query = `SELECT offering_id FROM enrollment_offerings WHERE enrollment_id = $1 ORDER BY offering_id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment selections: %w", err)
	}
	return ids, nil
}

// DeleteSelections removes every selection of the enrollment.
func (r *EnrollmentRepository) DeleteSelections(ctx context.Context, q sqlx.ExtContext, enrollmentID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM enrollment_offerings WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("delete enrollment selections: %w", err)
	}
	return nil
}

// InsertSelection stores one selected offering.
func (r *EnrollmentRepository) InsertSelection(ctx context.Context, q sqlx.ExtContext, selection models.SelectedOffering) error {
	const query = `INSERT INTO enrollment_offerings (enrollment_id, offering_id, group_code, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := q.ExecContext(ctx, query, selection.EnrollmentID, selection.OfferingID, selection.GroupCode, selection.CreatedAt); err != nil {
		return fmt.Errorf("insert enrollment selection: %w", err)
	}
	return nil
}

// MarkConfirmed moves the enrollment to CONFIRMED, clears the hold snapshot and keeps an existing receipt number.
func (r *EnrollmentRepository) MarkConfirmed(ctx context.Context, q sqlx.ExtContext, enrollmentID string, confirmedAt time.Time, receipt string) (*models.Enrollment, error) {
	query := `UPDATE enrollments
        SET status = 'CONFIRMED', confirmed_at = $2, blocked = FALSE, block_reason = '',
            receipt_number = COALESCE(NULLIF(receipt_number, ''), $3)
        WHERE id = $1
        RETURNING ` + enrollmentColumns
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, q, &enrollment, query, enrollmentID, confirmedAt, receipt); err != nil {
		return nil, fmt.Errorf("confirm enrollment: %w", err)
	}
	return &enrollment, nil
}
