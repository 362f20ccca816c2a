package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

const studentCareerSelect = `SELECT sc.id, sc.registration, sc.career_id, c.code AS career_code, c.name AS career_name,
        sc.plan_id, p.code AS plan_code, sc.current_semester, sc.modality, sc.active
        FROM student_careers sc
        JOIN careers c ON c.id = sc.career_id
        JOIN curriculum_plans p ON p.id = sc.plan_id`

// StudentRepository reads students and their career memberships.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByRegistration returns a student by registration number. Missing students yield sql.ErrNoRows.
func (r *StudentRepository) FindByRegistration(ctx context.Context, registration string) (*models.Student, error) {
	const query = `SELECT registration, document_id, first_name, paternal_name, maternal_name, email, active, admission_date
        FROM students WHERE registration = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, registration); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindActiveCareer returns the active membership of a student in the career identified by code.
func (r *StudentRepository) FindActiveCareer(ctx context.Context, registration, careerCode string) (*models.StudentCareer, error) {
	query := studentCareerSelect + ` WHERE sc.registration = $1 AND c.code = $2 AND sc.active = TRUE LIMIT 1`
	var career models.StudentCareer
	if err := r.db.GetContext(ctx, &career, query, registration, careerCode); err != nil {
		return nil, err
	}
	return &career, nil
}

// ListActiveCareers returns every active membership of the student ordered by id.
func (r *StudentRepository) ListActiveCareers(ctx context.Context, registration string) ([]models.StudentCareer, error) {
	query := studentCareerSelect + ` WHERE sc.registration = $1 AND sc.active = TRUE ORDER BY sc.id`
	var careers []models.StudentCareer
	if err := r.db.SelectContext(ctx, &careers, query, registration); err != nil {
		return nil, fmt.Errorf("list student careers: %w", err)
	}
	return careers, nil
}
