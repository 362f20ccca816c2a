package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-api/internal/models"
)

const offeringDetailSelect = `SELECT o.id, o.period_id, o.curriculum_course_id, o.group_code, o.instructor, o.schedule,
        o.capacity, o.seats_taken, co.code AS course_code, co.name AS course_name, co.credits,
        ca.code AS career_code, cc.semester, ap.code AS period_code
        FROM offerings o
        JOIN curriculum_courses cc ON cc.id = o.curriculum_course_id
        JOIN courses co ON co.id = cc.course_id
        JOIN careers ca ON ca.id = cc.career_id
        JOIN academic_periods ap ON ap.id = o.period_id`

// OfferingRepository is the read side of the catalog for course offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// FindByIDs returns the offerings whose ids are in the set; missing ids are simply absent.
func (r *OfferingRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.OfferingDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := offeringDetailSelect + ` WHERE o.id = ANY($1) ORDER BY o.id`
	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find offerings: %w", err)
	}
	return offerings, nil
}

// List returns offerings matching the filter ordered by course code and group.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.PeriodID > 0 {
		args = append(args, filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("o.period_id = $%d", len(args)))
	}
	if filter.CareerID > 0 {
		args = append(args, filter.CareerID)
		conditions = append(conditions, fmt.Sprintf("cc.career_id = $%d", len(args)))
	}
	if filter.PlanID > 0 {
		args = append(args, filter.PlanID)
		conditions = append(conditions, fmt.Sprintf("cc.plan_id = $%d", len(args)))
	}
	if filter.Semester > 0 {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("cc.semester = $%d", len(args)))
	}
	if filter.OnlyWithSeats {
		conditions = append(conditions, "o.seats_taken < o.capacity")
	}

	query := offeringDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY co.code, o.group_code"

	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	return offerings, nil
}

// SeatDrift lists offerings of a period whose seat counter disagrees with the number of stored selections.
func (r *OfferingRepository) SeatDrift(ctx context.Context, periodID int64) ([]models.SeatDrift, error) {
	const query = `SELECT o.id AS offering_id, co.code AS course_code, o.group_code, o.capacity, o.seats_taken,
        COUNT(eo.offering_id) AS selections
        FROM offerings o
        JOIN curriculum_courses cc ON cc.id = o.curriculum_course_id
        JOIN courses co ON co.id = cc.course_id
        LEFT JOIN enrollment_offerings eo ON eo.offering_id = o.id
        WHERE o.period_id = $1
        GROUP BY o.id, co.code, o.group_code, o.capacity, o.seats_taken
        HAVING o.seats_taken <> COUNT(eo.offering_id)
        ORDER BY o.id`
	var drift []models.SeatDrift
	if err := r.db.SelectContext(ctx, &drift, query, periodID); err != nil {
		return nil, fmt.Errorf("compute seat drift: %w", err)
	}
	return drift, nil
}
