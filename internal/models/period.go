package models

import "time"

// AcademicPeriod is an academic term during which enrollment may be open.
type AcademicPeriod struct {
	ID             int64     `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Active         bool      `db:"is_active" json:"is_active"`
	EnrollmentOpen bool      `db:"enrollment_open" json:"enrollment_open"`
}
