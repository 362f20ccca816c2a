package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Transitions only move forward: PENDING to CONFIRMED or CANCELLED.
const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusConfirmed EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment is the single record of a student career in a period.
type Enrollment struct {
	ID              string           `db:"id" json:"id"`
	StudentCareerID int64            `db:"student_career_id" json:"student_career_id"`
	PeriodID        int64            `db:"period_id" json:"period_id"`
	AssignedDate    time.Time        `db:"assigned_date" json:"assigned_date"`
	ConfirmedAt     *time.Time       `db:"confirmed_at" json:"confirmed_at,omitempty"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	Blocked         bool             `db:"blocked" json:"blocked"`
	BlockReason     string           `db:"block_reason" json:"block_reason,omitempty"`
	ReceiptNumber   string           `db:"receipt_number" json:"receipt_number,omitempty"`
}

// SelectedOffering is one chosen offering of an enrollment.
type SelectedOffering struct {
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	OfferingID   int64     `db:"offering_id" json:"offering_id"`
	GroupCode    string    `db:"group_code" json:"group"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SelectedOfferingDetail adds catalog context to a selection.
type SelectedOfferingDetail struct {
	SelectedOffering
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Credits    int    `db:"credits" json:"credits"`
	Schedule   string `db:"schedule" json:"schedule"`
	Instructor string `db:"instructor" json:"instructor"`
}

// EnrollmentDetail is an enrollment together with its current selection set.
type EnrollmentDetail struct {
	Enrollment
	PeriodCode string                   `db:"period_code" json:"period_code"`
	Offerings  []SelectedOfferingDetail `db:"-" json:"offerings"`
}
