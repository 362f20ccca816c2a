package models

// Offering is one scheduled group of a course within a period.
// SeatsTaken is only ever changed by the enrollment confirmation transaction.
type Offering struct {
	ID                 int64  `db:"id" json:"id"`
	PeriodID           int64  `db:"period_id" json:"period_id"`
	CurriculumCourseID int64  `db:"curriculum_course_id" json:"curriculum_course_id"`
	GroupCode          string `db:"group_code" json:"group"`
	Instructor         string `db:"instructor" json:"instructor"`
	Schedule           string `db:"schedule" json:"schedule"`
	Capacity           int    `db:"capacity" json:"capacity"`
	SeatsTaken         int    `db:"seats_taken" json:"seats_taken"`
}

// Full reports whether every seat is taken.
func (o Offering) Full() bool {
	return o.SeatsTaken >= o.Capacity
}

// SeatsFree returns the remaining seats, never negative.
func (o Offering) SeatsFree() int {
	if o.SeatsTaken >= o.Capacity {
		return 0
	}
	return o.Capacity - o.SeatsTaken
}

// OfferingDetail enriches an offering with its catalog context.
type OfferingDetail struct {
	Offering
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Credits    int    `db:"credits" json:"credits"`
	CareerCode string `db:"career_code" json:"career_code"`
	Semester   int    `db:"semester" json:"semester"`
	PeriodCode string `db:"period_code" json:"period_code"`
}

// OfferingFilter enumerates the optional filters of offering listings. Zero values disable a filter.
type OfferingFilter struct {
	PeriodID      int64
	CareerID      int64
	PlanID        int64
	Semester      int
	OnlyWithSeats bool
}

// SeatDrift reports an offering whose seat counter differs from its selection count.
type SeatDrift struct {
	OfferingID int64  `db:"offering_id" json:"offering_id"`
	CourseCode string `db:"course_code" json:"course_code"`
	GroupCode  string `db:"group_code" json:"group"`
	Capacity   int    `db:"capacity" json:"capacity"`
	SeatsTaken int    `db:"seats_taken" json:"seats_taken"`
	Selections int    `db:"selections" json:"selections"`
}
