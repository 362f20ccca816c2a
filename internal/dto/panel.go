package dto

import "time"

// Panel status and option labels.
const (
	StudentStatusActive  = "ACTIVE"
	StudentStatusBlocked = "BLOCKED"

	PeriodStatusOpen   = "OPEN"
	PeriodStatusClosed = "CLOSED"
)

// PanelHeader identifies the student and career every panel section refers to.
type PanelHeader struct {
	University    string `json:"university"`
	Registration  string `json:"registration"`
	FullName      string `json:"fullName"`
	CareerCode    string `json:"careerCode"`
	CareerName    string `json:"careerName"`
	PlanCode      string `json:"planCode"`
	Modality      string `json:"modality"`
	Semester      int    `json:"semester"`
	ProgramFormat string `json:"programFormat"`
}

// PeriodSummary describes the active academic period.
type PeriodSummary struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	EnrollmentOpen bool      `json:"enrollmentOpen"`
}

// EnrollmentDatesResponse answers when the student can enroll.
type EnrollmentDatesResponse struct {
	Header PanelHeader    `json:"header"`
	Period *PeriodSummary `json:"period"`
	Status string         `json:"status"`
}

// HoldItem is one active hold as shown to the student.
type HoldItem struct {
	Type                 string     `json:"type"`
	Reason               string     `json:"reason"`
	BlockedOn            time.Time  `json:"blockedOn"`
	EstimatedReleaseDate *time.Time `json:"estimatedReleaseDate,omitempty"`
}

// HoldsResponse lists the active holds of the student career.
type HoldsResponse struct {
	Header  PanelHeader `json:"header"`
	Blocked bool        `json:"blocked"`
	Reasons []string    `json:"reasons"`
	Holds   []HoldItem  `json:"holds"`
}

// AvailableCourse is an offering the student can request.
type AvailableCourse struct {
	OfferingID int64  `json:"offeringId"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Credits    int    `json:"credits"`
	Group      string `json:"group"`
	Schedule   string `json:"schedule"`
	Instructor string `json:"instructor"`
	Capacity   int    `json:"capacity"`
	SeatsFree  int    `json:"seatsFree"`
}

// AvailableCoursesResponse lists the offerings of the active period for the student's semester.
type AvailableCoursesResponse struct {
	Header     PanelHeader       `json:"header"`
	PeriodCode string            `json:"periodCode,omitempty"`
	Semester   int               `json:"semester"`
	Courses    []AvailableCourse `json:"courses"`
}

// EnabledPeriodResponse reports the active period and whether enrollment is open.
type EnabledPeriodResponse struct {
	Header     PanelHeader `json:"header"`
	PeriodCode string      `json:"periodCode,omitempty"`
	Status     string      `json:"status"`
}

// EnrolledCourse is a selected offering of the current enrollment.
type EnrolledCourse struct {
	OfferingID int64  `json:"offeringId"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Credits    int    `json:"credits"`
	Group      string `json:"group"`
	Schedule   string `json:"schedule"`
	Instructor string `json:"instructor"`
}

// EnrollmentView is the student's enrollment in the active period.
type EnrollmentView struct {
	ID            string           `json:"id"`
	PeriodCode    string           `json:"periodCode"`
	Status        string           `json:"status"`
	AssignedDate  time.Time        `json:"assignedDate"`
	ConfirmedAt   *time.Time       `json:"confirmedAt,omitempty"`
	ReceiptNumber string           `json:"receiptNumber,omitempty"`
	Courses       []EnrolledCourse `json:"courses"`
	TotalCredits  int              `json:"totalCredits"`
}

// CurrentEnrollmentResponse wraps the enrollment view; Enrollment is nil when none exists.
type CurrentEnrollmentResponse struct {
	Header     PanelHeader     `json:"header"`
	Enrollment *EnrollmentView `json:"enrollment"`
}

// PanelOptions tells the dashboard which sections are actionable.
type PanelOptions struct {
	EnrollmentDates bool `json:"enrollmentDates"`
	Slip            bool `json:"slip"`
	Holds           bool `json:"holds"`
	Enrollment      bool `json:"enrollment"`
}

// PanelResponse composes every panel section in one payload.
type PanelResponse struct {
	Header           PanelHeader       `json:"header"`
	Status           string            `json:"status"`
	Period           *PeriodSummary    `json:"period"`
	Options          PanelOptions      `json:"options"`
	Holds            []HoldItem        `json:"holds"`
	Enrollment       *EnrollmentView   `json:"enrollment"`
	AvailableCourses []AvailableCourse `json:"availableCourses"`
}
