package models

import "time"

// Modality describes how a student attends a career.
type Modality string

// Supported attendance modalities.
const (
	ModalityOnSite  Modality = "PRESENCIAL"
	ModalityBlended Modality = "SEMIPRESENCIAL"
	ModalityVirtual Modality = "VIRTUAL"
)

// Label returns the human readable modality.
func (m Modality) Label() string {
	switch m {
	case ModalityBlended:
		return "Semipresencial"
	case ModalityVirtual:
		return "Virtual"
	default:
		return "Presencial"
	}
}

// Student is a person registered at the university, keyed by registration number.
type Student struct {
	Registration  string    `db:"registration" json:"registration"`
	DocumentID    string    `db:"document_id" json:"document_id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	PaternalName  string    `db:"paternal_name" json:"paternal_name"`
	MaternalName  string    `db:"maternal_name" json:"maternal_name"`
	Email         string    `db:"email" json:"email,omitempty"`
	Active        bool      `db:"active" json:"active"`
	AdmissionDate time.Time `db:"admission_date" json:"admission_date"`
}

// FullName joins the given name and surnames, skipping an empty maternal surname.
func (s Student) FullName() string {
	if s.MaternalName == "" {
		return s.FirstName + " " + s.PaternalName
	}
	return s.FirstName + " " + s.PaternalName + " " + s.MaternalName
}

// StudentCareer is one student's membership in one career under one curriculum plan.
// Holds and enrollments attach here rather than to the student.
type StudentCareer struct {
	ID              int64    `db:"id" json:"id"`
	Registration    string   `db:"registration" json:"registration"`
	CareerID        int64    `db:"career_id" json:"career_id"`
	CareerCode      string   `db:"career_code" json:"career_code"`
	CareerName      string   `db:"career_name" json:"career_name"`
	PlanID          int64    `db:"plan_id" json:"plan_id"`
	PlanCode        string   `db:"plan_code" json:"plan_code"`
	CurrentSemester int      `db:"current_semester" json:"current_semester"`
	Modality        Modality `db:"modality" json:"modality"`
	Active          bool     `db:"active" json:"active"`
}
