package models

import "time"

// HoldType classifies an administrative block.
type HoldType string

// Known hold types.
const (
	HoldTypeFinancial      HoldType = "FINANCIERO"
	HoldTypeAcademic       HoldType = "ACADEMICO"
	HoldTypeAdministrative HoldType = "ADMINISTRATIVO"
	HoldTypeDisciplinary   HoldType = "DISCIPLINARIO"
)

// Hold is an administrative block on a student's career that prevents enrollment until resolved.
type Hold struct {
	ID                   int64      `db:"id" json:"id"`
	StudentCareerID      int64      `db:"student_career_id" json:"student_career_id"`
	Type                 HoldType   `db:"type" json:"type"`
	Reason               string     `db:"reason" json:"reason"`
	BlockedOn            time.Time  `db:"blocked_on" json:"blocked_on"`
	EstimatedReleaseDate *time.Time `db:"estimated_release_date" json:"estimated_release_date,omitempty"`
	Active               bool       `db:"is_active" json:"is_active"`
	Resolved             bool       `db:"resolved" json:"resolved"`
}

// Blocking reports whether the hold currently gates enrollment.
func (h Hold) Blocking() bool {
	return h.Active && !h.Resolved
}

// HoldStatus is the gate's answer for one student career.
type HoldStatus struct {
	Blocked bool     `json:"blocked"`
	Reasons []string `json:"reasons"`
	Holds   []Hold   `json:"holds"`
}
