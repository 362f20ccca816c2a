package dto

import "time"

// ConfirmEnrollmentRequest is the payload of an enrollment confirmation.
// Duplicate offering ids are tolerated and their order is irrelevant.
type ConfirmEnrollmentRequest struct {
	Registration string  `json:"registration" validate:"required,max=20"`
	CareerCode   string  `json:"careerCode" validate:"required,max=10"`
	OfferingIDs  []int64 `json:"offeringIds" validate:"required,min=1"`
}

// ConfirmationResult is the structured outcome of a confirmation. It is returned for every attempt.
type ConfirmationResult struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message"`
	EnrolledCount int    `json:"enrolledCount,omitempty"`
	Code          string `json:"code,omitempty"`
	EnrollmentID  string `json:"enrollmentId,omitempty"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
	Status        int    `json:"-"`
}

// EnrollmentConfirmedEvent is published after a confirmation commits.
type EnrollmentConfirmedEvent struct {
	EnrollmentID string    `json:"enrollmentId"`
	Registration string    `json:"registration"`
	CareerCode   string    `json:"careerCode"`
	PeriodCode   string    `json:"periodCode"`
	Reserved     []int64   `json:"reserved"`
	Released     []int64   `json:"released"`
	ConfirmedAt  time.Time `json:"confirmedAt"`
}
