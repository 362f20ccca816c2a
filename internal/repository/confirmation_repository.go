package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ErrCancelledEnrollment is returned when the locked enrollment was cancelled and cannot be reconfirmed.
var ErrCancelledEnrollment = errors.New("enrollment is cancelled")

// SeatsExhaustedError lists offerings whose last seat was taken between the precheck and the reservation.
type SeatsExhaustedError struct {
	OfferingIDs []int64
}

func (e *SeatsExhaustedError) Error() string {
	return fmt.Sprintf("seats exhausted for offerings %v", e.OfferingIDs)
}

// OfferingsMissingError lists requested offerings that no longer exist when the transaction locks them.
type OfferingsMissingError struct {
	OfferingIDs []int64
}

func (e *OfferingsMissingError) Error() string {
	return fmt.Sprintf("offerings %v no longer exist", e.OfferingIDs)
}

// SeatRequest is one offering to reserve.
type SeatRequest struct {
	OfferingID int64
	GroupCode  string
}

// ConfirmParams carries the values required to replace an enrollment's selection atomically.
type ConfirmParams struct {
	StudentCareerID int64
	PeriodID        int64
	Seats           []SeatRequest
	ReceiptNumber   string
	Now             time.Time
}

// ConfirmOutcome describes the committed result.
type ConfirmOutcome struct {
	Enrollment models.Enrollment
	Created    bool
	Released   []int64
	Reserved   []int64
}

// ConfirmationRepository runs the enrollment confirmation transaction.
type ConfirmationRepository struct {
	db          *sqlx.DB
	enrollments *EnrollmentRepository
	ledger      *SeatLedger
}

// NewConfirmationRepository wires the transactional collaborators.
func NewConfirmationRepository(db *sqlx.DB, enrollments *EnrollmentRepository, ledger *SeatLedger) *ConfirmationRepository {
	if enrollments == nil {
		enrollments = NewEnrollmentRepository(db)
	}
	if ledger == nil {
		ledger = NewSeatLedger()
	}
	return &ConfirmationRepository{db: db, enrollments: enrollments, ledger: ledger}
}

// Confirm acquires or creates the enrollment, releases the seats of the previous selection,
// reserves the new ones and marks the enrollment confirmed. Any failure rolls everything back.
func (r *ConfirmationRepository) Confirm(ctx context.Context, params ConfirmParams) (outcome *ConfirmOutcome, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin confirmation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	enrollment, created, err := r.enrollments.LockOrCreate(ctx, tx, params.StudentCareerID, params.PeriodID, params.Now)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		err = ErrCancelledEnrollment
		return nil, err
	}

	previous, err := r.enrollments.SelectionIDs(ctx, tx, enrollment.ID)
	if err != nil {
		return nil, err
	}

	requested := make([]int64, 0, len(params.Seats))
	for _, seat := range params.Seats {
		requested = append(requested, seat.OfferingID)
	}
	locked, err := r.ledger.Lock(ctx, tx, unionSorted(previous, requested))
	if err != nil {
		return nil, err
	}
	if missing := notLocked(requested, locked); len(missing) > 0 {
		err = &OfferingsMissingError{OfferingIDs: missing}
		return nil, err
	}

	for _, id := range previous {
		if err = r.ledger.Release(ctx, tx, id); err != nil {
			return nil, err
		}
	}
	if err = r.enrollments.DeleteSelections(ctx, tx, enrollment.ID); err != nil {
		return nil, err
	}

	var exhausted []int64
	reserved := make([]int64, 0, len(params.Seats))
	for _, seat := range params.Seats {
		if reserveErr := r.ledger.Reserve(ctx, tx, seat.OfferingID); reserveErr != nil {
			if errors.Is(reserveErr, ErrSeatUnavailable) {
				exhausted = append(exhausted, seat.OfferingID)
				continue
			}
			err = reserveErr
			return nil, err
		}
		selection := models.SelectedOffering{
			EnrollmentID: enrollment.ID,
			OfferingID:   seat.OfferingID,
			GroupCode:    seat.GroupCode,
			CreatedAt:    params.Now,
		}
		if err = r.enrollments.InsertSelection(ctx, tx, selection); err != nil {
			return nil, err
		}
		reserved = append(reserved, seat.OfferingID)
	}
	if len(exhausted) > 0 {
		err = &SeatsExhaustedError{OfferingIDs: exhausted}
		return nil, err
	}

	confirmed, err := r.enrollments.MarkConfirmed(ctx, tx, enrollment.ID, params.Now, params.ReceiptNumber)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit confirmation: %w", err)
	}
	return &ConfirmOutcome{
		Enrollment: *confirmed,
		Created:    created,
		Released:   previous,
		Reserved:   reserved,
	}, nil
}

func unionSorted(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func notLocked(requested, locked []int64) []int64 {
	seen := make(map[int64]struct{}, len(locked))
	for _, id := range locked {
		seen[id] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
