package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrSeatUnavailable is returned by Reserve when the offering has no free seat left.
var ErrSeatUnavailable = errors.New("seat unavailable")

// SeatLedger owns every change to offerings.seats_taken. All methods run inside the caller's transaction.
type SeatLedger struct{}

// NewSeatLedger constructs the ledger.
func NewSeatLedger() *SeatLedger {
	return &SeatLedger{}
}

// Lock takes row locks on the offerings in ascending id order and returns the ids that exist.
func (l *SeatLedger) Lock(ctx context.Context, q sqlx.ExtContext, offeringIDs []int64) ([]int64, error) {
	if len(offeringIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM offerings WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	var locked []int64
	if err := sqlx.SelectContext(ctx, q, &locked, query, pq.Array(offeringIDs)); err != nil {
		return nil, fmt.Errorf("lock offerings: %w", err)
	}
	return locked, nil
}

// Reserve takes one seat. It never lets seats_taken exceed capacity.
func (l *SeatLedger) Reserve(ctx context.Context, q sqlx.ExtContext, offeringID int64) error {
	const query = `UPDATE offerings SET seats_taken = seats_taken + 1 WHERE id = $1 AND seats_taken < capacity`
	res, err := q.ExecContext(ctx, query, offeringID)
	if err != nil {
		return fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve seat: %w", err)
	}
	if affected == 0 {
		return ErrSeatUnavailable
	}
	return nil
}

// Release gives one seat back, floored at zero.
func (l *SeatLedger) Release(ctx context.Context, q sqlx.ExtContext, offeringID int64) error {
	const query = `UPDATE offerings SET seats_taken = GREATEST(seats_taken - 1, 0) WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, offeringID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}
