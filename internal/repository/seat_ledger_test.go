package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reserveSeatSQL = "UPDATE offerings SET seats_taken = seats_taken + 1 WHERE id = $1 AND seats_taken < capacity"
	releaseSeatSQL = "UPDATE offerings SET seats_taken = GREATEST(seats_taken - 1, 0) WHERE id = $1"
	lockSeatsSQL   = "SELECT id FROM offerings WHERE id = ANY($1) ORDER BY id FOR UPDATE"
)

func TestSeatLedgerReserve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	ledger := NewSeatLedger()

	mock.ExpectExec(regexp.QuoteMeta(reserveSeatSQL)).WithArgs(int64(101)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(reserveSeatSQL)).WithArgs(int64(102)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ledger.Reserve(context.Background(), db, 101))
	err := ledger.Reserve(context.Background(), db, 102)
	assert.True(t, errors.Is(err, ErrSeatUnavailable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerReleaseAndLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	ledger := NewSeatLedger()

	mock.ExpectQuery(regexp.QuoteMeta(lockSeatsSQL)).
		WithArgs(pq.Array([]int64{101, 103})).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)).AddRow(int64(103)))
	mock.ExpectExec(regexp.QuoteMeta(releaseSeatSQL)).WithArgs(int64(101)).WillReturnResult(sqlmock.NewResult(0, 1))

	locked, err := ledger.Lock(context.Background(), db, []int64{101, 103})
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 103}, locked)
	require.NoError(t, ledger.Release(context.Background(), db, 101))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerLockNothing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	locked, err := NewSeatLedger().Lock(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Nil(t, locked)
	require.NoError(t, mock.ExpectationsWereMet())
}
