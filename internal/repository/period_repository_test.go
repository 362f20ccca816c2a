package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var periodRowColumns = []string{"id", "code", "name", "start_date", "end_date", "is_active", "enrollment_open"}

func TestPeriodRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(periodRowColumns).
		AddRow(int64(3), "1/2025", "Primer semestre 2025", start, start.AddDate(0, 5, 0), true, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_periods WHERE is_active = TRUE ORDER BY start_date DESC, id DESC LIMIT 2")).
		WillReturnRows(rows)

	periods, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "1/2025", periods[0].Code)
	assert.True(t, periods[0].EnrollmentOpen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(periodRowColumns).
		AddRow(int64(2), "2/2024", "Segundo semestre 2024", start, start.AddDate(0, 5, 0), false, false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_periods WHERE code = $1")).
		WithArgs("2/2024").
		WillReturnRows(rows)

	period, err := repo.FindByCode(context.Background(), "2/2024")
	require.NoError(t, err)
	assert.Equal(t, int64(2), period.ID)
	assert.False(t, period.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}
