package boot

import (
	"context"
	"testing"
	"time"

	"maidops/src/lib"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

func TestSeedCatalog(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "service_skus" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3).AddRow(4).AddRow(5).AddRow(6))
	mock.ExpectQuery(`INSERT INTO "rate_cards" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
	mock.ExpectQuery(`INSERT INTO "holidays" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	require.NoError(t, SeedCatalog(d, 2025, 2026))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidaysCoverNextYear(t *testing.T) {
	holidays := holidaysFor(2025, 2026)
	require.Len(t, holidays, 2*len(fixedHolidays))

	dates := map[string]bool{}
	for _, h := range holidays {
		dates[h.Date.Format("2006-01-02")] = true
	}
	assert.True(t, dates["2025-12-25"])
	assert.True(t, dates["2026-01-01"])
	assert.True(t, dates["2026-12-30"])
	assert.Empty(t, holidaysFor())
}

func TestSeedCatalogRollsBack(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "service_skus"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assert.Error(t, SeedCatalog(d, 2025))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingReconciler struct {
	calls int
}

func (c *countingReconciler) Reconcile(_ context.Context, _ time.Time, _ int) (int, error) {
	c.calls++
	return 0, nil
}

func TestInitScheduler(t *testing.T) {
	sched, err := gocron.NewScheduler()
	require.NoError(t, err)
	lib.NewScheduler(sched)

	InitScheduler(&countingReconciler{}, time.Hour, 24*time.Hour)

	jobs := sched.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "settlement-reconciler", jobs[0].Name())
	StopScheduler()
}
