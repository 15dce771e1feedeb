package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	repo *Repository
}

func (s *RepositoryTestSuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	s.Require().NoError(err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	s.mock = mock
	s.repo = New(gormDB)
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepositoryTestSuite) TestSaveTransition() {
	booking := &models.Booking{ID: 7, Code: "HM-250610-ABCDEF", StatusCode: types.STATUS_IN_PROGRESS, Version: 2}
	entry := &models.ActivityLog{Title: "Service started"}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "bookings" SET .* WHERE version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(`INSERT INTO "activity_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	s.mock.ExpectCommit()

	s.Require().NoError(s.repo.SaveTransition(context.Background(), booking, 2, entry))
	s.Equal(3, booking.Version)
	s.Equal(uint(7), entry.BookingID)
	s.Equal(uint(11), entry.ID)
}

func (s *RepositoryTestSuite) TestSaveTransitionConflict() {
	booking := &models.Booking{ID: 7, StatusCode: types.STATUS_IN_PROGRESS, Version: 2}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	err := s.repo.SaveTransition(context.Background(), booking, 2, &models.ActivityLog{})
	s.ErrorIs(err, errs.ErrConcurrentUpdate)
	s.Equal(errs.Conflict, errs.KindOf(err))
	s.Equal(2, booking.Version)
}

func (s *RepositoryTestSuite) TestInsertEarningIsIdempotent() {
	earning := &models.Earning{BookingID: 7, HousemaidID: 3, TotalAmount: 715}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "earnings" .* ON CONFLICT \("booking_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.mock.ExpectCommit()
	inserted, err := s.repo.InsertEarning(context.Background(), earning)
	s.Require().NoError(err)
	s.True(inserted)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "earnings" .* ON CONFLICT \("booking_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectCommit()
	inserted, err = s.repo.InsertEarning(context.Background(), &models.Earning{BookingID: 7, HousemaidID: 3})
	s.Require().NoError(err)
	s.False(inserted)
}

func (s *RepositoryTestSuite) TestAwardBookingPoints() {
	bookingID := uint(7)
	entry := func() *models.AsensoTransaction {
		return &models.AsensoTransaction{
			HousemaidID:     3,
			BookingID:       &bookingID,
			Points:          150,
			TransactionType: types.ASENSO_EARN_BOOKING,
		}
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "asenso_transactions" .* ON CONFLICT \("booking_id","transaction_type"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.mock.ExpectExec(`UPDATE "housemaids" SET "asenso_points"=asenso_points \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`UPDATE "bookings" SET "asenso_points_awarded"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	awarded, err := s.repo.AwardBookingPoints(context.Background(), entry())
	s.Require().NoError(err)
	s.True(awarded)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "asenso_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectCommit()
	awarded, err = s.repo.AwardBookingPoints(context.Background(), entry())
	s.Require().NoError(err)
	s.False(awarded)
}

func (s *RepositoryTestSuite) TestAwardBookingPointsUnknownHousemaid() {
	bookingID := uint(7)
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "asenso_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.mock.ExpectExec(`UPDATE "housemaids"`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	_, err := s.repo.AwardBookingPoints(context.Background(), &models.AsensoTransaction{
		HousemaidID: 99, BookingID: &bookingID, Points: 150, TransactionType: types.ASENSO_EARN_BOOKING,
	})
	s.Equal(errs.NotFound, errs.KindOf(err))

	_, err = s.repo.AwardBookingPoints(context.Background(), &models.AsensoTransaction{HousemaidID: 3})
	s.Equal(errs.InvalidInput, errs.KindOf(err))
}

func (s *RepositoryTestSuite) TestCreateRatingDuplicate() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "ratings"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	s.mock.ExpectRollback()

	err := s.repo.CreateRating(context.Background(), &models.Rating{BookingID: 7, CustomerID: 5, Score: 5})
	s.ErrorIs(err, errs.ErrDuplicateRating)
}

func (s *RepositoryTestSuite) TestResolveBookingNotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := s.repo.ResolveBooking(context.Background(), "HM-250610-ABCDEF")
	s.Equal(errs.NotFound, errs.KindOf(err))

	s.mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE "bookings"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = s.repo.ResolveBooking(context.Background(), "42")
	s.Equal(errs.NotFound, errs.KindOf(err))
}

func (s *RepositoryTestSuite) TestUnsettledBookings() {
	s.mock.ExpectQuery(`SELECT .* FROM "bookings" LEFT JOIN earnings`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(9))
	ids, err := s.repo.UnsettledBookings(context.Background(), time.Now().Add(-24*time.Hour), 50)
	s.Require().NoError(err)
	s.Equal([]uint{4, 9}, ids)
}

func (s *RepositoryTestSuite) TestUpdateEarningPayment() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "earnings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	updated, err := s.repo.UpdateEarningPayment(context.Background(), 7, "gcash", types.PAYMENT_PAID)
	s.Require().NoError(err)
	s.True(updated)
}

func (s *RepositoryTestSuite) TestUnawardedBookings() {
	s.mock.ExpectQuery(`SELECT .* FROM "bookings" WHERE .*asenso_points_awarded IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	ids, err := s.repo.UnawardedBookings(context.Background(), time.Now().Add(-24*time.Hour), 50)
	s.Require().NoError(err)
	s.Equal([]uint{12}, ids)
}

func (s *RepositoryTestSuite) TestUpdateEarningPoints() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "earnings" SET .*"points_earned"`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	updated, err := s.repo.UpdateEarningPoints(context.Background(), 7, 150)
	s.Require().NoError(err)
	s.True(updated)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate("op", nil))
	assert.Equal(t, errs.NotFound, errs.KindOf(translate("op", gorm.ErrRecordNotFound)))
	assert.Equal(t, errs.Conflict, errs.KindOf(translate("op", gorm.ErrDuplicatedKey)))
	assert.Equal(t, errs.Conflict, errs.KindOf(translate("op", &pgconn.PgError{Code: "23505"})))

	typed := errs.E(errs.InvalidInput, "Inner", "bad")
	assert.Same(t, typed, translate("op", typed))

	plain := translate("SumEarnings", errors.New("connection reset"))
	assert.Equal(t, errs.Other, errs.KindOf(plain))
	assert.EqualError(t, plain, "SumEarnings: connection reset")
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
