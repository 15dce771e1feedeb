package repository

import (
	"context"
	"errors"
	"time"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/models/scopes"
	"maidops/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) FindEarningByBooking(ctx context.Context, bookingID uint) (*models.Earning, error) {
	var earning models.Earning
	err := r.db.WithContext(ctx).Scopes(scopes.WithBookingID(bookingID)).First(&earning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "FindEarningByBooking", "no earning for booking %d", bookingID)
	}
	if err != nil {
		return nil, translate("FindEarningByBooking", err)
	}
	return &earning, nil
}

func (r *Repository) FindEarningByID(ctx context.Context, id uint) (*models.Earning, error) {
	var earning models.Earning
	err := r.db.WithContext(ctx).Preload("Booking").Preload("Booking.Payment").First(&earning, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "FindEarningByID", "earning %d not found", id)
	}
	if err != nil {
		return nil, translate("FindEarningByID", err)
	}
	return &earning, nil
}

func (r *Repository) FindEarningByReceipt(ctx context.Context, receipt string) (*models.Earning, error) {
	var earning models.Earning
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Booking.Payment").
		Where("receipt_number = ?", receipt).
		First(&earning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "FindEarningByReceipt", "earning %s not found", receipt)
	}
	if err != nil {
		return nil, translate("FindEarningByReceipt", err)
	}
	return &earning, nil
}

// InsertEarning creates the earning unless one already exists for the
// booking. It reports whether a row was written.
func (r *Repository) InsertEarning(ctx context.Context, earning *models.Earning) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(earning)
	if res.Error != nil {
		return false, translate("InsertEarning", res.Error)
	}
	return res.RowsAffected > 0, nil
}

type earningTotals struct {
	Total float64
	Count int64
}

// SumEarnings totals a housemaid's earnings with transaction dates in [from, to).
func (r *Repository) SumEarnings(ctx context.Context, housemaidID uint, from, to time.Time) (float64, int64, error) {
	var row earningTotals
	err := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Scopes(scopes.WithHousemaidID(housemaidID), scopes.TransactedBetween(from, to)).
		Scan(&row).Error
	if err != nil {
		return 0, 0, translate("SumEarnings", err)
	}
	return row.Total, row.Count, nil
}

func (r *Repository) RecentEarnings(ctx context.Context, housemaidID uint, limit int) ([]models.Earning, error) {
	var earnings []models.Earning
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithHousemaidID(housemaidID)).
		Order("transaction_date DESC, id DESC").
		Limit(limit).
		Find(&earnings).Error
	if err != nil {
		return nil, translate("RecentEarnings", err)
	}
	return earnings, nil
}

// UpdateEarningPayment copies a payment's latest method and status onto the
// booking's earning.
func (r *Repository) UpdateEarningPayment(ctx context.Context, bookingID uint, method string, status types.PaymentStatus) (bool, error) {
	updates := map[string]any{"payment_status_code": status}
	if method != "" {
		updates["payment_method_code"] = method
	}
	res := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Scopes(scopes.WithBookingID(bookingID)).
		Updates(updates)
	if res.Error != nil {
		return false, translate("UpdateEarningPayment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) UpdateEarningPoints(ctx context.Context, bookingID uint, points int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Scopes(scopes.WithBookingID(bookingID)).
		Update("points_earned", points)
	if res.Error != nil {
		return false, translate("UpdateEarningPoints", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UnawardedBookings lists completed bookings with a housemaid whose loyalty
// points were never stamped.
func (r *Repository) UnawardedBookings(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status_code = ?", types.STATUS_COMPLETED).
		Where("housemaid_id IS NOT NULL").
		Where("asenso_points_awarded IS NULL").
		Where("completed_at >= ?", since).
		Order("completed_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate("UnawardedBookings", err)
	}
	return ids, nil
}

// UnsettledBookings lists completed bookings with a housemaid but no earning.
func (r *Repository) UnsettledBookings(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Joins("LEFT JOIN earnings ON earnings.booking_id = bookings.id AND earnings.deleted_at IS NULL").
		Where("bookings.status_code = ?", types.STATUS_COMPLETED).
		Where("bookings.housemaid_id IS NOT NULL").
		Where("bookings.completed_at >= ?", since).
		Where("earnings.id IS NULL").
		Order("bookings.completed_at ASC").
		Limit(limit).
		Pluck("bookings.id", &ids).Error
	if err != nil {
		return nil, translate("UnsettledBookings", err)
	}
	return ids, nil
}
