package repository

import (
	"context"
	"errors"
	"time"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"

	"gorm.io/gorm"
)

func (r *Repository) FindSKU(ctx context.Context, location, tier string, duration types.DurationCode, bookingType types.BookingType) (*models.ServiceSKU, error) {
	var sku models.ServiceSKU
	err := r.db.WithContext(ctx).
		Where("location_code = ? AND tier_code = ? AND duration_code = ? AND booking_type_code = ?", location, tier, duration, bookingType).
		First(&sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.PricingNotFound, "FindSKU", "no price for %s/%s/%s/%s", location, tier, duration, bookingType)
	}
	if err != nil {
		return nil, translate("FindSKU", err)
	}
	return &sku, nil
}

func (r *Repository) FindRateCard(ctx context.Context, location, tier string, duration types.DurationCode) (*models.RateCard, error) {
	var card models.RateCard
	err := r.db.WithContext(ctx).
		Where("location_code = ? AND tier_code = ? AND duration_code = ?", location, tier, duration).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.PricingNotFound, "FindRateCard", "no rate card for %s/%s/%s", location, tier, duration)
	}
	if err != nil {
		return nil, translate("FindRateCard", err)
	}
	return &card, nil
}

// HasActiveMembership reports whether the customer holds an active membership
// for the location and tier covering the given day.
func (r *Repository) HasActiveMembership(ctx context.Context, customerID uint, location, tier string, on time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("customer_id = ? AND location_code = ? AND tier_code = ? AND status = ?", customerID, location, tier, "active").
		Where("starts_at <= ? AND (ends_at IS NULL OR ends_at >= ?)", on, on).
		Count(&count).Error
	if err != nil {
		return false, translate("HasActiveMembership", err)
	}
	return count > 0, nil
}

func (r *Repository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	day := date.Format("2006-01-02")
	err := r.db.WithContext(ctx).Model(&models.Holiday{}).Where("date = ?", day).Count(&count).Error
	if err != nil {
		return false, translate("IsHoliday", err)
	}
	return count > 0, nil
}
