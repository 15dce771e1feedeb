package repository

import (
	"context"
	"errors"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/models/scopes"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardBookingPoints appends the ledger entry, increments the housemaid's
// balance and stamps the booking in one transaction. It returns false when
// the booking was already credited.
func (r *Repository) AwardBookingPoints(ctx context.Context, entry *models.AsensoTransaction) (bool, error) {
	if entry.BookingID == nil {
		return false, errs.E(errs.InvalidInput, "AwardBookingPoints", "ledger entry has no booking")
	}
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "transaction_type"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Model(&models.Housemaid{}).
			Scopes(scopes.WithID(entry.HousemaidID)).
			UpdateColumn("asenso_points", gorm.Expr("asenso_points + ?", entry.Points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.E(errs.NotFound, "AwardBookingPoints", "housemaid %d not found", entry.HousemaidID)
		}

		points := entry.Points
		if err := tx.Model(&models.Booking{}).
			Scopes(scopes.WithID(*entry.BookingID)).
			UpdateColumn("asenso_points_awarded", points).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, translate("AwardBookingPoints", err)
	}
	return inserted, nil
}

func (r *Repository) GetHousemaid(ctx context.Context, id uint) (*models.Housemaid, error) {
	var housemaid models.Housemaid
	err := r.db.WithContext(ctx).First(&housemaid, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "GetHousemaid", "housemaid %d not found", id)
	}
	if err != nil {
		return nil, translate("GetHousemaid", err)
	}
	return &housemaid, nil
}

func (r *Repository) ListAsensoTransactions(ctx context.Context, housemaidID uint, limit int) ([]models.AsensoTransaction, error) {
	var entries []models.AsensoTransaction
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithHousemaidID(housemaidID)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, translate("ListAsensoTransactions", err)
	}
	return entries, nil
}
