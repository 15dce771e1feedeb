package repository

import (
	"context"
	"errors"
	"strconv"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/models/scopes"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transitionColumns are the booking columns a status change may touch. They
// are selected explicitly so nil assignments (decline clearing the
// housemaid) are written.
var transitionColumns = []string{
	"status_code", "substatus_code",
	"accepted_at", "dispatched_at", "departed_at", "arrived_at",
	"check_in_time", "check_out_time", "completed_at", "declined_at", "cancelled_at",
	"decline_reason_code", "housemaid_id", "housemaid_name",
	"reschedule_requested_at", "reschedule_requested_by", "reschedule_reason_code",
	"reschedule_proposed_at", "reschedule_approved_by", "reschedule_approved_at", "reschedule_count",
	"scheduled_date", "time_start", "time_end",
	"arrival_proof_url", "metadata", "version", "updated_at",
}

func withBookingRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Payment").
		Preload("Transportation").
		Preload("Transportation.Legs", func(db *gorm.DB) *gorm.DB {
			return db.Order("transportation_legs.position ASC")
		})
}

// GetBooking loads a booking with its payment and transportation legs.
func (r *Repository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Scopes(withBookingRelations).First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "GetBooking", "booking %d not found", id)
	}
	if err != nil {
		return nil, translate("GetBooking", err)
	}
	return &booking, nil
}

// ResolveBooking looks a booking up by numeric id or by its booking code.
func (r *Repository) ResolveBooking(ctx context.Context, ref string) (*models.Booking, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return r.GetBooking(ctx, uint(id))
	}
	var booking models.Booking
	err := r.db.WithContext(ctx).Scopes(withBookingRelations).Where("code = ?", ref).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "ResolveBooking", "booking %s not found", ref)
	}
	if err != nil {
		return nil, translate("ResolveBooking", err)
	}
	return &booking, nil
}

// SaveTransition writes the mutated booking guarded by its previous version
// and records the activity entry in the same transaction.
func (r *Repository) SaveTransition(ctx context.Context, booking *models.Booking, expectedVersion int, entry *models.ActivityLog) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking.Version = expectedVersion + 1
		res := tx.Model(booking).
			Where("version = ?", expectedVersion).
			Select(transitionColumns).
			Updates(booking)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrConcurrentUpdate
		}
		entry.BookingID = booking.ID
		return tx.Create(entry).Error
	})
	if err != nil {
		booking.Version = expectedVersion
		return translate("SaveTransition", err)
	}
	return nil
}

// CreateBooking persists a new booking, its payment and the intake activity entry.
func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking, payment *models.Payment, entry *models.ActivityLog) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(booking).Error; err != nil {
			return err
		}
		payment.BookingID = booking.ID
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		entry.BookingID = booking.ID
		return tx.Create(entry).Error
	})
	if err != nil {
		return translate("CreateBooking", err)
	}
	booking.Payment = payment
	return nil
}

// ReplaceTransportation swaps every leg of the booking's transportation record.
func (r *Repository) ReplaceTransportation(ctx context.Context, bookingID uint, housemaidID *uint, legs []models.TransportationLeg) (*models.TransportationDetails, error) {
	var details models.TransportationDetails
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(models.TransportationDetails{BookingID: bookingID}).
			Assign(models.TransportationDetails{HousemaidID: housemaidID}).
			FirstOrCreate(&details).Error
		if err != nil {
			return err
		}
		if err := tx.Where("transportation_details_id = ?", details.ID).Delete(&models.TransportationLeg{}).Error; err != nil {
			return err
		}
		for i := range legs {
			legs[i].ID = 0
			legs[i].TransportationDetailsID = details.ID
			legs[i].Position = i
		}
		if len(legs) > 0 {
			if err := tx.Create(&legs).Error; err != nil {
				return err
			}
		}
		details.Legs = legs
		return nil
	})
	if err != nil {
		return nil, translate("ReplaceTransportation", err)
	}
	return &details, nil
}

func (r *Repository) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.ErrDuplicateRating
		}
		return translate("CreateRating", err)
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, bookingID uint) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithBookingID(bookingID)).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, translate("ListActivity", err)
	}
	return entries, nil
}
