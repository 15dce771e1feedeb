package loyalty

import (
	"context"
	"fmt"
	"log"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"
)

const recentLedgerEntries = 20

// pointsByBookingType is the Asenso reward for completing a booking.
var pointsByBookingType = map[types.BookingType]int{
	types.BOOKING_TYPE_TRIAL:    150,
	types.BOOKING_TYPE_ONE_TIME: 150,
	types.BOOKING_TYPE_FLEXIBLE: 300,
}

func PointsFor(bookingType types.BookingType) int {
	return pointsByBookingType[bookingType]
}

type Store interface {
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	AwardBookingPoints(ctx context.Context, entry *models.AsensoTransaction) (bool, error)
	GetHousemaid(ctx context.Context, id uint) (*models.Housemaid, error)
	ListAsensoTransactions(ctx context.Context, housemaidID uint, limit int) ([]models.AsensoTransaction, error)
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// AwardPoints credits the assigned housemaid for a completed booking. It is
// safe to call more than once: repeat calls return 0.
func (l *Ledger) AwardPoints(ctx context.Context, bookingID uint) (int, error) {
	booking, err := l.store.GetBooking(ctx, bookingID)
	if errs.Is(err, errs.NotFound) {
		log.Printf("[asenso] Booking %d not found, skipping points\n", bookingID)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if booking.HousemaidID == nil {
		log.Printf("[asenso] Booking %d has no housemaid, skipping points\n", bookingID)
		return 0, nil
	}
	points := PointsFor(booking.BookingTypeCode)
	if points <= 0 {
		return 0, nil
	}

	id := booking.ID
	entry := models.AsensoTransaction{
		HousemaidID:     *booking.HousemaidID,
		BookingID:       &id,
		Points:          points,
		TransactionType: types.ASENSO_EARN_BOOKING,
		Note:            fmt.Sprintf("Completed booking %s", booking.Code),
	}
	inserted, err := l.store.AwardBookingPoints(ctx, &entry)
	if errs.Is(err, errs.NotFound) {
		log.Printf("[asenso] Housemaid %d not found, skipping points: %s\n", entry.HousemaidID, err.Error())
		return 0, nil
	}
	if err != nil {
		log.Printf("[asenso] Error awarding points for booking %d: %s\n", bookingID, err.Error())
		return 0, err
	}
	if !inserted {
		return 0, nil
	}
	log.Printf("[asenso] Awarded %d points to housemaid %d for booking %d\n", points, entry.HousemaidID, bookingID)
	return points, nil
}

type Balance struct {
	HousemaidID  uint                       `json:"housemaidId"`
	Points       int                        `json:"points"`
	Transactions []models.AsensoTransaction `json:"transactions"`
}

func (l *Ledger) Balance(ctx context.Context, housemaidID uint) (*Balance, error) {
	housemaid, err := l.store.GetHousemaid(ctx, housemaidID)
	if err != nil {
		return nil, err
	}
	entries, err := l.store.ListAsensoTransactions(ctx, housemaidID, recentLedgerEntries)
	if err != nil {
		return nil, err
	}
	return &Balance{
		HousemaidID:  housemaid.ID,
		Points:       housemaid.AsensoPoints,
		Transactions: entries,
	}, nil
}
