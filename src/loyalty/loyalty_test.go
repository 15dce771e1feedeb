package loyalty

import (
	"context"
	"errors"
	"testing"

	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type awardKey struct {
	booking uint
	kind    types.AsensoTransactionType
}

type memStore struct {
	bookings   map[uint]*models.Booking
	housemaids map[uint]*models.Housemaid
	ledger     []models.AsensoTransaction
	seen       map[awardKey]bool
	failAward  error
}

func newMemStore() *memStore {
	return &memStore{
		bookings:   map[uint]*models.Booking{},
		housemaids: map[uint]*models.Housemaid{},
		seen:       map[awardKey]bool{},
	}
}

func (m *memStore) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, errs.E(errs.NotFound, "GetBooking", "booking %d not found", id)
	}
	return b, nil
}

func (m *memStore) AwardBookingPoints(_ context.Context, entry *models.AsensoTransaction) (bool, error) {
	if m.failAward != nil {
		return false, m.failAward
	}
	key := awardKey{*entry.BookingID, entry.TransactionType}
	if m.seen[key] {
		return false, nil
	}
	h, ok := m.housemaids[entry.HousemaidID]
	if !ok {
		return false, errs.E(errs.NotFound, "AwardBookingPoints", "housemaid %d not found", entry.HousemaidID)
	}
	m.seen[key] = true
	m.ledger = append(m.ledger, *entry)
	h.AsensoPoints += entry.Points
	points := entry.Points
	m.bookings[*entry.BookingID].AsensoPointsAwarded = &points
	return true, nil
}

func (m *memStore) GetHousemaid(_ context.Context, id uint) (*models.Housemaid, error) {
	h, ok := m.housemaids[id]
	if !ok {
		return nil, errs.E(errs.NotFound, "GetHousemaid", "housemaid %d not found", id)
	}
	return h, nil
}

func (m *memStore) ListAsensoTransactions(_ context.Context, housemaidID uint, limit int) ([]models.AsensoTransaction, error) {
	var out []models.AsensoTransaction
	for i := len(m.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if m.ledger[i].HousemaidID == housemaidID {
			out = append(out, m.ledger[i])
		}
	}
	return out, nil
}

func uintPtr(v uint) *uint { return &v }

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 150, PointsFor(types.BOOKING_TYPE_TRIAL))
	assert.Equal(t, 150, PointsFor(types.BOOKING_TYPE_ONE_TIME))
	assert.Equal(t, 300, PointsFor(types.BOOKING_TYPE_FLEXIBLE))
	assert.Equal(t, 0, PointsFor("corporate"))
}

func TestAwardPointsIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.housemaids[3] = &models.Housemaid{ID: 3}
	store.bookings[10] = &models.Booking{ID: 10, Code: "HM-250607-ABC123", HousemaidID: uintPtr(3), BookingTypeCode: types.BOOKING_TYPE_FLEXIBLE}
	ledger := NewLedger(store)

	points, err := ledger.AwardPoints(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 300, points)

	points, err = ledger.AwardPoints(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, points)

	assert.Len(t, store.ledger, 1)
	assert.Equal(t, 300, store.housemaids[3].AsensoPoints)
	require.NotNil(t, store.bookings[10].AsensoPointsAwarded)
	assert.Equal(t, 300, *store.bookings[10].AsensoPointsAwarded)
}

func TestAwardPointsSkipsNonFatalCases(t *testing.T) {
	store := newMemStore()
	store.bookings[1] = &models.Booking{ID: 1, BookingTypeCode: types.BOOKING_TYPE_TRIAL}
	store.bookings[2] = &models.Booking{ID: 2, HousemaidID: uintPtr(5), BookingTypeCode: "corporate"}
	store.bookings[3] = &models.Booking{ID: 3, HousemaidID: uintPtr(404), BookingTypeCode: types.BOOKING_TYPE_TRIAL}
	ledger := NewLedger(store)

	for _, id := range []uint{1, 2, 3, 99} {
		points, err := ledger.AwardPoints(context.Background(), id)
		assert.NoError(t, err, "booking %d", id)
		assert.Equal(t, 0, points, "booking %d", id)
	}
	assert.Empty(t, store.ledger)
}

func TestAwardPointsPropagatesStoreFailure(t *testing.T) {
	store := newMemStore()
	store.housemaids[3] = &models.Housemaid{ID: 3}
	store.bookings[10] = &models.Booking{ID: 10, HousemaidID: uintPtr(3), BookingTypeCode: types.BOOKING_TYPE_ONE_TIME}
	store.failAward = errors.New("connection reset")

	points, err := NewLedger(store).AwardPoints(context.Background(), 10)
	assert.Error(t, err)
	assert.Equal(t, 0, points)
	assert.Equal(t, 0, store.housemaids[3].AsensoPoints)
}

func TestBalance(t *testing.T) {
	store := newMemStore()
	store.housemaids[3] = &models.Housemaid{ID: 3}
	store.bookings[10] = &models.Booking{ID: 10, HousemaidID: uintPtr(3), BookingTypeCode: types.BOOKING_TYPE_ONE_TIME}
	store.bookings[11] = &models.Booking{ID: 11, HousemaidID: uintPtr(3), BookingTypeCode: types.BOOKING_TYPE_FLEXIBLE}
	ledger := NewLedger(store)
	_, _ = ledger.AwardPoints(context.Background(), 10)
	_, _ = ledger.AwardPoints(context.Background(), 11)

	balance, err := ledger.Balance(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 450, balance.Points)
	require.Len(t, balance.Transactions, 2)
	assert.Equal(t, uint(11), *balance.Transactions[0].BookingID)

	_, err = ledger.Balance(context.Background(), 404)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}
