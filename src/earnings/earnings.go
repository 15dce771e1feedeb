package earnings

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"maidops/src/config"
	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/pricing"
	"maidops/src/types"

	"github.com/google/uuid"
)

const (
	summaryTTL     = 5 * time.Minute
	recentEarnings = 10
)

type Store interface {
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	FindEarningByBooking(ctx context.Context, bookingID uint) (*models.Earning, error)
	FindEarningByID(ctx context.Context, id uint) (*models.Earning, error)
	FindEarningByReceipt(ctx context.Context, receipt string) (*models.Earning, error)
	InsertEarning(ctx context.Context, earning *models.Earning) (bool, error)
	SumEarnings(ctx context.Context, housemaidID uint, from, to time.Time) (float64, int64, error)
	RecentEarnings(ctx context.Context, housemaidID uint, limit int) ([]models.Earning, error)
	UpdateEarningPayment(ctx context.Context, bookingID uint, method string, status types.PaymentStatus) (bool, error)
	UpdateEarningPoints(ctx context.Context, bookingID uint, points int) (bool, error)
	UnsettledBookings(ctx context.Context, since time.Time, limit int) ([]uint, error)
	UnawardedBookings(ctx context.Context, since time.Time, limit int) ([]uint, error)
}

// PointsAwarder credits loyalty points for a completed booking. Repeat calls
// for the same booking return 0.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, bookingID uint) (int, error)
}

// SummaryCache stores rendered summaries. A nil cache disables caching.
type SummaryCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Engine struct {
	store  Store
	cache  SummaryCache
	points PointsAwarder
	now    func() time.Time
}

type Option func(*Engine)

// WithPointsAwarder lets retries also catch up on points that were never
// awarded at completion.
func WithPointsAwarder(p PointsAwarder) Option {
	return func(e *Engine) { e.points = p }
}

func NewEngine(store Store, cache SummaryCache, opts ...Option) *Engine {
	e := &Engine{store: store, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func summaryKey(housemaidID uint) string {
	return fmt.Sprintf("earnings:summary:%d", housemaidID)
}

// NewReceiptNumber formats ER-YYYYMMDD-XXXXXXXX for the given transaction date.
func NewReceiptNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ER-%s-%s", at.In(config.Location()).Format("20060102"), suffix)
}

// Settle records the housemaid's earning for a completed booking. It returns
// true when an earning exists for the booking afterwards. Missing data is
// logged and reported as false without an error so completion is never
// blocked; storage failures are returned.
func (e *Engine) Settle(ctx context.Context, bookingID uint) (bool, error) {
	existing, err := e.store.FindEarningByBooking(ctx, bookingID)
	if err == nil && existing != nil {
		return true, nil
	}
	if err != nil && !errs.Is(err, errs.NotFound) {
		return false, err
	}

	booking, err := e.store.GetBooking(ctx, bookingID)
	if errs.Is(err, errs.NotFound) {
		log.Printf("[earnings] Booking %d not found, skipping settlement\n", bookingID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if booking.HousemaidID == nil {
		log.Printf("[earnings] Booking %d: %s\n", bookingID, errs.ErrNoHousemaid.Error())
		return false, nil
	}
	if booking.Payment == nil {
		log.Printf("[earnings] Booking %d has no payment record, skipping settlement\n", bookingID)
		return false, nil
	}
	base, ok := WorkerRateFor(booking.LocationCode, booking.DurationCode)
	if !ok {
		log.Printf("[earnings] No worker rate for location %q, skipping booking %d\n", booking.LocationCode, bookingID)
		return false, nil
	}

	loc := config.Location()
	weekend := pricing.IsWeekend(booking.ServiceDate(loc))
	surge := WeekendSurge(base, booking.BookingTypeCode, weekend)
	transactionDate := e.now()
	if booking.CompletedAt != nil {
		transactionDate = *booking.CompletedAt
	}
	points := 0
	if booking.AsensoPointsAwarded != nil {
		points = *booking.AsensoPointsAwarded
	}

	earning := models.Earning{
		ReceiptNumber:        NewReceiptNumber(transactionDate),
		HousemaidID:          *booking.HousemaidID,
		BookingID:            booking.ID,
		PaymentID:            booking.Payment.ID,
		BaseAmount:           base,
		SurgeAmount:          surge,
		ServiceAmount:        base + surge,
		TransportationAmount: pricing.RoundCentavos(booking.Transportation.TotalCost()),
		TotalAmount:          base + surge,
		PointsEarned:         points,
		PaymentMethodCode:    booking.Payment.MethodCode,
		PaymentStatusCode:    booking.Payment.StatusCode,
		TransactionDate:      transactionDate,
	}
	inserted, err := e.store.InsertEarning(ctx, &earning)
	if err != nil {
		log.Printf("[earnings] Error recording earning for booking %d: %s\n", bookingID, err.Error())
		return false, err
	}
	if !inserted {
		log.Printf("[earnings] Booking %d already settled\n", bookingID)
		return true, nil
	}
	log.Printf("[earnings] Settled booking %d: %s total=%.2f\n", bookingID, earning.ReceiptNumber, earning.TotalAmount)
	e.invalidate(ctx, earning.HousemaidID)
	return true, nil
}

type Breakdown struct {
	ServiceShare    float64 `json:"serviceShare"`
	Surge           float64 `json:"surge"`
	Transportation  float64 `json:"transportation"`
	WorkerTotal     float64 `json:"workerTotal"`
	ClientPaidTotal float64 `json:"clientPaidTotal"`
	CompanyShare    float64 `json:"companyShare"`
}

type Details struct {
	ID              uint                `json:"id"`
	ReceiptNumber   string              `json:"receiptNumber"`
	BookingID       uint                `json:"bookingId"`
	BookingCode     string              `json:"bookingCode,omitempty"`
	HousemaidID     uint                `json:"housemaidId"`
	BookingType     types.BookingType   `json:"bookingType,omitempty"`
	Location        string              `json:"location,omitempty"`
	ServiceDate     *time.Time          `json:"serviceDate,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	TransactionDate time.Time           `json:"transactionDate"`
	PaymentMethod   string              `json:"paymentMethod"`
	PaymentStatus   types.PaymentStatus `json:"paymentStatus"`
	PointsEarned    int                 `json:"pointsEarned"`
	Breakdown       Breakdown           `json:"breakdown"`
}

// GetDetails resolves an earning by numeric id, falling back to the receipt
// number, and expands its payout breakdown.
func (e *Engine) GetDetails(ctx context.Context, identifier string) (*Details, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errs.E(errs.InvalidInput, "GetDetails", "identifier is required")
	}
	var earning *models.Earning
	var err error
	if id, perr := strconv.ParseUint(identifier, 10, 64); perr == nil {
		earning, err = e.store.FindEarningByID(ctx, uint(id))
		if errs.Is(err, errs.NotFound) {
			earning, err = e.store.FindEarningByReceipt(ctx, identifier)
		}
	} else {
		earning, err = e.store.FindEarningByReceipt(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	return detailsOf(earning), nil
}

func (e *Engine) DetailsForBooking(ctx context.Context, bookingID uint) (*Details, error) {
	earning, err := e.store.FindEarningByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return detailsOf(earning), nil
}

func detailsOf(earning *models.Earning) *Details {
	d := Details{
		ID:              earning.ID,
		ReceiptNumber:   earning.ReceiptNumber,
		BookingID:       earning.BookingID,
		HousemaidID:     earning.HousemaidID,
		TransactionDate: earning.TransactionDate,
		PaymentMethod:   earning.PaymentMethodCode,
		PaymentStatus:   earning.PaymentStatusCode,
		PointsEarned:    earning.PointsEarned,
		Breakdown: Breakdown{
			ServiceShare:   earning.BaseAmount,
			Surge:          earning.SurgeAmount,
			Transportation: earning.TransportationAmount,
			WorkerTotal:    earning.TotalAmount,
		},
	}
	if b := earning.Booking; b != nil {
		d.BookingCode = b.Code
		d.BookingType = b.BookingTypeCode
		d.Location = b.LocationCode
		serviceDate := b.ServiceDate(config.Location())
		d.ServiceDate = &serviceDate
		d.CompletedAt = b.CompletedAt
		if b.Payment != nil {
			d.Breakdown.ClientPaidTotal = b.Payment.TotalAmount
		}
	}
	d.Breakdown.CompanyShare = pricing.RoundCentavos(math.Max(0, d.Breakdown.ClientPaidTotal-d.Breakdown.WorkerTotal))
	return &d
}

type Period struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Total float64   `json:"total"`
	Count int64     `json:"count"`
}

type Summary struct {
	HousemaidID uint             `json:"housemaidId"`
	Today       Period           `json:"today"`
	Week        Period           `json:"week"`
	Month       Period           `json:"month"`
	Recent      []models.Earning `json:"recent"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// windows returns the local day, Monday-start week and month containing now.
func windows(now time.Time) (day, week, month Period) {
	local := now.In(config.Location())
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	offset := (int(dayStart.Weekday()) + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -offset)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	day = Period{From: dayStart, To: dayStart.AddDate(0, 0, 1)}
	week = Period{From: weekStart, To: weekStart.AddDate(0, 0, 7)}
	month = Period{From: monthStart, To: monthStart.AddDate(0, 1, 0)}
	return
}

func (e *Engine) Summary(ctx context.Context, housemaidID uint) (*Summary, error) {
	key := summaryKey(housemaidID)
	if e.cache != nil {
		var cached Summary
		hit, err := e.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[earnings] Error reading summary cache: %s\n", err.Error())
		} else if hit {
			return &cached, nil
		}
	}

	now := e.now()
	summary := Summary{HousemaidID: housemaidID, GeneratedAt: now}
	summary.Today, summary.Week, summary.Month = windows(now)
	for _, p := range []*Period{&summary.Today, &summary.Week, &summary.Month} {
		total, count, err := e.store.SumEarnings(ctx, housemaidID, p.From, p.To)
		if err != nil {
			return nil, err
		}
		p.Total = pricing.RoundCentavos(total)
		p.Count = count
	}
	recent, err := e.store.RecentEarnings(ctx, housemaidID, recentEarnings)
	if err != nil {
		return nil, err
	}
	summary.Recent = recent

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, &summary, summaryTTL); err != nil {
			log.Printf("[earnings] Error writing summary cache: %s\n", err.Error())
		}
	}
	return &summary, nil
}

// SyncPaymentStatus copies a later payment change onto the booking's earning.
// It returns false when the booking has not been settled yet.
func (e *Engine) SyncPaymentStatus(ctx context.Context, bookingID uint, method string, status types.PaymentStatus) (bool, error) {
	switch status {
	case types.PAYMENT_AWAITING, types.PAYMENT_PARTIAL, types.PAYMENT_PAID, types.PAYMENT_REFUNDED:
	default:
		return false, errs.E(errs.InvalidInput, "SyncPaymentStatus", "unknown payment status %q", status)
	}
	earning, err := e.store.FindEarningByBooking(ctx, bookingID)
	if errs.Is(err, errs.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	updated, err := e.store.UpdateEarningPayment(ctx, bookingID, method, status)
	if err != nil {
		return false, err
	}
	if updated {
		e.invalidate(ctx, earning.HousemaidID)
	}
	return updated, nil
}

// Retry awards any missing points and then settles the booking, so the
// earning snapshots the points. An earning recorded before the points were
// awarded is brought up to date.
func (e *Engine) Retry(ctx context.Context, bookingID uint) (bool, error) {
	if e.points != nil {
		points, err := e.points.AwardPoints(ctx, bookingID)
		if err != nil {
			return false, err
		}
		if points > 0 {
			if _, err := e.RecordPoints(ctx, bookingID, points); err != nil {
				return false, err
			}
		}
	}
	return e.Settle(ctx, bookingID)
}

// RecordPoints copies points awarded after settlement onto the earning. It
// reports false when the booking has no earning yet.
func (e *Engine) RecordPoints(ctx context.Context, bookingID uint, points int) (bool, error) {
	earning, err := e.store.FindEarningByBooking(ctx, bookingID)
	if errs.Is(err, errs.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if earning.PointsEarned == points {
		return false, nil
	}
	updated, err := e.store.UpdateEarningPoints(ctx, bookingID, points)
	if err != nil {
		return false, err
	}
	if updated {
		e.invalidate(ctx, earning.HousemaidID)
	}
	return updated, nil
}

// Reconcile retries completed bookings that were left without an earning or
// without their loyalty points, and returns how many are now settled.
func (e *Engine) Reconcile(ctx context.Context, since time.Time, limit int) (int, error) {
	ids, err := e.store.UnsettledBookings(ctx, since, limit)
	if err != nil {
		return 0, err
	}
	if e.points != nil {
		unawarded, err := e.store.UnawardedBookings(ctx, since, limit)
		if err != nil {
			return 0, err
		}
		seen := make(map[uint]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}
		for _, id := range unawarded {
			if !seen[id] {
				ids = append(ids, id)
			}
		}
	}
	settled := 0
	for _, id := range ids {
		ok, err := e.Retry(ctx, id)
		if err != nil {
			log.Printf("[earnings] Error reconciling booking %d: %s\n", id, err.Error())
			continue
		}
		if ok {
			settled++
		}
	}
	if len(ids) > 0 {
		log.Printf("[earnings] Reconciled %d of %d bookings\n", settled, len(ids))
	}
	return settled, nil
}

func (e *Engine) invalidate(ctx context.Context, housemaidID uint) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, summaryKey(housemaidID)); err != nil {
		log.Printf("[earnings] Error invalidating summary cache: %s\n", err.Error())
	}
}
