package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"maidops/src/config"
	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/pricing"
	"maidops/src/types"

	"github.com/google/uuid"
)

type NewBooking struct {
	Quote          pricing.QuoteRequest
	CustomerID     uint
	HousemaidID    *uint
	HousemaidName  *string
	TimeStart      string
	TimeEnd        string
	PaymentMethod  string
	SettlementType types.SettlementType
	Confirmed      bool
	Actor          Actor
}

// NewBookingCode formats HM-YYMMDD-XXXXXX.
func NewBookingCode(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("HM-%s-%s", at.In(config.Location()).Format("060102"), suffix)
}

// CreateBooking prices a new booking and stores it with its payment record.
func (m *Machine) CreateBooking(ctx context.Context, in NewBooking) (*models.Booking, error) {
	if m.quoter == nil {
		return nil, errs.E(errs.Internal, "CreateBooking", "no pricing engine configured")
	}
	start, err := time.Parse(config.CLOCK_FORMAT, in.TimeStart)
	if err != nil {
		return nil, errs.E(errs.InvalidInput, "CreateBooking", "invalid start time %q", in.TimeStart)
	}
	end, err := time.Parse(config.CLOCK_FORMAT, in.TimeEnd)
	if err != nil {
		return nil, errs.E(errs.InvalidInput, "CreateBooking", "invalid end time %q", in.TimeEnd)
	}
	if !end.After(start) {
		return nil, errs.E(errs.InvalidInput, "CreateBooking", "end time must be after start time")
	}
	switch in.SettlementType {
	case types.SETTLEMENT_CENTRAL, types.SETTLEMENT_DIRECT_TO_HOUSEMAID:
	default:
		return nil, errs.E(errs.InvalidInput, "CreateBooking", "unknown settlement type %q", in.SettlementType)
	}

	customerID := in.CustomerID
	in.Quote.CustomerID = &customerID
	quote, err := m.quoter.Quote(ctx, in.Quote)
	if err != nil {
		return nil, err
	}

	now := m.now()
	serviceDay := in.Quote.Date.In(config.Location())
	status := types.STATUS_NEEDS_CONFIRMATION
	if in.Confirmed {
		status = types.STATUS_PENDING_REVIEW
	}
	booking := models.Booking{
		Code:            NewBookingCode(now),
		CustomerID:      in.CustomerID,
		HousemaidID:     in.HousemaidID,
		HousemaidName:   in.HousemaidName,
		ScheduledDate:   time.Date(serviceDay.Year(), serviceDay.Month(), serviceDay.Day(), 0, 0, 0, 0, time.UTC),
		TimeStart:       start.Format(config.CLOCK_FORMAT),
		TimeEnd:         end.Format(config.CLOCK_FORMAT),
		StatusCode:      status,
		QuotedBasePrice: quote.BasePrice,
		QuotedSurge:     quote.SurgeAmount,
		QuotedPrice:     quote.FinalPrice,
		Currency:        quote.Currency,
		LocationCode:    in.Quote.Location,
		TierCode:        in.Quote.Tier,
		BookingTypeCode: in.Quote.BookingType,
		DurationCode:    in.Quote.Duration,
		Version:         1,
	}
	original := pricing.RoundCentavos(quote.BasePrice + quote.SurgeAmount)
	payment := models.Payment{
		MethodCode:         in.PaymentMethod,
		StatusCode:         types.PAYMENT_AWAITING,
		SettlementTypeCode: in.SettlementType,
		OriginalAmount:     original,
		Discount:           pricing.RoundCentavos(math.Max(0, original-quote.FinalPrice)),
		TotalAmount:        quote.FinalPrice,
		Balance:            quote.FinalPrice,
	}
	entry := m.activity(&booking, false, TransitionRequest{Actor: in.Actor}, map[string]any{
		"quotedPrice": quote.FinalPrice,
		"currency":    quote.Currency,
	})
	if err := m.store.CreateBooking(ctx, &booking, &payment, entry); err != nil {
		return nil, err
	}
	return &booking, nil
}

type LegInput struct {
	LegType    types.LegType
	Mode       types.TransitMode
	Cost       float64
	ReceiptURL *string
}

// ReplaceTransportation replaces every transportation leg of a booking.
// Negative or non-numeric costs are stored as zero.
func (m *Machine) ReplaceTransportation(ctx context.Context, ref string, legs []LegInput) (*models.TransportationDetails, error) {
	rows := make([]models.TransportationLeg, 0, len(legs))
	for i, leg := range legs {
		if leg.LegType != types.LEG_TO_CLIENT && leg.LegType != types.LEG_RETURN {
			return nil, errs.E(errs.InvalidInput, "ReplaceTransportation", "leg %d: unknown leg type %q", i, leg.LegType)
		}
		if !leg.Mode.IsValid() {
			return nil, errs.E(errs.InvalidInput, "ReplaceTransportation", "leg %d: unknown transit mode %q", i, leg.Mode)
		}
		cost := leg.Cost
		if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
			cost = 0
		}
		rows = append(rows, models.TransportationLeg{
			LegType:    leg.LegType,
			ModeCode:   leg.Mode,
			Cost:       pricing.RoundCentavos(cost),
			ReceiptURL: leg.ReceiptURL,
		})
	}
	booking, err := m.store.ResolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.store.ReplaceTransportation(ctx, booking.ID, booking.HousemaidID, rows)
}

// SubmitRating records the customer's score for a completed booking.
func (m *Machine) SubmitRating(ctx context.Context, ref string, customerID uint, score int, comment string) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, errs.E(errs.InvalidInput, "SubmitRating", "score must be between 1 and 5")
	}
	booking, err := m.store.ResolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	if booking.StatusCode != types.STATUS_COMPLETED {
		return nil, errs.E(errs.InvalidTransition, "SubmitRating", "only completed bookings can be rated, booking is %s", booking.StatusCode)
	}
	if customerID != 0 && booking.CustomerID != customerID {
		return nil, errs.E(errs.NotFound, "SubmitRating", "booking %s not found", ref)
	}
	rating := models.Rating{
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		HousemaidID: booking.HousemaidID,
		Score:       score,
		Comment:     strings.TrimSpace(comment),
	}
	if err := m.store.CreateRating(ctx, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (m *Machine) GetBooking(ctx context.Context, ref string) (*models.Booking, error) {
	booking, err := m.store.ResolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	activity, err := m.store.ListActivity(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	booking.ActivityLogs = activity
	return booking, nil
}

func (m *Machine) History(ctx context.Context, ref string) ([]models.ActivityLog, error) {
	booking, err := m.store.ResolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.store.ListActivity(ctx, booking.ID)
}
