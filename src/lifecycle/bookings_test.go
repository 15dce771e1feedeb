package lifecycle

import (
	"context"
	"math"
	"regexp"
	"time"

	"maidops/src/config"
	"maidops/src/errs"
	"maidops/src/pricing"
	"maidops/src/types"
)

func (s *MachineTestSuite) newBooking() NewBooking {
	return NewBooking{
		Quote: pricing.QuoteRequest{
			Location: "NCR", Tier: "standard", Duration: types.DURATION_WHOLE_DAY,
			BookingType: types.BOOKING_TYPE_ONE_TIME, Date: time.Date(2025, 6, 14, 0, 0, 0, 0, config.Location()),
		},
		CustomerID:     20,
		TimeStart:      "08:00",
		TimeEnd:        "16:00",
		PaymentMethod:  "gcash",
		SettlementType: types.SETTLEMENT_CENTRAL,
	}
}

func (s *MachineTestSuite) TestCreateBookingSnapshotsQuote() {
	booking, err := s.machine.CreateBooking(context.Background(), s.newBooking())
	s.Require().NoError(err)

	s.Regexp(regexp.MustCompile(`^HM-250610-[0-9A-F]{6}$`), booking.Code)
	s.Equal(types.STATUS_NEEDS_CONFIRMATION, booking.StatusCode)
	s.Equal(1200.0, booking.QuotedBasePrice)
	s.Equal(1080.0, booking.QuotedPrice)
	s.Equal("2025-06-14", booking.ScheduledDate.Format(config.DATE_FORMAT))
	s.Equal(uint(20), *s.quoter.req.CustomerID)

	s.Require().NotNil(booking.Payment)
	s.Equal(types.PAYMENT_AWAITING, booking.Payment.StatusCode)
	s.Equal(1200.0, booking.Payment.OriginalAmount)
	s.Equal(120.0, booking.Payment.Discount)
	s.Equal(1080.0, booking.Payment.TotalAmount)
	s.Equal(1080.0, booking.Payment.Balance)

	s.Require().Len(s.store.activity, 1)
	s.Equal("Booking Created", s.store.activity[0].Title)
}

func (s *MachineTestSuite) TestCreateBookingConfirmed() {
	in := s.newBooking()
	in.Confirmed = true
	booking, err := s.machine.CreateBooking(context.Background(), in)
	s.Require().NoError(err)
	s.Equal(types.STATUS_PENDING_REVIEW, booking.StatusCode)
}

func (s *MachineTestSuite) TestCreateBookingRejectsBadInput() {
	in := s.newBooking()
	in.TimeEnd = "07:00"
	_, err := s.machine.CreateBooking(context.Background(), in)
	s.Equal(errs.InvalidInput, errs.KindOf(err))

	in = s.newBooking()
	in.TimeStart = "8am"
	_, err = s.machine.CreateBooking(context.Background(), in)
	s.Equal(errs.InvalidInput, errs.KindOf(err))

	s.quoter.err = errs.ErrMembershipRequired
	_, err = s.machine.CreateBooking(context.Background(), s.newBooking())
	s.ErrorIs(err, errs.ErrMembershipRequired)
	s.Empty(s.store.bookings)
}

func (s *MachineTestSuite) TestReplaceTransportation() {
	s.seed(1, types.STATUS_ACCEPTED)
	details, err := s.machine.ReplaceTransportation(context.Background(), "1", []LegInput{
		{LegType: types.LEG_TO_CLIENT, Mode: types.TRANSIT_TRICYCLE, Cost: -5},
		{LegType: types.LEG_TO_CLIENT, Mode: types.TRANSIT_TRAIN, Cost: math.NaN()},
		{LegType: types.LEG_RETURN, Mode: types.TRANSIT_BUS, Cost: 35.456},
	})
	s.Require().NoError(err)
	s.Require().Len(details.Legs, 3)
	s.Equal(0.0, details.Legs[0].Cost)
	s.Equal(0.0, details.Legs[1].Cost)
	s.Equal(35.46, details.Legs[2].Cost)
	s.Equal(2, details.Legs[2].Position)
	s.Equal(uint(3), *details.HousemaidID)

	_, err = s.machine.ReplaceTransportation(context.Background(), "1", []LegInput{
		{LegType: types.LEG_RETURN, Mode: "HELICOPTER", Cost: 10},
	})
	s.Equal(errs.InvalidInput, errs.KindOf(err))
	s.Len(s.store.legs[1], 3)
}

func (s *MachineTestSuite) TestSubmitRating() {
	s.seed(1, types.STATUS_IN_PROGRESS)
	_, err := s.machine.SubmitRating(context.Background(), "1", 20, 5, "great")
	s.Equal(errs.InvalidTransition, errs.KindOf(err))

	s.seed(2, types.STATUS_COMPLETED)
	_, err = s.machine.SubmitRating(context.Background(), "2", 20, 6, "")
	s.Equal(errs.InvalidInput, errs.KindOf(err))

	rating, err := s.machine.SubmitRating(context.Background(), "2", 20, 4, "  tidy  ")
	s.Require().NoError(err)
	s.Equal("tidy", rating.Comment)
	s.Equal(uint(3), *rating.HousemaidID)

	_, err = s.machine.SubmitRating(context.Background(), "2", 20, 4, "again")
	s.ErrorIs(err, errs.ErrDuplicateRating)
	s.Equal(errs.Conflict, errs.KindOf(err))

	_, err = s.machine.SubmitRating(context.Background(), "2", 21, 4, "")
	s.Equal(errs.NotFound, errs.KindOf(err))
}

func (s *MachineTestSuite) TestGetBookingAndHistory() {
	s.seed(1, types.STATUS_PENDING_REVIEW)
	_, err := s.apply(1, TransitionRequest{Target: string(types.STATUS_ACCEPTED)})
	s.Require().NoError(err)
	_, err = s.apply(1, TransitionRequest{Target: string(types.STATUS_DISPATCHED)})
	s.Require().NoError(err)

	booking, err := s.machine.GetBooking(context.Background(), "1")
	s.Require().NoError(err)
	s.Len(booking.ActivityLogs, 2)

	history, err := s.machine.History(context.Background(), "HM-250610-000001")
	s.Require().NoError(err)
	s.Equal("Booking Accepted", history[0].Title)
	s.Equal("Housemaid Dispatched", history[1].Title)

	_, err = s.machine.History(context.Background(), "HM-000000-NOPE")
	s.Equal(errs.NotFound, errs.KindOf(err))
}
