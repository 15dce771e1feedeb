package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"maidops/src/config"
	"maidops/src/earnings"
	"maidops/src/errs"
	"maidops/src/lifecycle"
	"maidops/src/loyalty"
	"maidops/src/models"
	"maidops/src/pricing"
	"maidops/src/types"

	"github.com/gin-gonic/gin"
)

// API bundles the engines the HTTP handlers drive.
type API struct {
	Machine  *lifecycle.Machine
	Pricing  *pricing.Engine
	Earnings *earnings.Engine
	Loyalty  *loyalty.Ledger
	QRCKey   []byte
	TempDir  string
}

// ActorFrom reads the caller stored by the auth middleware.
func ActorFrom(ctx *gin.Context) lifecycle.Actor {
	role := types.ActorType(ctx.GetString("role"))
	if role == "" {
		role = types.ACTOR_SYSTEM
	}
	actor := lifecycle.Actor{Type: role, Name: ctx.GetString("name")}
	if id := ctx.GetUint("id"); id > 0 {
		actor.ID = &id
	}
	return actor
}

func quoteRequest(body types.QuoteRequestBody) (pricing.QuoteRequest, error) {
	date, err := time.ParseInLocation(config.DATE_FORMAT, body.Date, config.Location())
	if err != nil {
		return pricing.QuoteRequest{}, errs.E(errs.InvalidInput, "Quote", "invalid date %q", body.Date)
	}
	req := pricing.QuoteRequest{
		Location:    strings.TrimSpace(body.Location),
		Tier:        strings.TrimSpace(body.Tier),
		Duration:    types.DurationCode(body.Duration),
		BookingType: types.BookingType(body.BookingType),
		Date:        date,
		CustomerID:  body.CustomerID,
	}
	for _, a := range body.Adjustments {
		req.Adjustments = append(req.Adjustments, pricing.Adjustment{
			Kind:  pricing.AdjustmentKind(a.Kind),
			Mode:  pricing.AdjustmentMode(a.Mode),
			Value: a.Value,
			Label: a.Label,
		})
	}
	return req, nil
}

func (a *API) GetQuote(ctx *gin.Context, body types.QuoteRequestBody) (*pricing.Quote, int, error) {
	req, err := quoteRequest(body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	actor := ActorFrom(ctx)
	if actor.Type == types.ACTOR_CUSTOMER {
		req.CustomerID = actor.ID
	}
	quote, err := a.Pricing.Quote(ctx, req)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return quote, http.StatusOK, nil
}

func (a *API) CreateBooking(ctx *gin.Context, body types.CreateBookingRequestBody) (*models.Booking, int, error) {
	req, err := quoteRequest(body.QuoteRequestBody)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	actor := ActorFrom(ctx)
	customerID := body.CustomerID
	if actor.Type == types.ACTOR_CUSTOMER && actor.ID != nil {
		customerID = *actor.ID
	}
	if customerID == 0 {
		err := errs.E(errs.InvalidInput, "CreateBooking", "customerId is required")
		return nil, http.StatusBadRequest, err
	}
	booking, err := a.Machine.CreateBooking(ctx, lifecycle.NewBooking{
		Quote:          req,
		CustomerID:     customerID,
		HousemaidID:    body.HousemaidID,
		TimeStart:      body.TimeStart,
		TimeEnd:        body.TimeEnd,
		PaymentMethod:  body.PaymentMethod,
		SettlementType: types.SettlementType(body.SettlementType),
		Confirmed:      body.Confirmed,
		Actor:          actor,
	})
	if err != nil {
		log.Printf("Error creating booking: %s\n", err.Error())
		return nil, StatusFor(err), err
	}
	return booking, http.StatusCreated, nil
}

func (a *API) UpdateBookingStatus(ctx *gin.Context, ref string, body types.UpdateBookingStatusRequestBody) (*models.Booking, int, error) {
	booking, err := a.Machine.ApplyTransition(ctx, ref, lifecycle.TransitionRequest{
		Action:          lifecycle.Action(body.Action),
		Target:          body.Status,
		Reason:          body.Reason,
		ProposedDate:    body.ProposedDate,
		ProposedTime:    body.ProposedTime,
		ReasonID:        body.ReasonID,
		Metadata:        body.Metadata,
		ArrivalProofURL: body.ArrivalProofURL,
		HousemaidID:     body.HousemaidID,
		HousemaidName:   body.HousemaidName,
		Actor:           ActorFrom(ctx),
	})
	if err != nil {
		log.Printf("Error updating booking [%s] status to %s: %s\n", ref, body.Status, err.Error())
		return nil, StatusFor(err), err
	}
	return booking, http.StatusOK, nil
}

func (a *API) GetBooking(ctx *gin.Context, ref string) (*models.Booking, int, error) {
	booking, err := a.Machine.GetBooking(ctx, ref)
	if err != nil {
		return nil, StatusFor(err), err
	}
	if !ActorFrom(ctx).CanSee(booking) {
		err := errs.E(errs.NotFound, "GetBooking", "booking %s not found", ref)
		return nil, http.StatusNotFound, err
	}
	return booking, http.StatusOK, nil
}

func (a *API) BookingActivity(ctx *gin.Context, ref string) ([]models.ActivityLog, int, error) {
	if _, status, err := a.GetBooking(ctx, ref); err != nil {
		return nil, status, err
	}
	logs, err := a.Machine.History(ctx, ref)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return logs, http.StatusOK, nil
}

func (a *API) ReplaceTransportation(ctx *gin.Context, ref string, body types.ReplaceTransportationRequestBody) (*models.TransportationDetails, int, error) {
	if _, status, err := a.GetBooking(ctx, ref); err != nil {
		return nil, status, err
	}
	legs := make([]lifecycle.LegInput, 0, len(body.Legs))
	for _, l := range body.Legs {
		legs = append(legs, lifecycle.LegInput{
			LegType:    types.LegType(l.LegType),
			Mode:       types.TransitMode(l.Mode),
			Cost:       l.Cost,
			ReceiptURL: l.ReceiptURL,
		})
	}
	details, err := a.Machine.ReplaceTransportation(ctx, ref, legs)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return details, http.StatusOK, nil
}

func (a *API) SubmitRating(ctx *gin.Context, ref string, body types.SubmitRatingRequestBody) (*models.Rating, int, error) {
	actor := ActorFrom(ctx)
	if actor.ID == nil {
		err := errs.E(errs.InvalidInput, "SubmitRating", "customer is required")
		return nil, http.StatusBadRequest, err
	}
	rating, err := a.Machine.SubmitRating(ctx, ref, *actor.ID, body.Score, body.Comment)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return rating, http.StatusCreated, nil
}

// SettleBooking retries settlement of a completed booking by hand, awarding
// any loyalty points that were missed at completion first.
func (a *API) SettleBooking(ctx *gin.Context, ref string) (*earnings.Details, int, error) {
	booking, err := a.Machine.GetBooking(ctx, ref)
	if err != nil {
		return nil, StatusFor(err), err
	}
	if booking.StatusCode != types.STATUS_COMPLETED {
		err := errs.E(errs.InvalidTransition, "SettleBooking", "booking %s is %s, not completed", booking.Code, booking.StatusCode)
		return nil, http.StatusUnprocessableEntity, err
	}
	settled, err := a.Earnings.Retry(ctx, booking.ID)
	if err != nil {
		return nil, StatusFor(err), err
	}
	if !settled {
		err := errs.E(errs.PrerequisiteMissing, "SettleBooking", "booking %s cannot be settled yet", booking.Code)
		return nil, http.StatusPreconditionFailed, err
	}
	details, err := a.Earnings.DetailsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return details, http.StatusOK, nil
}
