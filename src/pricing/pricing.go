package pricing

import (
	"context"
	"log"
	"math"
	"time"

	"maidops/src/config"
	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"
)

const DefaultCurrency = "PHP"

// Catalog is the read-only rate data the engine prices against.
type Catalog interface {
	FindSKU(ctx context.Context, location, tier string, duration types.DurationCode, bookingType types.BookingType) (*models.ServiceSKU, error)
	FindRateCard(ctx context.Context, location, tier string, duration types.DurationCode) (*models.RateCard, error)
	HasActiveMembership(ctx context.Context, customerID uint, location, tier string, on time.Time) (bool, error)
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type AdjustmentKind string

const (
	ADJUSTMENT_DISCOUNT  AdjustmentKind = "discount"
	ADJUSTMENT_WAIVER    AdjustmentKind = "waiver"
	ADJUSTMENT_SURCHARGE AdjustmentKind = "surcharge"
)

type AdjustmentMode string

const (
	MODE_FIXED   AdjustmentMode = "fixed"
	MODE_PERCENT AdjustmentMode = "percent"
)

type Adjustment struct {
	Kind  AdjustmentKind `json:"kind"`
	Mode  AdjustmentMode `json:"mode"`
	Value float64        `json:"value"`
	Label string         `json:"label,omitempty"`
}

type AppliedAdjustment struct {
	Adjustment
	Amount float64 `json:"amount"`
}

type QuoteRequest struct {
	Location    string
	Tier        string
	Duration    types.DurationCode
	BookingType types.BookingType
	Date        time.Time
	CustomerID  *uint
	Adjustments []Adjustment
}

type Quote struct {
	FinalPrice         float64             `json:"finalPrice"`
	BasePrice          float64             `json:"basePrice"`
	SurgeAmount        float64             `json:"surgeAmount"`
	Currency           string              `json:"currency"`
	IsWeekend          bool                `json:"isWeekend"`
	IsHoliday          bool                `json:"isHoliday"`
	AppliedAdjustments []AppliedAdjustment `json:"appliedAdjustments"`
}

type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Quote prices a booking. Trial and one-time bookings use a flat SKU price;
// flexible bookings need an active membership and are priced from the rate
// card, with its surge added on weekends and holidays.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.Duration != types.DURATION_HALF_DAY && req.Duration != types.DURATION_WHOLE_DAY {
		return nil, errs.E(errs.InvalidInput, "Quote", "unknown duration %q", req.Duration)
	}
	if !req.BookingType.IsValid() {
		return nil, errs.E(errs.InvalidInput, "Quote", "unknown booking type %q", req.BookingType)
	}
	day := req.Date.In(config.Location())
	quote := Quote{
		Currency:           DefaultCurrency,
		IsWeekend:          IsWeekend(day),
		AppliedAdjustments: []AppliedAdjustment{},
	}

	switch req.BookingType {
	case types.BOOKING_TYPE_TRIAL, types.BOOKING_TYPE_ONE_TIME:
		sku, err := e.catalog.FindSKU(ctx, req.Location, req.Tier, req.Duration, req.BookingType)
		if err != nil {
			return nil, pricingErr(err)
		}
		quote.BasePrice = sku.Price
		if sku.Currency != "" {
			quote.Currency = sku.Currency
		}
	case types.BOOKING_TYPE_FLEXIBLE:
		if req.CustomerID == nil {
			return nil, errs.ErrMembershipRequired
		}
		ok, err := e.catalog.HasActiveMembership(ctx, *req.CustomerID, req.Location, req.Tier, day)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.ErrMembershipRequired
		}
		card, err := e.catalog.FindRateCard(ctx, req.Location, req.Tier, req.Duration)
		if err != nil {
			return nil, pricingErr(err)
		}
		holiday, err := e.catalog.IsHoliday(ctx, day)
		if err != nil {
			log.Printf("[pricing] Error checking holiday for %s: %s\n", day.Format(config.DATE_FORMAT), err.Error())
			return nil, err
		}
		quote.IsHoliday = holiday
		quote.BasePrice = card.WeekdayRate
		if quote.IsWeekend || quote.IsHoliday {
			quote.SurgeAmount = card.SurgeAmount
		}
		if card.Currency != "" {
			quote.Currency = card.Currency
		}
	}

	running := quote.BasePrice + quote.SurgeAmount
	for _, adj := range req.Adjustments {
		applied, next, err := apply(adj, running)
		if err != nil {
			return nil, err
		}
		running = next
		quote.AppliedAdjustments = append(quote.AppliedAdjustments, applied)
	}
	quote.BasePrice = RoundCentavos(quote.BasePrice)
	quote.SurgeAmount = RoundCentavos(quote.SurgeAmount)
	quote.FinalPrice = RoundCentavos(math.Max(0, running))
	return &quote, nil
}

// apply runs one adjustment against the running total. The total may dip
// below zero between steps; only the final price is floored.
func apply(adj Adjustment, running float64) (AppliedAdjustment, float64, error) {
	var amount float64
	switch adj.Mode {
	case MODE_FIXED:
		amount = adj.Value
	case MODE_PERCENT:
		amount = math.Max(0, running) * adj.Value / 100
	default:
		return AppliedAdjustment{}, running, errs.E(errs.InvalidInput, "Quote", "unknown adjustment mode %q", adj.Mode)
	}
	if amount < 0 || math.IsNaN(amount) {
		return AppliedAdjustment{}, running, errs.E(errs.InvalidInput, "Quote", "adjustment value must not be negative")
	}
	amount = RoundCentavos(amount)
	switch adj.Kind {
	case ADJUSTMENT_DISCOUNT, ADJUSTMENT_WAIVER:
		running -= amount
	case ADJUSTMENT_SURCHARGE:
		running += amount
	default:
		return AppliedAdjustment{}, running, errs.E(errs.InvalidInput, "Quote", "unknown adjustment kind %q", adj.Kind)
	}
	return AppliedAdjustment{Adjustment: adj, Amount: amount}, running, nil
}

// a missing catalog row is always reported as a pricing gap
func pricingErr(err error) error {
	if errs.Is(err, errs.NotFound) {
		return errs.Wrap(errs.PricingNotFound, "Quote", err)
	}
	return err
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func RoundCentavos(v float64) float64 {
	return math.Round(v*100) / 100
}
