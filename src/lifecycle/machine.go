package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"maidops/src/config"
	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/pricing"
	"maidops/src/types"
)

const StatusChangedEvent = "booking-status-changed"

type Store interface {
	ResolveBooking(ctx context.Context, ref string) (*models.Booking, error)
	SaveTransition(ctx context.Context, booking *models.Booking, expectedVersion int, entry *models.ActivityLog) error
	CreateBooking(ctx context.Context, booking *models.Booking, payment *models.Payment, entry *models.ActivityLog) error
	ReplaceTransportation(ctx context.Context, bookingID uint, housemaidID *uint, legs []models.TransportationLeg) (*models.TransportationDetails, error)
	CreateRating(ctx context.Context, rating *models.Rating) error
	ListActivity(ctx context.Context, bookingID uint) ([]models.ActivityLog, error)
}

type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.Quote, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload map[string]any) error
}

// Publishers sends every event to each publisher in turn. A failing
// publisher does not stop the rest.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	var failures []error
	for _, p := range ps {
		if err := p.Publish(ctx, topic, key, payload); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

type PointsAwarder interface {
	AwardPoints(ctx context.Context, bookingID uint) (int, error)
}

type Settler interface {
	Settle(ctx context.Context, bookingID uint) (bool, error)
}

type Action string

const (
	ACTION_TRANSITION Action = "transition"
	ACTION_DECLINE    Action = "decline"
)

type Actor struct {
	ID   *uint
	Type types.ActorType
	Name string
}

type TransitionRequest struct {
	Action          Action
	Target          string
	Reason          string
	ProposedDate    string
	ProposedTime    string
	ReasonID        string
	Metadata        types.Metadata
	ArrivalProofURL *string
	HousemaidID     *uint
	HousemaidName   *string
	Actor           Actor
}

// action resolves an omitted action: moving to pending_review with a reason
// is a decline.
func (r TransitionRequest) action(target types.StatusCode) Action {
	if r.Action != "" {
		return r.Action
	}
	if target == types.STATUS_PENDING_REVIEW && strings.TrimSpace(r.Reason) != "" {
		return ACTION_DECLINE
	}
	return ACTION_TRANSITION
}

type Machine struct {
	store     Store
	quoter    Quoter
	publisher EventPublisher
	topic     string
	points    PointsAwarder
	settler   Settler
	now       func() time.Time
}

type Option func(*Machine)

func WithQuoter(q Quoter) Option {
	return func(m *Machine) { m.quoter = q }
}

// WithPublisher adds an event sink. Repeated use fans events out to all of
// them; the last non-empty topic wins.
func WithPublisher(p EventPublisher, topic string) Option {
	return func(m *Machine) {
		switch existing := m.publisher.(type) {
		case nil:
			m.publisher = p
		case Publishers:
			m.publisher = append(existing, p)
		default:
			m.publisher = Publishers{existing, p}
		}
		if topic != "" {
			m.topic = topic
		}
	}
}

// WithCompletionHooks registers the loyalty and settlement steps run after a
// booking completes. Points are awarded first so the earning can snapshot them.
func WithCompletionHooks(points PointsAwarder, settler Settler) Option {
	return func(m *Machine) {
		m.points = points
		m.settler = settler
	}
}

func NewMachine(store Store, opts ...Option) *Machine {
	m := &Machine{store: store, topic: StatusChangedEvent, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyTransition validates and applies a status change to the booking
// identified by ref (code or numeric id).
func (m *Machine) ApplyTransition(ctx context.Context, ref string, req TransitionRequest) (*models.Booking, error) {
	target, err := types.ParseStatusCode(strings.TrimSpace(req.Target))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidTransition, "ApplyTransition", err)
	}
	booking, err := m.store.ResolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}

	from := booking.StatusCode
	action := req.action(target)
	if err := Authorize(booking, target, action, req); err != nil {
		return nil, err
	}
	now := m.now()
	var entry *models.ActivityLog
	switch action {
	case ACTION_DECLINE:
		entry, err = m.decline(booking, target, req, now)
	case ACTION_TRANSITION:
		entry, err = m.transition(booking, target, req, now)
	default:
		err = errs.E(errs.InvalidInput, "ApplyTransition", "unknown action %q", action)
	}
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveTransition(ctx, booking, booking.Version, entry); err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] Booking %s: %s -> %s (%s)\n", booking.Code, from, target, action)

	hookCtx := context.WithoutCancel(ctx)
	m.publish(hookCtx, booking, from, action)
	if target == types.STATUS_COMPLETED {
		m.complete(hookCtx, booking)
	}
	return booking, nil
}

func (m *Machine) decline(booking *models.Booking, target types.StatusCode, req TransitionRequest, now time.Time) (*models.ActivityLog, error) {
	if booking.StatusCode.IsTerminal() {
		return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "booking is already %s", booking.StatusCode)
	}
	if target != types.STATUS_PENDING_REVIEW {
		return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "a decline returns the booking to %s, not %s", types.STATUS_PENDING_REVIEW, target)
	}
	if !CanDecline(booking.StatusCode) {
		return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "cannot decline a booking that is %s", booking.StatusCode)
	}
	code := reasonCode(req)
	if code == "" {
		return nil, errs.E(errs.InvalidInput, "ApplyTransition", "a decline requires a reason")
	}
	metadata, err := mergeMetadata(booking.Metadata, req.Metadata)
	if err != nil {
		return nil, err
	}

	substatus := types.SUBSTATUS_REASSIGNMENT_REQUIRED
	booking.StatusCode = types.STATUS_PENDING_REVIEW
	booking.SubstatusCode = &substatus
	booking.DeclinedAt = &now
	booking.DeclineReasonCode = &code
	booking.HousemaidID = nil
	booking.HousemaidName = nil
	booking.Metadata = metadata

	return m.activity(booking, true, req, map[string]any{"reason": code}), nil
}

func (m *Machine) transition(booking *models.Booking, target types.StatusCode, req TransitionRequest, now time.Time) (*models.ActivityLog, error) {
	from := booking.StatusCode
	if from.IsTerminal() {
		return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "booking is already %s", from)
	}
	if !CanTransition(from, target) {
		return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "cannot move booking from %s to %s", from, target)
	}
	details := map[string]any{"from": from.String()}
	assigned, err := assign(booking, target, req)
	if err != nil {
		return nil, err
	}
	if assigned {
		details["housemaidId"] = *booking.HousemaidID
	}

	switch target {
	case types.STATUS_ACCEPTED, types.STATUS_DISPATCHED:
		if booking.HousemaidID == nil {
			return nil, errs.ErrNoHousemaid
		}
	case types.STATUS_ARRIVED:
		if !booking.Transportation.HasLeg(types.LEG_TO_CLIENT) {
			return nil, errs.E(errs.PrerequisiteMissing, "ApplyTransition", "a %s transportation leg is required before arrival", types.LEG_TO_CLIENT)
		}
		proof := booking.ArrivalProofURL
		if req.ArrivalProofURL != nil && strings.TrimSpace(*req.ArrivalProofURL) != "" {
			proof = req.ArrivalProofURL
		}
		if proof == nil || strings.TrimSpace(*proof) == "" {
			return nil, errs.E(errs.PrerequisiteMissing, "ApplyTransition", "arrival proof is required")
		}
		booking.ArrivalProofURL = proof
	case types.STATUS_COMPLETED:
		if !booking.Transportation.HasLeg(types.LEG_RETURN) {
			return nil, errs.E(errs.PrerequisiteMissing, "ApplyTransition", "a %s transportation leg is required before completion", types.LEG_RETURN)
		}
	case types.STATUS_RESCHEDULED:
		if !reschedulable[from] {
			return nil, errs.E(errs.InvalidTransition, "ApplyTransition", "cannot reschedule a booking that is %s", from)
		}
		proposed, err := proposedSchedule(req, now)
		if err != nil {
			return nil, err
		}
		code := reasonCode(req)
		substatus := types.SUBSTATUS_DUE_TO_HOUSEMAID
		if req.Actor.Type == types.ACTOR_CUSTOMER {
			substatus = types.SUBSTATUS_DUE_TO_CUSTOMER
		}
		booking.SubstatusCode = &substatus
		booking.RescheduleProposedAt = &proposed
		booking.RescheduleReasonCode = &code
		booking.RescheduleRequestedAt = &now
		booking.RescheduleRequestedBy = req.Actor.ID
		booking.RescheduleCount++
		details["proposedAt"] = proposed.Format(config.TIME_PARSE_FORMAT)
		details["reason"] = code
	}

	if from == types.STATUS_RESCHEDULED && target != types.STATUS_CANCELLED {
		approveReschedule(booking, req.Actor, now)
	}

	metadata, err := mergeMetadata(booking.Metadata, req.Metadata)
	if err != nil {
		return nil, err
	}
	booking.Metadata = metadata
	booking.StatusCode = target
	stampPhase(booking, target, now)
	if booking.SubstatusCode != nil && !booking.SubstatusCode.ValidUnder(target) {
		booking.SubstatusCode = nil
	}
	return m.activity(booking, false, req, details), nil
}

// assign applies a housemaid chosen by an admin, or lets a housemaid claim
// an unassigned booking by accepting it.
func assign(booking *models.Booking, target types.StatusCode, req TransitionRequest) (bool, error) {
	if req.HousemaidID == nil {
		if req.HousemaidName != nil {
			return false, errs.E(errs.InvalidInput, "ApplyTransition", "housemaidName requires housemaidId")
		}
		if !req.Actor.claims(booking, target) {
			return false, nil
		}
		id := *req.Actor.ID
		booking.HousemaidID = &id
		if name := strings.TrimSpace(req.Actor.Name); name != "" {
			booking.HousemaidName = &name
		}
		return true, nil
	}
	if target != types.STATUS_ACCEPTED && target != types.STATUS_DISPATCHED {
		return false, errs.E(errs.InvalidInput, "ApplyTransition", "a housemaid can only be assigned when moving to %s or %s", types.STATUS_ACCEPTED, types.STATUS_DISPATCHED)
	}
	if *req.HousemaidID == 0 {
		return false, errs.E(errs.InvalidInput, "ApplyTransition", "invalid housemaidId")
	}
	if booking.HousemaidID == nil || *booking.HousemaidID != *req.HousemaidID {
		booking.HousemaidName = nil
	}
	id := *req.HousemaidID
	booking.HousemaidID = &id
	if req.HousemaidName != nil && strings.TrimSpace(*req.HousemaidName) != "" {
		name := strings.TrimSpace(*req.HousemaidName)
		booking.HousemaidName = &name
	}
	return true, nil
}

func stampPhase(booking *models.Booking, status types.StatusCode, now time.Time) {
	switch status {
	case types.STATUS_ACCEPTED:
		booking.AcceptedAt = &now
	case types.STATUS_DISPATCHED:
		booking.DispatchedAt = &now
	case types.STATUS_ON_THE_WAY:
		booking.DepartedAt = &now
	case types.STATUS_ARRIVED:
		booking.ArrivedAt = &now
	case types.STATUS_IN_PROGRESS:
		booking.CheckInTime = &now
	case types.STATUS_COMPLETED:
		booking.CompletedAt = &now
		booking.CheckOutTime = &now
	case types.STATUS_CANCELLED:
		booking.CancelledAt = &now
	}
}

// approveReschedule moves the booking onto its proposed schedule, keeping
// the original service length.
func approveReschedule(booking *models.Booking, actor Actor, now time.Time) {
	booking.RescheduleApprovedAt = &now
	booking.RescheduleApprovedBy = actor.ID
	if booking.RescheduleProposedAt == nil {
		return
	}
	loc := config.Location()
	proposed := booking.RescheduleProposedAt.In(loc)
	start, errStart := time.Parse(config.CLOCK_FORMAT, booking.TimeStart)
	end, errEnd := time.Parse(config.CLOCK_FORMAT, booking.TimeEnd)
	booking.ScheduledDate = time.Date(proposed.Year(), proposed.Month(), proposed.Day(), 0, 0, 0, 0, time.UTC)
	booking.TimeStart = proposed.Format(config.CLOCK_FORMAT)
	if errStart == nil && errEnd == nil && end.After(start) {
		booking.TimeEnd = proposed.Add(end.Sub(start)).Format(config.CLOCK_FORMAT)
	}
}

func proposedSchedule(req TransitionRequest, now time.Time) (time.Time, error) {
	date := strings.TrimSpace(req.ProposedDate)
	clock := strings.TrimSpace(req.ProposedTime)
	if date == "" || clock == "" || reasonCode(req) == "" {
		return time.Time{}, errs.E(errs.InvalidInput, "ApplyTransition", "proposed date, time and reason are required to reschedule")
	}
	proposed, err := time.ParseInLocation(config.DATE_FORMAT+" "+config.CLOCK_FORMAT, date+" "+clock, config.Location())
	if err != nil {
		return time.Time{}, errs.E(errs.InvalidInput, "ApplyTransition", "invalid proposed schedule %q %q", date, clock)
	}
	if !proposed.After(now) {
		return time.Time{}, errs.E(errs.InvalidInput, "ApplyTransition", "proposed schedule %s %s is in the past", date, clock)
	}
	return proposed, nil
}

func reasonCode(req TransitionRequest) string {
	if id := strings.TrimSpace(req.ReasonID); id != "" {
		return id
	}
	return strings.TrimSpace(req.Reason)
}

func mergeMetadata(existing *string, incoming types.Metadata) (*string, error) {
	if len(incoming) == 0 {
		return existing, nil
	}
	merged := map[string]any{}
	if existing != nil && *existing != "" {
		if err := json.Unmarshal([]byte(*existing), &merged); err != nil {
			log.Printf("[lifecycle] Discarding unreadable booking metadata: %s\n", err.Error())
			merged = map[string]any{}
		}
	}
	for k, v := range incoming {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, "ApplyTransition", err)
	}
	out := string(b)
	return &out, nil
}

func (m *Machine) activity(booking *models.Booking, declined bool, req TransitionRequest, details map[string]any) *models.ActivityLog {
	text := activityFor(booking.StatusCode, declined)
	actorType := req.Actor.Type
	if actorType == "" {
		actorType = types.ACTOR_SYSTEM
	}
	entry := &models.ActivityLog{
		BookingID:  booking.ID,
		StatusCode: booking.StatusCode,
		Title:      text.Title,
		Message:    text.Message,
		ActorID:    req.Actor.ID,
		ActorType:  actorType,
		CreatedAt:  m.now(),
	}
	for k, v := range req.Metadata {
		if _, ok := details[k]; !ok {
			details[k] = v
		}
	}
	if b, err := json.Marshal(details); err == nil {
		s := string(b)
		entry.Metadata = &s
	}
	return entry
}

func (m *Machine) publish(ctx context.Context, booking *models.Booking, from types.StatusCode, action Action) {
	if m.publisher == nil {
		return
	}
	payload := map[string]any{
		"event":      m.topic,
		"bookingId":  booking.ID,
		"code":       booking.Code,
		"from":       from,
		"to":         booking.StatusCode,
		"action":     action,
		"version":    booking.Version,
		"occurredAt": m.now().Format(time.RFC3339),
	}
	if booking.SubstatusCode != nil {
		payload["substatus"] = *booking.SubstatusCode
	}
	if booking.HousemaidID != nil {
		payload["housemaidId"] = *booking.HousemaidID
	}
	if err := m.publisher.Publish(ctx, m.topic, booking.Code, payload); err != nil {
		log.Printf("[lifecycle] Error publishing status event for booking %s: %s\n", booking.Code, err.Error())
	}
}

// complete runs the post-completion hooks. Their failures are logged and
// never undo the transition.
func (m *Machine) complete(ctx context.Context, booking *models.Booking) {
	if m.points != nil {
		points, err := m.points.AwardPoints(ctx, booking.ID)
		if err != nil {
			log.Printf("[lifecycle] Error awarding points for booking %s: %s\n", booking.Code, err.Error())
		} else if points > 0 {
			booking.AsensoPointsAwarded = &points
		}
	}
	if m.settler != nil {
		if _, err := m.settler.Settle(ctx, booking.ID); err != nil {
			log.Printf("[lifecycle] Error settling booking %s: %s\n", booking.Code, err.Error())
		}
	}
}
