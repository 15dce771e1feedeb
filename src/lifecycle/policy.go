package lifecycle

import (
	"maidops/src/errs"
	"maidops/src/models"
	"maidops/src/types"
)

// customers may only confirm, reschedule or cancel their own bookings
var customerTargets = map[types.StatusCode]bool{
	types.STATUS_PENDING_REVIEW: true,
	types.STATUS_RESCHEDULED:    true,
	types.STATUS_CANCELLED:      true,
}

func (a Actor) isSystem() bool {
	return a.Type == "" || a.Type == types.ACTOR_SYSTEM
}

// CanSee limits customers and housemaids to their own bookings.
func (a Actor) CanSee(b *models.Booking) bool {
	if a.ID == nil {
		return a.isSystem()
	}
	switch a.Type {
	case types.ACTOR_CUSTOMER:
		return b.CustomerID == *a.ID
	case types.ACTOR_HOUSEMAID:
		return b.HousemaidID != nil && *b.HousemaidID == *a.ID
	}
	return true
}

// claims reports whether a housemaid is picking up an unassigned booking.
func (a Actor) claims(b *models.Booking, target types.StatusCode) bool {
	return a.Type == types.ACTOR_HOUSEMAID && a.ID != nil &&
		b.HousemaidID == nil && target == types.STATUS_ACCEPTED
}

// Authorize checks that the actor may apply the request to the booking.
// Bookings the actor cannot see are reported as missing.
func Authorize(booking *models.Booking, target types.StatusCode, action Action, req TransitionRequest) error {
	actor := req.Actor
	if actor.isSystem() || actor.Type == types.ACTOR_ADMIN {
		return nil
	}
	if !actor.CanSee(booking) && !actor.claims(booking, target) {
		return errs.E(errs.NotFound, "ApplyTransition", "booking %s not found", booking.Code)
	}

	switch actor.Type {
	case types.ACTOR_CUSTOMER:
		if action == ACTION_DECLINE || req.HousemaidID != nil {
			return errs.E(errs.Forbidden, "ApplyTransition", "customers cannot assign or decline housemaids")
		}
		if !customerTargets[target] {
			return errs.E(errs.Forbidden, "ApplyTransition", "customers cannot move a booking to %s", target)
		}
		if target == types.STATUS_PENDING_REVIEW && booking.StatusCode != types.STATUS_NEEDS_CONFIRMATION {
			return errs.E(errs.Forbidden, "ApplyTransition", "customers can only confirm a booking awaiting confirmation")
		}
	case types.ACTOR_HOUSEMAID:
		if target == types.STATUS_CANCELLED {
			return errs.E(errs.Forbidden, "ApplyTransition", "housemaids cannot cancel a booking")
		}
		if req.HousemaidID != nil && *req.HousemaidID != *actor.ID {
			return errs.E(errs.Forbidden, "ApplyTransition", "housemaids can only assign themselves")
		}
		if booking.StatusCode == types.STATUS_NEEDS_CONFIRMATION {
			return errs.E(errs.Forbidden, "ApplyTransition", "only the customer or an admin can confirm a booking")
		}
	default:
		return errs.E(errs.Forbidden, "ApplyTransition", "unknown actor type %q", actor.Type)
	}
	return nil
}
