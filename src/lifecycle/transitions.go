package lifecycle

import "maidops/src/types"

// transitions lists, per source status, every status reachable by a plain
// transition. Declines are handled separately.
var transitions = map[types.StatusCode][]types.StatusCode{
	types.STATUS_NEEDS_CONFIRMATION: {types.STATUS_PENDING_REVIEW, types.STATUS_CANCELLED},
	types.STATUS_PENDING_REVIEW:     {types.STATUS_ACCEPTED, types.STATUS_RESCHEDULED, types.STATUS_CANCELLED},
	types.STATUS_ACCEPTED:           {types.STATUS_DISPATCHED, types.STATUS_RESCHEDULED, types.STATUS_CANCELLED},
	types.STATUS_DISPATCHED:         {types.STATUS_ON_THE_WAY, types.STATUS_RESCHEDULED, types.STATUS_CANCELLED},
	types.STATUS_ON_THE_WAY:         {types.STATUS_ARRIVED, types.STATUS_CANCELLED},
	types.STATUS_ARRIVED:            {types.STATUS_IN_PROGRESS, types.STATUS_CANCELLED},
	types.STATUS_IN_PROGRESS:        {types.STATUS_COMPLETED, types.STATUS_CANCELLED},
	types.STATUS_RESCHEDULED:        {types.STATUS_PENDING_REVIEW, types.STATUS_ACCEPTED, types.STATUS_CANCELLED},
	types.STATUS_COMPLETED:          {},
	types.STATUS_CANCELLED:          {},
}

// a housemaid may hand a booking back while it has not left for the client
var declinable = map[types.StatusCode]bool{
	types.STATUS_PENDING_REVIEW: true,
	types.STATUS_ACCEPTED:       true,
	types.STATUS_DISPATCHED:     true,
}

var reschedulable = declinable

func CanTransition(from, to types.StatusCode) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanDecline(from types.StatusCode) bool {
	return declinable[from]
}

type activityText struct {
	Title   string
	Message string
}

var activityCopy = map[types.StatusCode]activityText{
	types.STATUS_NEEDS_CONFIRMATION: {"Booking Created", "The booking was created and is waiting for confirmation."},
	types.STATUS_PENDING_REVIEW:     {"Booking Submitted", "The booking is pending review."},
	types.STATUS_ACCEPTED:           {"Booking Accepted", "The housemaid accepted the booking."},
	types.STATUS_DISPATCHED:         {"Housemaid Dispatched", "The housemaid has been dispatched."},
	types.STATUS_ON_THE_WAY:         {"On the Way", "The housemaid is on the way to the client."},
	types.STATUS_ARRIVED:            {"Housemaid Arrived", "The housemaid arrived at the client's location."},
	types.STATUS_IN_PROGRESS:        {"Service Started", "The cleaning service is in progress."},
	types.STATUS_COMPLETED:          {"Service Completed", "The cleaning service has been completed."},
	types.STATUS_RESCHEDULED:        {"Reschedule Requested", "A new schedule was proposed for the booking."},
	types.STATUS_CANCELLED:          {"Booking Cancelled", "The booking has been cancelled."},
}

var declineCopy = activityText{"Booking Declined", "The assigned housemaid declined the booking. A replacement will be assigned."}

func activityFor(status types.StatusCode, declined bool) activityText {
	if declined {
		return declineCopy
	}
	if text, ok := activityCopy[status]; ok {
		return text
	}
	return activityText{Title: "Status Updated", Message: "The booking status changed to " + status.String() + "."}
}
