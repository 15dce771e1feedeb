package types

import "fmt"

type StatusCode string

const (
	STATUS_NEEDS_CONFIRMATION StatusCode = "needs_confirmation"
	STATUS_PENDING_REVIEW     StatusCode = "pending_review"
	STATUS_ACCEPTED           StatusCode = "accepted"
	STATUS_DISPATCHED         StatusCode = "dispatched"
	STATUS_ON_THE_WAY         StatusCode = "on_the_way"
	STATUS_ARRIVED            StatusCode = "arrived"
	STATUS_IN_PROGRESS        StatusCode = "in_progress"
	STATUS_COMPLETED          StatusCode = "completed"
	STATUS_RESCHEDULED        StatusCode = "rescheduled"
	STATUS_CANCELLED          StatusCode = "cancelled"
)

var statusCodes = map[StatusCode]struct{}{
	STATUS_NEEDS_CONFIRMATION: {},
	STATUS_PENDING_REVIEW:     {},
	STATUS_ACCEPTED:           {},
	STATUS_DISPATCHED:         {},
	STATUS_ON_THE_WAY:         {},
	STATUS_ARRIVED:            {},
	STATUS_IN_PROGRESS:        {},
	STATUS_COMPLETED:          {},
	STATUS_RESCHEDULED:        {},
	STATUS_CANCELLED:          {},
}

func (s StatusCode) IsValid() bool {
	_, ok := statusCodes[s]
	return ok
}

func (s StatusCode) IsTerminal() bool {
	return s == STATUS_COMPLETED || s == STATUS_CANCELLED
}

func (s StatusCode) String() string {
	return string(s)
}

func ParseStatusCode(s string) (StatusCode, error) {
	status := StatusCode(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unrecognized status code: %q", s)
	}
	return status, nil
}

type SubstatusCode string

const (
	SUBSTATUS_REASSIGNMENT_REQUIRED SubstatusCode = "reassignment_required"
	SUBSTATUS_DUE_TO_HOUSEMAID      SubstatusCode = "due_to_housemaid"
	SUBSTATUS_DUE_TO_CUSTOMER       SubstatusCode = "due_to_customer"
)

// substatusParents lists the statuses under which a substatus is meaningful.
var substatusParents = map[SubstatusCode]StatusCode{
	SUBSTATUS_REASSIGNMENT_REQUIRED: STATUS_PENDING_REVIEW,
	SUBSTATUS_DUE_TO_HOUSEMAID:      STATUS_RESCHEDULED,
	SUBSTATUS_DUE_TO_CUSTOMER:       STATUS_RESCHEDULED,
}

func (s SubstatusCode) ValidUnder(parent StatusCode) bool {
	p, ok := substatusParents[s]
	return ok && p == parent
}

type BookingType string

const (
	BOOKING_TYPE_TRIAL    BookingType = "trial"
	BOOKING_TYPE_ONE_TIME BookingType = "one_time"
	BOOKING_TYPE_FLEXIBLE BookingType = "flexible"
)

func (b BookingType) IsValid() bool {
	switch b {
	case BOOKING_TYPE_TRIAL, BOOKING_TYPE_ONE_TIME, BOOKING_TYPE_FLEXIBLE:
		return true
	}
	return false
}

type DurationCode string

const (
	DURATION_HALF_DAY  DurationCode = "half_day"
	DURATION_WHOLE_DAY DurationCode = "whole_day"
)

type PaymentStatus string

const (
	PAYMENT_AWAITING PaymentStatus = "awaiting_payment"
	PAYMENT_PARTIAL  PaymentStatus = "partially_paid"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type SettlementType string

const (
	SETTLEMENT_CENTRAL             SettlementType = "central"
	SETTLEMENT_DIRECT_TO_HOUSEMAID SettlementType = "direct_to_housemaid"
)

type LegType string

const (
	LEG_TO_CLIENT LegType = "TO_CLIENT"
	LEG_RETURN    LegType = "RETURN"
)

type TransitMode string

const (
	TRANSIT_WALK            TransitMode = "WALK"
	TRANSIT_JEEPNEY         TransitMode = "JEEPNEY"
	TRANSIT_BUS             TransitMode = "BUS"
	TRANSIT_TRAIN           TransitMode = "TRAIN"
	TRANSIT_TRICYCLE        TransitMode = "TRICYCLE"
	TRANSIT_PEDICAB         TransitMode = "PEDICAB"
	TRANSIT_MOTORCYCLE_TAXI TransitMode = "MOTORCYCLE_TAXI"
	TRANSIT_TAXI            TransitMode = "TAXI"
	TRANSIT_RIDE_HAILING    TransitMode = "RIDE_HAILING"
	TRANSIT_FERRY           TransitMode = "FERRY"
	TRANSIT_OTHER           TransitMode = "OTHER"
)

var transitModes = map[TransitMode]struct{}{
	TRANSIT_WALK:            {},
	TRANSIT_JEEPNEY:         {},
	TRANSIT_BUS:             {},
	TRANSIT_TRAIN:           {},
	TRANSIT_TRICYCLE:        {},
	TRANSIT_PEDICAB:         {},
	TRANSIT_MOTORCYCLE_TAXI: {},
	TRANSIT_TAXI:            {},
	TRANSIT_RIDE_HAILING:    {},
	TRANSIT_FERRY:           {},
	TRANSIT_OTHER:           {},
}

func (m TransitMode) IsValid() bool {
	_, ok := transitModes[m]
	return ok
}

type AsensoTransactionType string

const (
	ASENSO_EARN_BOOKING AsensoTransactionType = "earn-booking"
)

type ActorType string

const (
	ACTOR_HOUSEMAID ActorType = "housemaid"
	ACTOR_CUSTOMER  ActorType = "customer"
	ACTOR_ADMIN     ActorType = "admin"
	ACTOR_SYSTEM    ActorType = "system"
)

func (a ActorType) IsValid() bool {
	switch a {
	case ACTOR_HOUSEMAID, ACTOR_CUSTOMER, ACTOR_ADMIN, ACTOR_SYSTEM:
		return true
	}
	return false
}
