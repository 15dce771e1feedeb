package models

import (
	"maidops/src/types"
	"time"
)

type Booking struct {
	ID            uint                 `gorm:"primarykey" json:"id"`
	Code          string               `gorm:"uniqueIndex;size:32" json:"code"`
	CustomerID    uint                 `gorm:"index" json:"customer_id"`
	HousemaidID   *uint                `gorm:"index" json:"housemaid_id"`
	HousemaidName *string              `json:"housemaid_name"`
	ScheduledDate time.Time            `gorm:"type:date;index" json:"scheduled_date"`
	TimeStart     string               `gorm:"size:5" json:"time_start"`
	TimeEnd       string               `gorm:"size:5" json:"time_end"`
	StatusCode    types.StatusCode     `gorm:"size:32;index;default:'needs_confirmation'" json:"status_code"`
	SubstatusCode *types.SubstatusCode `gorm:"size:32" json:"substatus_code"`

	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	DepartedAt   *time.Time `json:"departed_at,omitempty"`
	ArrivedAt    *time.Time `json:"arrived_at,omitempty"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	CompletedAt  *time.Time `gorm:"index" json:"completed_at,omitempty"`
	DeclinedAt   *time.Time `json:"declined_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	DeclineReasonCode     *string    `json:"decline_reason_code,omitempty"`
	RescheduleRequestedAt *time.Time `json:"reschedule_requested_at,omitempty"`
	RescheduleRequestedBy *uint      `json:"reschedule_requested_by,omitempty"`
	RescheduleReasonCode  *string    `json:"reschedule_reason_code,omitempty"`
	RescheduleProposedAt  *time.Time `json:"reschedule_proposed_at,omitempty"`
	RescheduleApprovedBy  *uint      `json:"reschedule_approved_by,omitempty"`
	RescheduleApprovedAt  *time.Time `json:"reschedule_approved_at,omitempty"`
	RescheduleCount       int        `gorm:"default:0" json:"reschedule_count"`

	QuotedBasePrice float64 `gorm:"type:decimal(12,2)" json:"quoted_base_price"`
	QuotedSurge     float64 `gorm:"type:decimal(12,2)" json:"quoted_surge"`
	QuotedPrice     float64 `gorm:"type:decimal(12,2)" json:"quoted_price"`
	Currency        string  `gorm:"size:3;default:'PHP'" json:"currency"`

	LocationCode    string             `gorm:"size:32" json:"location_code"`
	TierCode        string             `gorm:"size:32" json:"tier_code"`
	BookingTypeCode types.BookingType  `gorm:"size:32" json:"booking_type_code"`
	DurationCode    types.DurationCode `gorm:"size:16" json:"duration_code"`

	ArrivalProofURL     *string `json:"arrival_proof_url,omitempty"`
	AsensoPointsAwarded *int    `json:"asenso_points_awarded"`
	Metadata            *string `json:"metadata,omitempty"`
	Version             int     `gorm:"not null;default:1" json:"version"`

	Payment        *Payment               `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
	Transportation *TransportationDetails `gorm:"foreignKey:BookingID" json:"transportation,omitempty"`
	ActivityLogs   []ActivityLog          `gorm:"foreignKey:BookingID" json:"activity,omitempty"`

	types.Timestamps
}

// ServiceDate returns the scheduled date at midnight in loc.
func (b *Booking) ServiceDate(loc *time.Location) time.Time {
	d := b.ScheduledDate
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

type Payment struct {
	ID                 uint                 `gorm:"primarykey" json:"id"`
	BookingID          uint                 `gorm:"uniqueIndex" json:"booking_id"`
	MethodCode         string               `gorm:"size:32" json:"method_code"`
	StatusCode         types.PaymentStatus  `gorm:"size:32;default:'awaiting_payment'" json:"status_code"`
	SettlementTypeCode types.SettlementType `gorm:"size:32" json:"settlement_type_code"`
	OriginalAmount     float64              `gorm:"type:decimal(12,2)" json:"original_amount"`
	Discount           float64              `gorm:"type:decimal(12,2)" json:"discount"`
	TotalAmount        float64              `gorm:"type:decimal(12,2)" json:"total_amount"`
	AmountPaid         float64              `gorm:"type:decimal(12,2)" json:"amount_paid"`
	Balance            float64              `gorm:"type:decimal(12,2)" json:"balance"`

	types.Timestamps
}

type ActivityLog struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	BookingID  uint             `gorm:"index" json:"booking_id"`
	StatusCode types.StatusCode `gorm:"size:32" json:"status_code"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	ActorID    *uint            `json:"actor_id,omitempty"`
	ActorType  types.ActorType  `gorm:"size:16" json:"actor_type"`
	Metadata   *string          `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

type Rating struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	BookingID   uint   `gorm:"uniqueIndex" json:"booking_id"`
	CustomerID  uint   `json:"customer_id"`
	HousemaidID *uint  `json:"housemaid_id"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`

	types.Timestamps
}
