package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type Metadata map[string]any

type BookingRefParams struct {
	Ref string `uri:"ref" binding:"required"`
}

type EarningIdentifierParams struct {
	Identifier string `uri:"identifier" binding:"required"`
}

type UpdateBookingStatusRequestBody struct {
	Status          string   `json:"status" binding:"required"`
	Action          string   `json:"action,omitempty" binding:"omitempty,oneof=transition decline"`
	Reason          string   `json:"reason,omitempty"`
	ProposedDate    string   `json:"proposedDate,omitempty"`
	ProposedTime    string   `json:"proposedTime,omitempty"`
	ReasonID        string   `json:"reasonId,omitempty"`
	Metadata        Metadata `json:"metadata,omitempty"`
	ArrivalProofURL *string  `json:"arrivalProofUrl,omitempty" binding:"omitempty,url"`
	HousemaidID     *uint    `json:"housemaidId,omitempty"`
	HousemaidName   *string  `json:"housemaidName,omitempty"`
}

type AdjustmentRequestBody struct {
	Kind  string  `json:"kind" binding:"required,oneof=discount waiver surcharge"`
	Mode  string  `json:"mode" binding:"required,oneof=fixed percent"`
	Value float64 `json:"value" binding:"gte=0"`
	Label string  `json:"label,omitempty"`
}

type QuoteRequestBody struct {
	Location    string                  `json:"location" binding:"required"`
	Tier        string                  `json:"tier" binding:"required"`
	Duration    string                  `json:"duration" binding:"required,oneof=half_day whole_day"`
	BookingType string                  `json:"bookingType" binding:"required,bookingtype"`
	Date        string                  `json:"date" binding:"required,servicedate"`
	CustomerID  *uint                   `json:"customerId,omitempty"`
	Adjustments []AdjustmentRequestBody `json:"adjustments,omitempty" binding:"omitempty,dive"`
}

type CreateBookingRequestBody struct {
	QuoteRequestBody
	CustomerID     uint   `json:"customerId,omitempty"`
	HousemaidID    *uint  `json:"housemaidId,omitempty"`
	TimeStart      string `json:"timeStart" binding:"required"`
	TimeEnd        string `json:"timeEnd" binding:"required"`
	PaymentMethod  string `json:"paymentMethod" binding:"required"`
	SettlementType string `json:"settlementType" binding:"required,oneof=central direct_to_housemaid"`
	Confirmed      bool   `json:"confirmed,omitempty"`
}

type TransportationLegRequestBody struct {
	LegType    string  `json:"legType" binding:"required,oneof=TO_CLIENT RETURN"`
	Mode       string  `json:"mode" binding:"required,transitmode"`
	Cost       float64 `json:"cost"`
	ReceiptURL *string `json:"receiptUrl,omitempty"`
}

type ReplaceTransportationRequestBody struct {
	Legs []TransportationLegRequestBody `json:"legs" binding:"required,min=1,dive"`
}

type SubmitRatingRequestBody struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)
