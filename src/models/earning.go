package models

import (
	"maidops/src/types"
	"time"
)

// Earning is the single settlement record of a completed booking.
type Earning struct {
	ID                   uint                `gorm:"primarykey" json:"id"`
	ReceiptNumber        string              `gorm:"uniqueIndex;size:32" json:"receipt_number"`
	HousemaidID          uint                `gorm:"index" json:"housemaid_id"`
	BookingID            uint                `gorm:"uniqueIndex" json:"booking_id"`
	PaymentID            uint                `json:"payment_id"`
	BaseAmount           float64             `gorm:"type:decimal(12,2)" json:"base_amount"`
	SurgeAmount          float64             `gorm:"type:decimal(12,2)" json:"surge_amount"`
	ServiceAmount        float64             `gorm:"type:decimal(12,2)" json:"service_amount"`
	TransportationAmount float64             `gorm:"type:decimal(12,2)" json:"transportation_amount"`
	TotalAmount          float64             `gorm:"type:decimal(12,2)" json:"total_amount"`
	PointsEarned         int                 `json:"points_earned"`
	PaymentMethodCode    string              `gorm:"size:32" json:"payment_method_code"`
	PaymentStatusCode    types.PaymentStatus `gorm:"size:32" json:"payment_status_code"`
	TransactionDate      time.Time           `gorm:"index" json:"transaction_date"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`

	types.Timestamps
}

type Housemaid struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `json:"name"`
	AsensoPoints int    `gorm:"not null;default:0" json:"asenso_points"`

	types.Timestamps
}

type AsensoTransaction struct {
	ID              uint                        `gorm:"primarykey" json:"id"`
	HousemaidID     uint                        `gorm:"index" json:"housemaid_id"`
	BookingID       *uint                       `gorm:"uniqueIndex:idx_asenso_booking_type" json:"booking_id"`
	Points          int                         `json:"points"`
	TransactionType types.AsensoTransactionType `gorm:"size:32;uniqueIndex:idx_asenso_booking_type" json:"transaction_type"`
	Note            string                      `json:"note,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}
