package models

import (
	"maidops/src/types"
	"time"
)

// ServiceSKU is a flat client price for trial and one-time bookings.
type ServiceSKU struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	LocationCode    string             `gorm:"size:32;uniqueIndex:idx_sku_key" json:"location_code"`
	TierCode        string             `gorm:"size:32;uniqueIndex:idx_sku_key" json:"tier_code"`
	DurationCode    types.DurationCode `gorm:"size:16;uniqueIndex:idx_sku_key" json:"duration_code"`
	BookingTypeCode types.BookingType  `gorm:"size:32;uniqueIndex:idx_sku_key" json:"booking_type_code"`
	Price           float64            `gorm:"type:decimal(12,2)" json:"price"`
	Currency        string             `gorm:"size:3;default:'PHP'" json:"currency"`

	types.Timestamps
}

// RateCard prices flexible-membership bookings.
type RateCard struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	LocationCode string             `gorm:"size:32;uniqueIndex:idx_rate_card_key" json:"location_code"`
	TierCode     string             `gorm:"size:32;uniqueIndex:idx_rate_card_key" json:"tier_code"`
	DurationCode types.DurationCode `gorm:"size:16;uniqueIndex:idx_rate_card_key" json:"duration_code"`
	WeekdayRate  float64            `gorm:"type:decimal(12,2)" json:"weekday_rate"`
	SurgeAmount  float64            `gorm:"type:decimal(12,2)" json:"surge_amount"`
	Currency     string             `gorm:"size:3;default:'PHP'" json:"currency"`

	types.Timestamps
}

type Membership struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	CustomerID   uint       `gorm:"index" json:"customer_id"`
	LocationCode string     `gorm:"size:32" json:"location_code"`
	TierCode     string     `gorm:"size:32" json:"tier_code"`
	Status       string     `gorm:"size:16;default:'active'" json:"status"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`

	types.Timestamps
}

type Holiday struct {
	ID   uint      `gorm:"primarykey" json:"id"`
	Date time.Time `gorm:"type:date;uniqueIndex" json:"date"`
	Name string    `json:"name"`
}
