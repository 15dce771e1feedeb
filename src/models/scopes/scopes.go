package scopes

import (
	"time"

	"gorm.io/gorm"
)

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithBookingID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("booking_id = ?", id)
	}
}

func WithHousemaidID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("housemaid_id = ?", id)
	}
}

func TransactedBetween(from, to time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("transaction_date >= ? AND transaction_date < ?", from, to)
	}
}
