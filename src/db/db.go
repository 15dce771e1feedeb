package db

import (
	"log"
	"maidops/src/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Open(dsn string) (*gorm.DB, error) {
	_db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB, err := _db.DB()
	if err != nil {
		log.Printf("Error establishing connection to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return _db, nil
}

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.Housemaid{},
		&models.Booking{},
		&models.Payment{},
		&models.TransportationDetails{},
		&models.TransportationLeg{},
		&models.Earning{},
		&models.AsensoTransaction{},
		&models.ActivityLog{},
		&models.Rating{},
		&models.ServiceSKU{},
		&models.RateCard{},
		&models.Membership{},
		&models.Holiday{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		log.Printf("Error migrating database: %s\n", err.Error())
		return err
	}
	return nil
}
