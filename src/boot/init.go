package boot

import (
	"log"
	"time"

	"maidops/src/common"
	"maidops/src/config"
	"maidops/src/db"
	"maidops/src/lib"
	"maidops/src/models"
	"maidops/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reconcileBatch = 100

func InitDb(cfg config.App) *gorm.DB {
	_db, err := db.Open(cfg.GetDSN())
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	if err := db.Migrate(_db); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	year := time.Now().In(config.Location()).Year()
	if err := SeedCatalog(_db, year, year+1); err != nil {
		log.Printf("Error seeding rate tables: %s\n", err.Error())
	}
	return _db
}

var defaultSKUs = []models.ServiceSKU{
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_HALF_DAY, BookingTypeCode: types.BOOKING_TYPE_TRIAL, Price: 699},
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_WHOLE_DAY, BookingTypeCode: types.BOOKING_TYPE_TRIAL, Price: 999},
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_HALF_DAY, BookingTypeCode: types.BOOKING_TYPE_ONE_TIME, Price: 850},
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_WHOLE_DAY, BookingTypeCode: types.BOOKING_TYPE_ONE_TIME, Price: 1200},
	{LocationCode: "CEBU", TierCode: "standard", DurationCode: types.DURATION_HALF_DAY, BookingTypeCode: types.BOOKING_TYPE_ONE_TIME, Price: 780},
	{LocationCode: "CEBU", TierCode: "standard", DurationCode: types.DURATION_WHOLE_DAY, BookingTypeCode: types.BOOKING_TYPE_ONE_TIME, Price: 1100},
}

var defaultRateCards = []models.RateCard{
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_HALF_DAY, WeekdayRate: 650, SurgeAmount: 100},
	{LocationCode: "NCR", TierCode: "standard", DurationCode: types.DURATION_WHOLE_DAY, WeekdayRate: 950, SurgeAmount: 150},
	{LocationCode: "CEBU", TierCode: "standard", DurationCode: types.DURATION_WHOLE_DAY, WeekdayRate: 900, SurgeAmount: 120},
}

// fixed-date regular holidays; movable ones are entered by operations.
var fixedHolidays = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labor Day"},
	{time.June, 12, "Independence Day"},
	{time.November, 30, "Bonifacio Day"},
	{time.December, 25, "Christmas Day"},
	{time.December, 30, "Rizal Day"},
}

func holidaysFor(years ...int) []models.Holiday {
	holidays := make([]models.Holiday, 0, len(years)*len(fixedHolidays))
	for _, year := range years {
		for _, h := range fixedHolidays {
			holidays = append(holidays, models.Holiday{
				Date: time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC),
				Name: h.name,
			})
		}
	}
	return holidays
}

// SeedCatalog inserts the default SKUs, rate cards and the fixed holidays of
// each given year. Existing rows are left untouched.
func SeedCatalog(d *gorm.DB, years ...int) error {
	return d.Transaction(func(tx *gorm.DB) error {
		skus := append([]models.ServiceSKU(nil), defaultSKUs...)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&skus).Error; err != nil {
			return err
		}
		cards := append([]models.RateCard(nil), defaultRateCards...)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cards).Error; err != nil {
			return err
		}
		holidays := holidaysFor(years...)
		if len(holidays) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&holidays).Error
	})
}

func InitBroker(broker string, topics ...string) {
	if broker == "" {
		log.Println("[kafka] KAFKA_BROKER is not set, skipping topic setup")
		return
	}
	results, err := lib.KafkaCreateTopics(broker, topics...)
	if err != nil {
		return
	}
	for _, r := range results {
		log.Printf("[kafka] topic %s: %s\n", r.Topic, r.Error.String())
	}
}

// InitScheduler starts the job that settles completed bookings left without
// an earning.
func InitScheduler(reconciler common.Reconciler, interval, lookback time.Duration) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob("settlement-reconciler", interval, common.ReconcileSettlements, reconciler, lookback, reconcileBatch); err != nil {
		log.Printf("Error scheduling reconciler: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}
