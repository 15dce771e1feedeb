package earnings

import (
	"math"
	"strings"

	"maidops/src/types"
)

// WorkerRate is the housemaid's base share per service duration.
type WorkerRate struct {
	WholeDay float64
	HalfDay  float64
}

var workerRates = map[string]WorkerRate{
	"NCR":        {WholeDay: 650, HalfDay: 400},
	"CEBU":       {WholeDay: 600, HalfDay: 375},
	"DAVAO":      {WholeDay: 580, HalfDay: 360},
	"CALABARZON": {WholeDay: 620, HalfDay: 390},
}

const weekendSurgeRate = 0.10

// WorkerRateFor returns the base share for a location and duration.
func WorkerRateFor(location string, duration types.DurationCode) (float64, bool) {
	rate, ok := workerRates[strings.ToUpper(strings.TrimSpace(location))]
	if !ok {
		return 0, false
	}
	if duration == types.DURATION_HALF_DAY {
		return rate.HalfDay, true
	}
	return rate.WholeDay, true
}

// WeekendSurge is the worker's weekend bonus. Trial bookings never earn one.
func WeekendSurge(base float64, bookingType types.BookingType, weekend bool) float64 {
	if !weekend || bookingType == types.BOOKING_TYPE_TRIAL {
		return 0
	}
	return math.Round(base * weekendSurgeRate)
}
