// Package units provides canonical unit constants, conversions and money formatting.
package units

import "time"

// Billing period assumptions used by the closed-form estimator.
const (
	HoursPerDay  = 24
	DaysPerMonth = 30
)

// HoursPerMonth is the 30-day billing month.
const HoursPerMonth = HoursPerDay * DaysPerMonth

// InstancesNeeded returns ceil(users / capacity). It returns 0 when either
// argument is not positive; callers validate before relying on the result.
func InstancesNeeded(users, capacity int) int {
	if users <= 0 || capacity <= 0 {
		return 0
	}
	n := users / capacity
	if users%capacity != 0 {
		n++
	}
	return n
}

// HourlyToMonthly converts an hourly rate into a 30-day monthly amount.
func HourlyToMonthly(hourly float64) float64 {
	return hourly * HoursPerMonth
}

// DaysToDuration converts a whole number of days to a time.Duration.
func DaysToDuration(days int) time.Duration {
	return time.Duration(days) * HoursPerDay * time.Hour
}
