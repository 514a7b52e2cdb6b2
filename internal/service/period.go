package service

import (
	"time"

	"github.com/martinstankovic2000/budget-app/internal/models"
)

// Aggregation period keywords
const (
	PeriodLastMonth   = "lastMonth"
	PeriodLastQuarter = "lastQuarter"
	PeriodLastYear    = "lastYear"
)

// periodWindow resolves a period keyword into a concrete [start, end]
// date window, using calendar month arithmetic: lastMonth and
// lastQuarter start on the first day of the month one and three months
// back, lastYear starts on January 1st of the previous year. The end of
// the window is always today.
func periodWindow(period string, now time.Time) (time.Time, time.Time, error) {
	end := dateOnly(now)

	var start time.Time
	switch period {
	case PeriodLastMonth:
		start = firstOfMonth(end, -1)
	case PeriodLastQuarter:
		start = firstOfMonth(end, -3)
	case PeriodLastYear:
		start = time.Date(end.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, time.Time{}, models.ErrInvalidPeriod
	}

	return start, end, nil
}

// firstOfMonth returns the first day of the month the given number of
// months before t. time.Date normalizes out-of-range months, so going
// back past January rolls into the previous year.
func firstOfMonth(t time.Time, months int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
}

// dateOnly truncates t to midnight UTC
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
