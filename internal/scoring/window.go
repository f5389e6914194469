// Package scoring computes per-user chore scores and prorates them for the
// days a user was away.
package scoring

import (
	"time"

	"github.com/dukerupert/wg/internal/model"
)

// Window returns the current scoring period of a chore list.
//
// Periods are calendar aligned and start in January: a quarterly list
// resets on the first of January, April, July and October. A list that
// never resets scores everything from its oldest activity up to today;
// oldest is nil when the list has no activities.
func Window(interval model.ScoreResetInterval, today model.Date, oldest *model.Date) (start, end model.Date) {
	months, ok := interval.Months()
	if !ok {
		if oldest != nil && oldest.Before(today) {
			return *oldest, today
		}
		return today, today
	}

	elapsed := (int(today.Month()) - 1) % months
	start = model.NewDate(today.Year(), today.Month()-time.Month(elapsed), 1)
	end = start.AddMonths(months).AddDays(-1)
	return start, end
}
