// Package absence manages the days users are away and orders them for
// display.
package absence

import (
	"cmp"
	"slices"

	"github.com/dukerupert/wg/internal/model"
)

type Group struct {
	Date     model.Date      `json:"date"`
	Absences []model.Absence `json:"absences"`
}

// GroupDate is the day an absence is listed under: its end if it is over,
// its start if it has not begun, and today otherwise.
func GroupDate(a model.Absence, today model.Date) model.Date {
	switch {
	case a.IsInPast(today):
		return *a.DateEnd
	case a.IsInFuture(today):
		return a.DateStart
	default:
		return today
	}
}

// GroupByDate sorts absences by group date, start date and creation time
// and splits them into runs sharing a group date. latestFirst reverses the
// whole order.
func GroupByDate(absences []model.Absence, today model.Date, latestFirst bool) []Group {
	sorted := slices.Clone(absences)
	slices.SortStableFunc(sorted, func(a, b model.Absence) int {
		return cmp.Or(
			GroupDate(a, today).Compare(GroupDate(b, today)),
			a.DateStart.Compare(b.DateStart),
			a.CreatedAt.Compare(b.CreatedAt),
		)
	})
	if latestFirst {
		slices.Reverse(sorted)
	}

	var groups []Group
	for _, a := range sorted {
		gd := GroupDate(a, today)
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(gd) {
			groups[n-1].Absences = append(groups[n-1].Absences, a)
			continue
		}
		groups = append(groups, Group{Date: gd, Absences: []model.Absence{a}})
	}
	return groups
}
