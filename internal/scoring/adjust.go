package scoring

import (
	"math"

	"github.com/dukerupert/wg/internal/model"
)

// AbsentDays counts the days in [start, end] on which at least one of the
// absences is active. Overlapping absences count each day once.
func AbsentDays(absences []model.Absence, start, end model.Date) int {
	if end.Before(start) || len(absences) == 0 {
		return 0
	}
	n := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		for _, a := range absences {
			if a.ActiveOn(d) {
				n++
				break
			}
		}
	}
	return n
}

// Adjust scales score up to the full window for a user who was absent on
// some of its days. Scores without absences, zero scores and users absent
// on every day are returned unchanged.
func Adjust(score int, start, today model.Date, absences []model.Absence) int {
	passed := today.Sub(start) + 1
	if score == 0 || passed <= 0 {
		return score
	}

	absent := AbsentDays(absences, start, today)
	present := passed - absent
	if absent == 0 || present <= 0 {
		return score
	}

	return int(math.Round(float64(score) / float64(present) * float64(passed)))
}
