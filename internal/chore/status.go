package chore

import (
	"github.com/dukerupert/wg/internal/model"
)

type Status string

const (
	StatusUnscheduled Status = "unscheduled"
	StatusNotDue      Status = "not_due"
	StatusDue         Status = "due"
	StatusOverdue     Status = "overdue"
)

type ChoreWithStatus struct {
	model.Chore
	Status Status `json:"status"`
}

// NextDueDate returns the day a chore is due again: interval_days after its
// latest activity, or after the day it was created if it was never done.
// Chores without an interval have no due date.
func NextDueDate(c model.Chore, latestActivity *model.Date) *model.Date {
	if c.IntervalDays == nil {
		return nil
	}
	last := model.DateOf(c.CreatedAt)
	if latestActivity != nil {
		last = *latestActivity
	}
	due := last.AddDays(*c.IntervalDays)
	return &due
}

// UpdateNextDueDate sets c.NextDueDate from latestActivity and reports
// whether it changed.
func UpdateNextDueDate(c *model.Chore, latestActivity *model.Date) bool {
	next := NextDueDate(*c, latestActivity)
	switch {
	case next == nil && c.NextDueDate == nil:
		return false
	case next != nil && c.NextDueDate != nil && next.Equal(*c.NextDueDate):
		return false
	}
	c.NextDueDate = next
	return true
}

// IsDue reports whether the chore is due on or before today.
func IsDue(c model.Chore, today model.Date) bool {
	return c.NextDueDate != nil && !c.NextDueDate.After(today)
}

// ComputeStatus classifies a chore relative to today.
func ComputeStatus(c model.Chore, today model.Date) Status {
	switch {
	case c.NextDueDate == nil:
		return StatusUnscheduled
	case c.NextDueDate.Before(today):
		return StatusOverdue
	case IsDue(c, today):
		return StatusDue
	default:
		return StatusNotDue
	}
}

func WithStatus(chores []model.Chore, today model.Date) []ChoreWithStatus {
	out := make([]ChoreWithStatus, 0, len(chores))
	for _, c := range chores {
		out = append(out, ChoreWithStatus{Chore: c, Status: ComputeStatus(c, today)})
	}
	return out
}
