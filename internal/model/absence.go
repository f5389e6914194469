package model

import "time"

type Absence struct {
	ID        AbsenceID  `json:"id"`
	UserID    UserID     `json:"user_id"`
	DateStart Date       `json:"date_start"`
	DateEnd   *Date      `json:"date_end"`
	Comment   string     `json:"comment"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func (a Absence) IsDeleted() bool { return a.DeletedAt != nil }

// ActiveOn reports whether the absence covers day. An open-ended absence
// covers every day from its start onwards.
func (a Absence) ActiveOn(day Date) bool {
	if day.Before(a.DateStart) {
		return false
	}
	return a.DateEnd == nil || !a.DateEnd.Before(day)
}

func (a Absence) IsInPast(today Date) bool {
	return a.DateEnd != nil && a.DateEnd.Before(today)
}

func (a Absence) IsInFuture(today Date) bool {
	return a.DateStart.After(today)
}

func (a Absence) IsActive(today Date) bool {
	return a.ActiveOn(today)
}
