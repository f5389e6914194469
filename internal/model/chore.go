package model

import (
	"fmt"
	"time"
)

// ScoreResetInterval controls how often the scores of a chore list start
// over from zero.
type ScoreResetInterval string

const (
	ResetMonthly    ScoreResetInterval = "monthly"
	ResetQuarterly  ScoreResetInterval = "quarterly"
	ResetHalfYearly ScoreResetInterval = "half_yearly"
	ResetYearly     ScoreResetInterval = "yearly"
	ResetNever      ScoreResetInterval = "never"
)

// Months returns the length of one scoring period. ok is false for
// ResetNever.
func (i ScoreResetInterval) Months() (n int, ok bool) {
	switch i {
	case ResetMonthly:
		return 1, true
	case ResetQuarterly:
		return 3, true
	case ResetHalfYearly:
		return 6, true
	case ResetYearly:
		return 12, true
	}
	return 0, false
}

func ParseScoreResetInterval(s string) (ScoreResetInterval, error) {
	switch i := ScoreResetInterval(s); i {
	case ResetMonthly, ResetQuarterly, ResetHalfYearly, ResetYearly, ResetNever:
		return i, nil
	}
	return "", fmt.Errorf("unknown score reset interval %q", s)
}

type ChoreList struct {
	ID                 ChoreListID        `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	ScoreResetInterval ScoreResetInterval `json:"score_reset_interval"`
	CreatedAt          time.Time          `json:"created_at"`
	DeletedAt          *time.Time         `json:"deleted_at"`
}

func (l ChoreList) IsDeleted() bool { return l.DeletedAt != nil }

type Chore struct {
	ID           ChoreID     `json:"id"`
	ChoreListID  ChoreListID `json:"chore_list_id"`
	Name         string      `json:"name"`
	Points       int         `json:"points"`
	IntervalDays *int        `json:"interval_days"`
	NextDueDate  *Date       `json:"next_due_date"`
	Description  string      `json:"description"`
	CreatedAt    time.Time   `json:"created_at"`
	DeletedAt    *time.Time  `json:"deleted_at"`
}

func (c Chore) IsDeleted() bool { return c.DeletedAt != nil }

type ChoreActivity struct {
	ID        ChoreActivityID `json:"id"`
	ChoreID   ChoreID         `json:"chore_id"`
	UserID    UserID          `json:"user_id"`
	Date      Date            `json:"date"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt *time.Time      `json:"deleted_at"`
}

func (a ChoreActivity) IsDeleted() bool { return a.DeletedAt != nil }
