package scoring

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type ActivityReader interface {
	RawScores(listID model.ChoreListID, start, end model.Date) (map[model.UserID]int, error)
	OldestDateInList(listID model.ChoreListID) (*model.Date, error)
}

type UserLister interface {
	List(includeDeleted bool) ([]model.User, error)
}

type AbsenceReader interface {
	ListOverlapping(start, end model.Date) ([]model.Absence, error)
}

type UserScore struct {
	UserID   model.UserID `json:"user_id"`
	Name     string       `json:"name"`
	Raw      int          `json:"raw_score"`
	Adjusted int          `json:"adjusted_score"`
}

// Result holds the scores of one chore list for its current window.
type Result struct {
	Start  model.Date  `json:"window_start"`
	End    model.Date  `json:"window_end"`
	Scores []UserScore `json:"scores"`
}

type Service struct {
	activities ActivityReader
	users      UserLister
	absences   AbsenceReader
	clock      clock.Clock
}

func NewService(activities ActivityReader, users UserLister, absences AbsenceReader, clk clock.Clock) *Service {
	return &Service{activities: activities, users: users, absences: absences, clock: clk}
}

// AdjustedScores scores every non-deleted user on the list, highest
// adjusted score first.
func (s *Service) AdjustedScores(list model.ChoreList) (*Result, error) {
	today := clock.Today(s.clock)

	var oldest *model.Date
	if list.ScoreResetInterval == model.ResetNever {
		var err error
		oldest, err = s.activities.OldestDateInList(list.ID)
		if err != nil {
			return nil, fmt.Errorf("adjusted scores: %w", err)
		}
	}
	start, end := Window(list.ScoreResetInterval, today, oldest)

	raw, err := s.activities.RawScores(list.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("adjusted scores: %w", err)
	}
	users, err := s.users.List(false)
	if err != nil {
		return nil, fmt.Errorf("adjusted scores: %w", err)
	}
	absences, err := s.absences.ListOverlapping(start, today)
	if err != nil {
		return nil, fmt.Errorf("adjusted scores: %w", err)
	}

	byUser := make(map[model.UserID][]model.Absence)
	for _, a := range absences {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	scores := make([]UserScore, 0, len(users))
	for _, u := range users {
		score := raw[u.ID]
		scores = append(scores, UserScore{
			UserID:   u.ID,
			Name:     u.Name,
			Raw:      score,
			Adjusted: Adjust(score, start, today, byUser[u.ID]),
		})
	}
	slices.SortStableFunc(scores, func(a, b UserScore) int {
		return cmp.Compare(b.Adjusted, a.Adjusted)
	})

	return &Result{Start: start, End: end, Scores: scores}, nil
}
