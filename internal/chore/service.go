package chore

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/store"
)

// ActivityEditDays is how many days back an activity may be dated or edited.
const ActivityEditDays = 2

type Service struct {
	lists      *store.ChoreListStore
	chores     *store.ChoreStore
	activities *store.ActivityStore
	clock      clock.Clock
	locks      *keyedMutex
	logger     *slog.Logger
}

func NewService(lists *store.ChoreListStore, chores *store.ChoreStore, activities *store.ActivityStore, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		lists:      lists,
		chores:     chores,
		activities: activities,
		clock:      clk,
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

type ChoreInput struct {
	Name         string `json:"name"`
	Points       int    `json:"points"`
	IntervalDays *int   `json:"interval_days"`
	Description  string `json:"description"`
}

func (in *ChoreInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return apperr.Invalid("chore name is required")
	}
	if in.Points < 0 {
		return apperr.Invalid("points must not be negative")
	}
	if in.IntervalDays != nil && *in.IntervalDays < 1 {
		return apperr.Invalid("interval_days must be at least 1")
	}
	return nil
}

// RecomputeDueDate reloads a chore, derives its next due date from its
// latest activity and stores it if it changed. Calls for the same chore
// run one at a time.
func (s *Service) RecomputeDueDate(id model.ChoreID) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.chores.GetByID(id)
	if err != nil {
		return false, fmt.Errorf("recompute due date: %w", err)
	}
	if c == nil {
		return false, apperr.NotFound("chore %s", id)
	}

	latest, err := s.activities.LatestDate(id)
	if err != nil {
		return false, fmt.Errorf("recompute due date: %w", err)
	}

	if !UpdateNextDueDate(c, latest) {
		return false, nil
	}
	if err := s.chores.SetNextDueDate(id, c.NextDueDate); err != nil {
		return false, fmt.Errorf("recompute due date: %w", err)
	}
	s.logger.Debug("next due date updated", "chore_id", id, "next_due_date", c.NextDueDate)
	return true, nil
}

// activeList returns the list if it exists and is not deleted.
func (s *Service) activeList(id model.ChoreListID) (*model.ChoreList, error) {
	l, err := s.lists.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperr.NotFound("chore list %s", id)
	}
	if l.IsDeleted() {
		return nil, apperr.Forbidden("chore list %s is deleted", id)
	}
	return l, nil
}

// choreOf returns a chore of the list. A chore of another list is reported
// as not found.
func (s *Service) choreOf(listID model.ChoreListID, id model.ChoreID) (*model.Chore, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ChoreListID != listID {
		return nil, apperr.NotFound("chore %s", id)
	}
	return c, nil
}

func (s *Service) ListChores(listID model.ChoreListID, includeDeleted bool) ([]ChoreWithStatus, error) {
	l, err := s.lists.GetByID(listID)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	if l == nil {
		return nil, apperr.NotFound("chore list %s", listID)
	}
	chores, err := s.chores.ListByList(listID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return WithStatus(chores, clock.Today(s.clock)), nil
}

func (s *Service) CreateChore(listID model.ChoreListID, in ChoreInput) (*model.Chore, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.activeList(listID); err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	c, err := s.chores.Create(listID, in.Name, in.Points, in.IntervalDays, in.Description)
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	return s.recomputed(c.ID)
}

func (s *Service) UpdateChore(listID model.ChoreListID, id model.ChoreID, in ChoreInput) (*model.Chore, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.activeList(listID); err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	c, err := s.choreOf(listID, id)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if c.IsDeleted() {
		return nil, apperr.Forbidden("chore %s is deleted", id)
	}
	if _, err := s.chores.Update(id, in.Name, in.Points, in.IntervalDays, in.Description); err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.recomputed(id)
}

func (s *Service) DeleteChore(listID model.ChoreListID, id model.ChoreID) error {
	if _, err := s.activeList(listID); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	c, err := s.choreOf(listID, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if c.IsDeleted() {
		return apperr.Forbidden("chore %s is already deleted", id)
	}
	return s.chores.SoftDelete(id)
}

func (s *Service) RestoreChore(listID model.ChoreListID, id model.ChoreID) error {
	if _, err := s.activeList(listID); err != nil {
		return fmt.Errorf("restore chore: %w", err)
	}
	c, err := s.choreOf(listID, id)
	if err != nil {
		return fmt.Errorf("restore chore: %w", err)
	}
	if !c.IsDeleted() {
		return apperr.Forbidden("chore %s is not deleted", id)
	}
	return s.chores.Restore(id)
}

func (s *Service) recomputed(id model.ChoreID) (*model.Chore, error) {
	if _, err := s.RecomputeDueDate(id); err != nil {
		return nil, err
	}
	return s.chores.GetByID(id)
}
