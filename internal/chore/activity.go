package chore

import (
	"fmt"
	"strings"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type ActivityInput struct {
	ChoreID model.ChoreID `json:"chore_id"`
	Date    model.Date    `json:"date"`
	Comment string        `json:"comment"`
}

func (s *Service) checkActivityDate(d model.Date) error {
	today := clock.Today(s.clock)
	if d.IsZero() {
		return apperr.Invalid("date is required")
	}
	if d.Before(today.AddDays(-ActivityEditDays)) || d.After(today) {
		return apperr.Invalid("date %s must be between %s and %s", d, today.AddDays(-ActivityEditDays), today)
	}
	return nil
}

// usableChore returns a non-deleted chore of the list for recording an
// activity against.
func (s *Service) usableChore(listID model.ChoreListID, id model.ChoreID) (*model.Chore, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.Invalid("chore %s does not exist", id)
	}
	if c.IsDeleted() {
		return nil, apperr.Forbidden("chore %s is deleted", id)
	}
	if c.ChoreListID != listID {
		return nil, apperr.Invalid("chore %s belongs to another list", id)
	}
	return c, nil
}

// activityOf returns an activity of the list whose chore is still usable.
func (s *Service) activityOf(listID model.ChoreListID, id model.ChoreActivityID) (*model.ChoreActivity, error) {
	a, err := s.activities.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("activity %s", id)
	}
	c, err := s.chores.GetByID(a.ChoreID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ChoreListID != listID {
		return nil, apperr.NotFound("activity %s", id)
	}
	if c.IsDeleted() {
		return nil, apperr.Forbidden("chore %s is deleted", c.ID)
	}
	return a, nil
}

func (s *Service) ListActivities(listID model.ChoreListID, includeDeleted bool, limit int) ([]model.ChoreActivity, error) {
	l, err := s.lists.GetByID(listID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if l == nil {
		return nil, apperr.NotFound("chore list %s", listID)
	}
	acts, err := s.activities.ListByList(listID, includeDeleted, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return acts, nil
}

// LogActivity records that userID did a chore on a day and moves the
// chore's due date.
func (s *Service) LogActivity(listID model.ChoreListID, userID model.UserID, in ActivityInput) (*model.ChoreActivity, error) {
	if _, err := s.activeList(listID); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	c, err := s.usableChore(listID, in.ChoreID)
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	if err := s.checkActivityDate(in.Date); err != nil {
		return nil, err
	}

	a, err := s.activities.Create(c.ID, userID, in.Date, strings.TrimSpace(in.Comment))
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	if _, err := s.RecomputeDueDate(c.ID); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	return a, nil
}

// UpdateActivity lets the author move an activity to another chore or day
// while it is still recent. Both the old and the new chore get their due
// dates recomputed.
func (s *Service) UpdateActivity(listID model.ChoreListID, userID model.UserID, id model.ChoreActivityID, in ActivityInput) (*model.ChoreActivity, error) {
	if _, err := s.activeList(listID); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	a, err := s.activityOf(listID, id)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if a.IsDeleted() {
		return nil, apperr.Forbidden("activity %s is deleted", id)
	}
	if a.UserID != userID {
		return nil, apperr.Forbidden("activity %s belongs to another user", id)
	}
	if err := s.checkActivityDate(a.Date); err != nil {
		return nil, apperr.Forbidden("activity %s is too old to edit", id)
	}
	target, err := s.usableChore(listID, in.ChoreID)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if err := s.checkActivityDate(in.Date); err != nil {
		return nil, err
	}

	updated, err := s.activities.Update(id, target.ID, in.Date, strings.TrimSpace(in.Comment))
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if _, err := s.RecomputeDueDate(a.ChoreID); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if target.ID != a.ChoreID {
		if _, err := s.RecomputeDueDate(target.ID); err != nil {
			return nil, fmt.Errorf("update activity: %w", err)
		}
	}
	return updated, nil
}

func (s *Service) DeleteActivity(listID model.ChoreListID, userID model.UserID, id model.ChoreActivityID) error {
	if _, err := s.activeList(listID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	a, err := s.activityOf(listID, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if a.IsDeleted() {
		return apperr.Forbidden("activity %s is already deleted", id)
	}
	if a.UserID != userID {
		return apperr.Forbidden("activity %s belongs to another user", id)
	}

	if err := s.activities.SoftDelete(id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if _, err := s.RecomputeDueDate(a.ChoreID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

func (s *Service) RestoreActivity(listID model.ChoreListID, userID model.UserID, id model.ChoreActivityID) error {
	if _, err := s.activeList(listID); err != nil {
		return fmt.Errorf("restore activity: %w", err)
	}
	a, err := s.activityOf(listID, id)
	if err != nil {
		return fmt.Errorf("restore activity: %w", err)
	}
	if !a.IsDeleted() {
		return apperr.Forbidden("activity %s is not deleted", id)
	}
	if a.UserID != userID {
		return apperr.Forbidden("activity %s belongs to another user", id)
	}

	if err := s.activities.Restore(id); err != nil {
		return fmt.Errorf("restore activity: %w", err)
	}
	if _, err := s.RecomputeDueDate(a.ChoreID); err != nil {
		return fmt.Errorf("restore activity: %w", err)
	}
	return nil
}
