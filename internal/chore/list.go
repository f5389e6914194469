package chore

import (
	"fmt"
	"strings"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/model"
)

type ChoreListInput struct {
	Name               string                   `json:"name"`
	Description        string                   `json:"description"`
	ScoreResetInterval model.ScoreResetInterval `json:"score_reset_interval"`
}

func (in *ChoreListInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return apperr.Invalid("chore list name is required")
	}
	if in.ScoreResetInterval == "" {
		in.ScoreResetInterval = model.ResetMonthly
	}
	if _, err := model.ParseScoreResetInterval(string(in.ScoreResetInterval)); err != nil {
		return apperr.Invalid("%v", err)
	}
	return nil
}

func (s *Service) ListChoreLists(includeDeleted bool) ([]model.ChoreList, error) {
	lists, err := s.lists.List(includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list chore lists: %w", err)
	}
	return lists, nil
}

// GetChoreList returns the list, deleted or not.
func (s *Service) GetChoreList(id model.ChoreListID) (*model.ChoreList, error) {
	l, err := s.lists.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get chore list: %w", err)
	}
	if l == nil {
		return nil, apperr.NotFound("chore list %s", id)
	}
	return l, nil
}

func (s *Service) CreateChoreList(in ChoreListInput) (*model.ChoreList, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	l, err := s.lists.Create(in.Name, in.Description, in.ScoreResetInterval)
	if err != nil {
		return nil, fmt.Errorf("create chore list: %w", err)
	}
	return l, nil
}

func (s *Service) UpdateChoreList(id model.ChoreListID, in ChoreListInput) (*model.ChoreList, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.activeList(id); err != nil {
		return nil, fmt.Errorf("update chore list: %w", err)
	}
	l, err := s.lists.Update(id, in.Name, in.Description, in.ScoreResetInterval)
	if err != nil {
		return nil, fmt.Errorf("update chore list: %w", err)
	}
	return l, nil
}

func (s *Service) DeleteChoreList(id model.ChoreListID) error {
	if _, err := s.activeList(id); err != nil {
		return fmt.Errorf("delete chore list: %w", err)
	}
	return s.lists.SoftDelete(id)
}

func (s *Service) RestoreChoreList(id model.ChoreListID) error {
	l, err := s.GetChoreList(id)
	if err != nil {
		return err
	}
	if !l.IsDeleted() {
		return apperr.Forbidden("chore list %s is not deleted", id)
	}
	return s.lists.Restore(id)
}
