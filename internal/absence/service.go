package absence

import (
	"fmt"
	"strings"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/store"
)

const (
	// EditDays bounds how far back an absence may start or still be edited.
	EditDays = 4
	// DeleteDays bounds how long after its end an absence may be deleted or
	// restored.
	DeleteDays = 6
)

type Input struct {
	DateStart model.Date  `json:"date_start"`
	DateEnd   *model.Date `json:"date_end"`
	Comment   string      `json:"comment"`
}

type Service struct {
	absences *store.AbsenceStore
	clock    clock.Clock
}

func NewService(absences *store.AbsenceStore, clk clock.Clock) *Service {
	return &Service{absences: absences, clock: clk}
}

func (in *Input) validate(minStart model.Date) error {
	if in.DateStart.IsZero() {
		return apperr.Invalid("date_start is required")
	}
	if in.DateStart.Before(minStart) {
		return apperr.Invalid("date_start must not be before %s", minStart)
	}
	if in.DateEnd != nil && in.DateEnd.Before(in.DateStart) {
		return apperr.Invalid("date_end must not be before date_start")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	return nil
}

// endsAfter reports whether the absence is open ended or ends on or after day.
func endsAfter(a model.Absence, day model.Date) bool {
	return a.DateEnd == nil || !a.DateEnd.Before(day)
}

// List returns the absences grouped for display, latest first.
func (s *Service) List(includeDeleted bool) ([]Group, error) {
	absences, err := s.absences.List(includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return GroupByDate(absences, clock.Today(s.clock), true), nil
}

func (s *Service) Create(userID model.UserID, in Input) (*model.Absence, error) {
	if err := in.validate(clock.Today(s.clock).AddDays(-EditDays)); err != nil {
		return nil, err
	}
	a, err := s.absences.Create(userID, in.DateStart, in.DateEnd, in.Comment)
	if err != nil {
		return nil, fmt.Errorf("create absence: %w", err)
	}
	return a, nil
}

func (s *Service) owned(userID model.UserID, id model.AbsenceID) (*model.Absence, error) {
	a, err := s.absences.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("absence %s", id)
	}
	if a.UserID != userID {
		return nil, apperr.Forbidden("absence %s belongs to another user", id)
	}
	return a, nil
}

func (s *Service) Update(userID model.UserID, id model.AbsenceID, in Input) (*model.Absence, error) {
	a, err := s.owned(userID, id)
	if err != nil {
		return nil, fmt.Errorf("update absence: %w", err)
	}
	today := clock.Today(s.clock)
	if a.IsDeleted() {
		return nil, apperr.Forbidden("absence %s is deleted", id)
	}
	if !endsAfter(*a, today.AddDays(-EditDays)) {
		return nil, apperr.Forbidden("absence %s is too old to edit", id)
	}
	// An ongoing absence keeps its original start.
	minStart := today.AddDays(-EditDays)
	if a.DateStart.Before(minStart) {
		minStart = a.DateStart
	}
	if err := in.validate(minStart); err != nil {
		return nil, err
	}
	updated, err := s.absences.Update(id, in.DateStart, in.DateEnd, in.Comment)
	if err != nil {
		return nil, fmt.Errorf("update absence: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(userID model.UserID, id model.AbsenceID) error {
	a, err := s.owned(userID, id)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	if a.IsDeleted() {
		return apperr.Forbidden("absence %s is already deleted", id)
	}
	if !endsAfter(*a, clock.Today(s.clock).AddDays(-DeleteDays)) {
		return apperr.Forbidden("absence %s is too old to delete", id)
	}
	return s.absences.SoftDelete(id)
}

func (s *Service) Restore(userID model.UserID, id model.AbsenceID) error {
	a, err := s.owned(userID, id)
	if err != nil {
		return fmt.Errorf("restore absence: %w", err)
	}
	if !a.IsDeleted() {
		return apperr.Forbidden("absence %s is not deleted", id)
	}
	if !endsAfter(*a, clock.Today(s.clock).AddDays(-DeleteDays)) {
		return apperr.Forbidden("absence %s is too old to restore", id)
	}
	return s.absences.Restore(id)
}
