package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type AbsenceStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewAbsenceStore(db *sql.DB, clk clock.Clock) *AbsenceStore {
	return &AbsenceStore{db: db, clock: clk}
}

func scanAbsence(s scanner) (*model.Absence, error) {
	var a model.Absence
	var dateEnd sql.Null[model.Date]
	var deletedAt sql.NullTime
	err := s.Scan(&a.ID, &a.UserID, &a.DateStart, &dateEnd, &a.Comment, &a.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	a.DateEnd = datePtr(dateEnd)
	a.DeletedAt = timePtr(deletedAt)
	return &a, nil
}

const absenceCols = `id, user_id, date_start, date_end, comment, created_at, deleted_at`

func (s *AbsenceStore) Create(userID model.UserID, start model.Date, end *model.Date, comment string) (*model.Absence, error) {
	id := model.NewID[model.Absence]()
	_, err := s.db.Exec(
		`INSERT INTO absences (id, user_id, date_start, date_end, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, start, nullDate(end), comment, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert absence: %w", err)
	}
	return s.GetByID(id)
}

func (s *AbsenceStore) GetByID(id model.AbsenceID) (*model.Absence, error) {
	row := s.db.QueryRow(`SELECT `+absenceCols+` FROM absences WHERE id = ?`, id)
	a, err := scanAbsence(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get absence: %w", err)
	}
	return a, nil
}

func (s *AbsenceStore) List(includeDeleted bool) ([]model.Absence, error) {
	rows, err := s.db.Query(
		`SELECT ` + absenceCols + ` FROM absences WHERE 1 = 1` + deletedFilter("", includeDeleted) +
			` ORDER BY date_start DESC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	defer rows.Close()
	return scanAbsences(rows)
}

func (s *AbsenceStore) ListByUser(userID model.UserID, includeDeleted bool) ([]model.Absence, error) {
	rows, err := s.db.Query(
		`SELECT `+absenceCols+` FROM absences WHERE user_id = ?`+deletedFilter("", includeDeleted)+
			` ORDER BY date_start DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list absences by user: %w", err)
	}
	defer rows.Close()
	return scanAbsences(rows)
}

// ListOverlapping returns the non-deleted absences of all users that share
// at least one day with [start, end].
func (s *AbsenceStore) ListOverlapping(start, end model.Date) ([]model.Absence, error) {
	rows, err := s.db.Query(
		`SELECT `+absenceCols+` FROM absences
		 WHERE deleted_at IS NULL AND date_start <= ? AND (date_end IS NULL OR date_end >= ?)
		 ORDER BY date_start ASC`,
		end, start,
	)
	if err != nil {
		return nil, fmt.Errorf("list overlapping absences: %w", err)
	}
	defer rows.Close()
	return scanAbsences(rows)
}

func (s *AbsenceStore) Update(id model.AbsenceID, start model.Date, end *model.Date, comment string) (*model.Absence, error) {
	_, err := s.db.Exec(
		`UPDATE absences SET date_start = ?, date_end = ?, comment = ? WHERE id = ?`,
		start, nullDate(end), comment, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update absence: %w", err)
	}
	return s.GetByID(id)
}

func (s *AbsenceStore) SoftDelete(id model.AbsenceID) error {
	_, err := s.db.Exec(`UPDATE absences SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete absence: %w", err)
	}
	return nil
}

func (s *AbsenceStore) Restore(id model.AbsenceID) error {
	_, err := s.db.Exec(`UPDATE absences SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("restore absence: %w", err)
	}
	return nil
}

func scanAbsences(rows *sql.Rows) ([]model.Absence, error) {
	var absences []model.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan absence: %w", err)
		}
		absences = append(absences, *a)
	}
	return absences, rows.Err()
}
