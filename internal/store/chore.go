package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type ChoreStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewChoreStore(db *sql.DB, clk clock.Clock) *ChoreStore {
	return &ChoreStore{db: db, clock: clk}
}

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var intervalDays sql.NullInt64
	var nextDue sql.Null[model.Date]
	var deletedAt sql.NullTime

	err := s.Scan(
		&c.ID, &c.ChoreListID, &c.Name, &c.Points, &intervalDays,
		&nextDue, &c.Description, &c.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.IntervalDays = intPtr(intervalDays)
	c.NextDueDate = datePtr(nextDue)
	c.DeletedAt = timePtr(deletedAt)
	return &c, nil
}

const choreCols = `id, chore_list_id, name, points, interval_days, next_due_date, description, created_at, deleted_at`

// Create inserts a chore without a due date. Callers recompute it afterwards.
func (s *ChoreStore) Create(listID model.ChoreListID, name string, points int, intervalDays *int, description string) (*model.Chore, error) {
	id := model.NewID[model.Chore]()
	_, err := s.db.Exec(
		`INSERT INTO chores (id, chore_list_id, name, points, interval_days, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, listID, name, points, nullInt(intervalDays), description, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id model.ChoreID) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByList(listID model.ChoreListID, includeDeleted bool) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE chore_list_id = ?`+deletedFilter("", includeDeleted)+
			` ORDER BY next_due_date IS NULL, next_due_date ASC, name ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id model.ChoreID, name string, points int, intervalDays *int, description string) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET name = ?, points = ?, interval_days = ?, description = ? WHERE id = ?`,
		name, points, nullInt(intervalDays), description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) SetNextDueDate(id model.ChoreID, due *model.Date) error {
	_, err := s.db.Exec(`UPDATE chores SET next_due_date = ? WHERE id = ?`, nullDate(due), id)
	if err != nil {
		return fmt.Errorf("set next due date: %w", err)
	}
	return nil
}

func (s *ChoreStore) SoftDelete(id model.ChoreID) error {
	_, err := s.db.Exec(`UPDATE chores SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) Restore(id model.ChoreID) error {
	_, err := s.db.Exec(`UPDATE chores SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("restore chore: %w", err)
	}
	return nil
}
