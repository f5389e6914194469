package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type ChoreListStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewChoreListStore(db *sql.DB, clk clock.Clock) *ChoreListStore {
	return &ChoreListStore{db: db, clock: clk}
}

func scanChoreList(s scanner) (*model.ChoreList, error) {
	var l model.ChoreList
	var interval string
	var deletedAt sql.NullTime
	err := s.Scan(&l.ID, &l.Name, &l.Description, &interval, &l.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	l.ScoreResetInterval = model.ScoreResetInterval(interval)
	l.DeletedAt = timePtr(deletedAt)
	return &l, nil
}

const choreListCols = `id, name, description, score_reset_interval, created_at, deleted_at`

func (s *ChoreListStore) Create(name, description string, interval model.ScoreResetInterval) (*model.ChoreList, error) {
	id := model.NewID[model.ChoreList]()
	_, err := s.db.Exec(
		`INSERT INTO chore_lists (id, name, description, score_reset_interval, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, description, string(interval), s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore list: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreListStore) GetByID(id model.ChoreListID) (*model.ChoreList, error) {
	row := s.db.QueryRow(`SELECT `+choreListCols+` FROM chore_lists WHERE id = ?`, id)
	l, err := scanChoreList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore list: %w", err)
	}
	return l, nil
}

func (s *ChoreListStore) List(includeDeleted bool) ([]model.ChoreList, error) {
	rows, err := s.db.Query(`SELECT ` + choreListCols + ` FROM chore_lists WHERE 1 = 1` + deletedFilter("", includeDeleted) + ` ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chore lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ChoreList
	for rows.Next() {
		l, err := scanChoreList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *ChoreListStore) Update(id model.ChoreListID, name, description string, interval model.ScoreResetInterval) (*model.ChoreList, error) {
	_, err := s.db.Exec(
		`UPDATE chore_lists SET name = ?, description = ?, score_reset_interval = ? WHERE id = ?`,
		name, description, string(interval), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore list: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreListStore) SoftDelete(id model.ChoreListID) error {
	_, err := s.db.Exec(`UPDATE chore_lists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete chore list: %w", err)
	}
	return nil
}

func (s *ChoreListStore) Restore(id model.ChoreListID) error {
	_, err := s.db.Exec(`UPDATE chore_lists SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("restore chore list: %w", err)
	}
	return nil
}
