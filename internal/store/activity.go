package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type ActivityStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewActivityStore(db *sql.DB, clk clock.Clock) *ActivityStore {
	return &ActivityStore{db: db, clock: clk}
}

func scanActivity(s scanner) (*model.ChoreActivity, error) {
	var a model.ChoreActivity
	var deletedAt sql.NullTime
	err := s.Scan(&a.ID, &a.ChoreID, &a.UserID, &a.Date, &a.Comment, &a.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	a.DeletedAt = timePtr(deletedAt)
	return &a, nil
}

const activityCols = `a.id, a.chore_id, a.user_id, a.date, a.comment, a.created_at, a.deleted_at`

func (s *ActivityStore) Create(choreID model.ChoreID, userID model.UserID, date model.Date, comment string) (*model.ChoreActivity, error) {
	id := model.NewID[model.ChoreActivity]()
	_, err := s.db.Exec(
		`INSERT INTO chore_activities (id, chore_id, user_id, date, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, choreID, userID, date, comment, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return s.GetByID(id)
}

func (s *ActivityStore) GetByID(id model.ChoreActivityID) (*model.ChoreActivity, error) {
	row := s.db.QueryRow(`SELECT `+activityCols+` FROM chore_activities a WHERE a.id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// ListByList returns the activities of a chore list, newest first. A limit
// of zero or less means no limit.
func (s *ActivityStore) ListByList(listID model.ChoreListID, includeDeleted bool, limit int) ([]model.ChoreActivity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM chore_activities a
		 JOIN chores c ON c.id = a.chore_id
		 WHERE c.chore_list_id = ?`+deletedFilter("a", includeDeleted)+`
		 ORDER BY a.date DESC, a.created_at DESC
		 LIMIT ?`,
		listID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.ChoreActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) Update(id model.ChoreActivityID, choreID model.ChoreID, date model.Date, comment string) (*model.ChoreActivity, error) {
	_, err := s.db.Exec(
		`UPDATE chore_activities SET chore_id = ?, date = ?, comment = ? WHERE id = ?`,
		choreID, date, comment, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	return s.GetByID(id)
}

func (s *ActivityStore) SoftDelete(id model.ChoreActivityID) error {
	_, err := s.db.Exec(`UPDATE chore_activities SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) Restore(id model.ChoreActivityID) error {
	_, err := s.db.Exec(`UPDATE chore_activities SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("restore activity: %w", err)
	}
	return nil
}

// LatestDate returns the date of the most recent non-deleted activity of a
// chore, or nil if there is none.
func (s *ActivityStore) LatestDate(choreID model.ChoreID) (*model.Date, error) {
	var d sql.Null[model.Date]
	err := s.db.QueryRow(
		`SELECT MAX(date) FROM chore_activities WHERE chore_id = ? AND deleted_at IS NULL`,
		choreID,
	).Scan(&d)
	if err != nil {
		return nil, fmt.Errorf("latest activity date: %w", err)
	}
	return datePtr(d), nil
}

// OldestDateInList returns the date of the oldest non-deleted activity of a
// non-deleted chore in the list, or nil if there is none.
func (s *ActivityStore) OldestDateInList(listID model.ChoreListID) (*model.Date, error) {
	var d sql.Null[model.Date]
	err := s.db.QueryRow(
		`SELECT MIN(a.date) FROM chore_activities a
		 JOIN chores c ON c.id = a.chore_id
		 WHERE c.chore_list_id = ? AND a.deleted_at IS NULL AND c.deleted_at IS NULL`,
		listID,
	).Scan(&d)
	if err != nil {
		return nil, fmt.Errorf("oldest activity date: %w", err)
	}
	return datePtr(d), nil
}

// RawScores sums chore points per user for the non-deleted activities of a
// list dated within [start, end]. Deleted chores, lists and users do not
// count. Users without activities are absent from the result.
func (s *ActivityStore) RawScores(listID model.ChoreListID, start, end model.Date) (map[model.UserID]int, error) {
	rows, err := s.db.Query(
		`SELECT a.user_id, SUM(c.points) FROM chore_activities a
		 JOIN chores c ON c.id = a.chore_id
		 JOIN chore_lists l ON l.id = c.chore_list_id
		 JOIN users u ON u.id = a.user_id
		 WHERE l.id = ?
		   AND a.deleted_at IS NULL AND c.deleted_at IS NULL
		   AND l.deleted_at IS NULL AND u.deleted_at IS NULL
		   AND a.date >= ? AND a.date <= ?
		 GROUP BY a.user_id`,
		listID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("raw scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[model.UserID]int)
	for rows.Next() {
		var userID model.UserID
		var sum int
		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, fmt.Errorf("scan raw score: %w", err)
		}
		scores[userID] = sum
	}
	return scores, rows.Err()
}
