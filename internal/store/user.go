package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type UserStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewUserStore(db *sql.DB, clk clock.Clock) *UserStore {
	return &UserStore{db: db, clock: clk}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var lang string
	var deletedAt sql.NullTime
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &lang, &u.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	u.Language = model.ParseLanguage(lang)
	u.DeletedAt = timePtr(deletedAt)
	return &u, nil
}

const userCols = `id, name, email, password_hash, language, created_at, deleted_at`

func (s *UserStore) Create(name, email, passwordHash string, lang model.Language) (*model.User, error) {
	id := model.NewID[model.User]()
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, language, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, email, passwordHash, string(lang), s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id model.UserID) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the user with the given login handle, deleted or not.
func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) List(includeDeleted bool) ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users WHERE 1 = 1` + deletedFilter("", includeDeleted) + ` ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) Update(id model.UserID, name, email string, lang model.Language) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, language = ? WHERE id = ?`,
		name, email, string(lang), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) UpdatePassword(id model.UserID, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *UserStore) SoftDelete(id model.UserID) error {
	_, err := s.db.Exec(`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	return nil
}

func (s *UserStore) Restore(id model.UserID) error {
	_, err := s.db.Exec(`UPDATE users SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}
	return nil
}
