package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/model"
)

type SessionStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSessionStore(db *sql.DB, clk clock.Clock) *SessionStore {
	return &SessionStore{db: db, clock: clk}
}

func scanSession(s scanner) (*model.Session, error) {
	var sess model.Session
	err := s.Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC()
	sess.CreatedAt = sess.CreatedAt.UTC()
	return &sess, nil
}

const sessionCols = `id, token, user_id, expires_at, created_at`

// Create stores a session for an already generated token.
func (s *SessionStore) Create(userID model.UserID, token string, expiresAt time.Time) (*model.Session, error) {
	id := model.NewID[model.Session]()
	_, err := s.db.Exec(
		`INSERT INTO authentication_sessions (id, token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, token, userID, expiresAt.UTC(), s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM authentication_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the token, expired or not, or nil if
// there is none.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM authentication_sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id model.SessionID) error {
	_, err := s.db.Exec(`DELETE FROM authentication_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired strictly before now.
func (s *SessionStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM authentication_sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *SessionStore) DeleteByUser(userID model.UserID) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM authentication_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by user: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *SessionStore) CountByUser(userID model.UserID) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM authentication_sessions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
