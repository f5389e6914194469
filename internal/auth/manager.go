package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/metrics"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/store"
)

const (
	DefaultSessionTTL = 30 * 24 * time.Hour

	tokenBytes         = 64
	adminPasswordBytes = 8
	AdminHandle        = "admin"
)

// Manager owns the lifecycle of authentication sessions and the accounts
// that can open them.
type Manager struct {
	users    *store.UserStore
	sessions *store.SessionStore
	clock    clock.Clock
	rand     io.Reader
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Manager)

// WithRandom replaces crypto/rand as the source of tokens and passwords.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.rand = r }
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(users *store.UserStore, sessions *store.SessionStore, clk clock.Clock, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		users:    users,
		sessions: sessions,
		clock:    clk,
		rand:     rand.Reader,
		ttl:      DefaultSessionTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login checks the credentials and opens a new session for the returned
// user. Every failure is reported as the same unauthenticated error and
// leaves no session behind.
func (m *Manager) Login(email, password string) (*AuthContext, error) {
	user, err := m.users.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil || user.IsDeleted() || !VerifyPassword(user.PasswordHash, password) {
		m.metrics.Login("denied")
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	sess, err := m.CreateSession(user.ID)
	if err != nil {
		return nil, err
	}
	m.metrics.Login("ok")

	if _, err := m.SweepExpired(); err != nil {
		m.logger.Warn("sweep expired sessions after login", "error", err)
	}
	return &AuthContext{Session: *sess, User: *user}, nil
}

// CreateSession issues a fresh random token valid for the configured TTL.
func (m *Manager) CreateSession(userID model.UserID) (*model.Session, error) {
	token, err := m.randomHex(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	sess, err := m.sessions.Create(userID, token, m.clock.Now().Add(m.ttl))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Validate resolves a token to its session and user. Expired sessions are
// rejected but left for the sweep.
func (m *Manager) Validate(token string) (*AuthContext, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", apperr.ErrUnauthenticated)
	}
	sess, err := m.sessions.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if sess == nil || sess.IsExpired(m.clock.Now()) {
		return nil, fmt.Errorf("%w: unknown or expired session", apperr.ErrUnauthenticated)
	}

	user, err := m.users.GetByID(sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("validate session user: %w", err)
	}
	if user == nil || user.IsDeleted() {
		return nil, fmt.Errorf("%w: user no longer active", apperr.ErrUnauthenticated)
	}
	return &AuthContext{Session: *sess, User: *user}, nil
}

func (m *Manager) DeleteSession(id model.SessionID) error {
	return m.sessions.Delete(id)
}

func (m *Manager) DeleteAllForUser(userID model.UserID) (int64, error) {
	return m.sessions.DeleteByUser(userID)
}

// SweepExpired removes every session that expired before now.
func (m *Manager) SweepExpired() (int64, error) {
	n, err := m.sessions.DeleteExpired(m.clock.Now())
	if err != nil {
		return 0, err
	}
	m.metrics.SessionsSwept(n)
	if n > 0 {
		m.logger.Debug("swept expired sessions", "count", n)
	}
	return n, nil
}

type UserInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Language model.Language `json:"language"`
}

func (in *UserInput) normalize(requirePassword bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Language = model.ParseLanguage(string(in.Language))
	if in.Name == "" || in.Email == "" {
		return apperr.Invalid("name and email are required")
	}
	if requirePassword && strings.TrimSpace(in.Password) == "" {
		return apperr.Invalid("password is required")
	}
	return nil
}

func (m *Manager) ListUsers(includeDeleted bool) ([]model.User, error) {
	return m.users.List(includeDeleted)
}

func (m *Manager) CreateUser(in UserInput) (*model.User, error) {
	if err := in.normalize(true); err != nil {
		return nil, err
	}
	existing, err := m.users.GetByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if existing != nil {
		return nil, apperr.Invalid("email %q is already taken", in.Email)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return m.users.Create(in.Name, in.Email, hash, in.Language)
}

// UpdateUser changes profile fields. A blank password keeps the current one.
func (m *Manager) UpdateUser(id model.UserID, in UserInput) (*model.User, error) {
	if err := in.normalize(false); err != nil {
		return nil, err
	}
	user, err := m.activeUser(id, "update")
	if err != nil {
		return nil, err
	}
	if in.Email != user.Email {
		other, err := m.users.GetByEmail(in.Email)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if other != nil {
			return nil, apperr.Invalid("email %q is already taken", in.Email)
		}
	}
	if strings.TrimSpace(in.Password) != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if err := m.users.UpdatePassword(id, hash); err != nil {
			return nil, err
		}
	}
	return m.users.Update(id, in.Name, in.Email, in.Language)
}

// DeactivateUser soft-deletes a user and ends all of their sessions.
func (m *Manager) DeactivateUser(id model.UserID) error {
	if _, err := m.activeUser(id, "deactivate"); err != nil {
		return err
	}
	if err := m.users.SoftDelete(id); err != nil {
		return err
	}
	n, err := m.DeleteAllForUser(id)
	if err != nil {
		return err
	}
	m.logger.Info("user deactivated", "user_id", id, "sessions_deleted", n)
	return nil
}

func (m *Manager) RestoreUser(id model.UserID) error {
	user, err := m.users.GetByID(id)
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}
	if user == nil {
		return apperr.NotFound("user %s", id)
	}
	if !user.IsDeleted() {
		return apperr.Forbidden("user %s is not deleted", id)
	}
	return m.users.Restore(id)
}

// EnsureAdmin creates the admin account on an empty database and returns
// its generated password. It returns an empty password when users exist.
func (m *Manager) EnsureAdmin() (*model.User, string, error) {
	n, err := m.users.Count()
	if err != nil {
		return nil, "", fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil, "", nil
	}
	password, err := m.randomHex(adminPasswordBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate admin password: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user, err := m.users.Create("Admin", AdminHandle, hash, model.LanguageEnglish)
	if err != nil {
		return nil, "", err
	}
	return user, password, nil
}

// activeUser loads a user for a change. Deleted users are Forbidden, not
// NotFound, since they can still be restored.
func (m *Manager) activeUser(id model.UserID, action string) (*model.User, error) {
	user, err := m.users.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %s", id)
	}
	if user.IsDeleted() {
		return nil, apperr.Forbidden("cannot %s deleted user %s", action, id)
	}
	return user, nil
}

func (m *Manager) randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(m.rand, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
