package auth

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/database"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/store"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// countingReader yields 0x00, 0x01, ... so consecutive tokens differ.
type countingReader struct{ next byte }

func (r *countingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

type fixture struct {
	mgr      *Manager
	clk      *clock.Fixed
	users    *store.UserStore
	sessions *store.SessionStore
}

func setupManager(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewFixed(testNow)
	f := &fixture{
		clk:      clk,
		users:    store.NewUserStore(db, clk),
		sessions: store.NewSessionStore(db, clk),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.mgr = NewManager(f.users, f.sessions, clk, logger, WithRandom(&countingReader{}))
	return f
}

func (f *fixture) createUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	u, err := f.mgr.CreateUser(UserInput{Name: email, Email: email, Password: password})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestLoginSuccess(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")

	ac, err := f.mgr.Login(" alice ", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if ac.User.ID != u.ID || ac.User.Email != "alice" {
		t.Errorf("login user = %+v, want alice", ac.User)
	}
	sess := ac.Session
	if sess.UserID != u.ID {
		t.Errorf("session user = %s, want %s", sess.UserID, u.ID)
	}
	if len(sess.Token) != 128 {
		t.Errorf("token length = %d, want 128", len(sess.Token))
	}
	if !strings.HasPrefix(sess.Token, "000102030405") {
		t.Errorf("token %q not drawn from the injected reader", sess.Token)
	}
	if want := testNow.Add(DefaultSessionTTL); !sess.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestLoginFailuresCreateNoSession(t *testing.T) {
	f := setupManager(t)
	alice := f.createUser(t, "alice", "secret")
	bob := f.createUser(t, "bob", "secret")
	if err := f.users.SoftDelete(bob.ID); err != nil {
		t.Fatalf("delete bob: %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "carol", "secret"},
		{"deleted user", "bob", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.Login(tt.email, tt.password)
			if !errors.Is(err, apperr.ErrUnauthenticated) {
				t.Fatalf("err = %v, want ErrUnauthenticated", err)
			}
		})
	}

	for _, id := range []model.UserID{alice.ID, bob.ID} {
		n, err := f.sessions.CountByUser(id)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Errorf("user %s has %d sessions, want 0", id, n)
		}
	}
}

func TestLoginSweepsExpiredSessions(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")

	old, err := f.sessions.Create(u.ID, "old-token", testNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("create old session: %v", err)
	}
	if _, err := f.mgr.Login("alice", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := f.sessions.GetByToken(old.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired session survived login sweep")
	}
	if n, _ := f.sessions.CountByUser(u.ID); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

func TestConcurrentLoginsKeepBothSessions(t *testing.T) {
	f := setupManager(t)
	f.createUser(t, "alice", "secret")

	a, err := f.mgr.Login("alice", "secret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	b, err := f.mgr.Login("alice", "secret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if a.Session.Token == b.Session.Token {
		t.Fatal("two logins share a token")
	}
	for _, s := range []model.Session{a.Session, b.Session} {
		if _, err := f.mgr.Validate(s.Token); err != nil {
			t.Errorf("validate %s: %v", s.ID, err)
		}
	}
}

func TestValidate(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	sess, err := f.mgr.CreateSession(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	ac, err := f.mgr.Validate(sess.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ac.User.ID != u.ID || ac.Session.ID != sess.ID {
		t.Errorf("unexpected auth context %+v", ac)
	}

	if _, err := f.mgr.Validate(""); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("empty token: err = %v", err)
	}
	if _, err := f.mgr.Validate("unknown"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unknown token: err = %v", err)
	}
}

func TestValidateExpiredSession(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	sess, _ := f.mgr.CreateSession(u.ID)

	f.clk.Set(sess.ExpiresAt)
	if _, err := f.mgr.Validate(sess.Token); err != nil {
		t.Fatalf("session must be valid at its expiry instant: %v", err)
	}

	f.clk.Advance(time.Second)
	if _, err := f.mgr.Validate(sess.Token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	got, _ := f.sessions.GetByToken(sess.Token)
	if got == nil {
		t.Error("validate must not delete the expired row")
	}
}

func TestDeleteSession(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	sess, _ := f.mgr.CreateSession(u.ID)

	if err := f.mgr.DeleteSession(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.mgr.Validate(sess.Token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestDeactivateUserEndsSessions(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	a, _ := f.mgr.CreateSession(u.ID)
	b, _ := f.mgr.CreateSession(u.ID)

	if err := f.mgr.DeactivateUser(u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	for _, s := range []*model.Session{a, b} {
		if _, err := f.mgr.Validate(s.Token); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("session %s still valid", s.ID)
		}
	}
	if _, err := f.mgr.Login("alice", "secret"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("deactivated user could log in: %v", err)
	}
	if err := f.mgr.DeactivateUser(u.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("second deactivate: err = %v, want ErrForbidden", err)
	}

	if err := f.mgr.RestoreUser(u.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := f.mgr.Login("alice", "secret"); err != nil {
		t.Errorf("restored user cannot log in: %v", err)
	}
}

func TestUserStateConflictsAreForbidden(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")

	if err := f.mgr.RestoreUser(u.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("restore active user: err = %v, want ErrForbidden", err)
	}

	if err := f.mgr.DeactivateUser(u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.mgr.UpdateUser(u.ID, UserInput{Name: "Al", Email: "alice"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("update deleted user: err = %v, want ErrForbidden", err)
	}

	missing := model.NewID[model.User]()
	tests := []struct {
		name string
		err  error
	}{
		{"restore", f.mgr.RestoreUser(missing)},
		{"deactivate", f.mgr.DeactivateUser(missing)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, apperr.ErrNotFound) {
			t.Errorf("%s missing user: err = %v, want ErrNotFound", tt.name, tt.err)
		}
	}
	if _, err := f.mgr.UpdateUser(missing, UserInput{Name: "x", Email: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing user: err = %v, want ErrNotFound", err)
	}
}

func TestSweepExpired(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	f.sessions.Create(u.ID, "a", testNow.Add(-2*time.Hour))
	f.sessions.Create(u.ID, "b", testNow.Add(-time.Minute))
	f.sessions.Create(u.ID, "c", testNow)
	f.sessions.Create(u.ID, "d", testNow.Add(time.Hour))

	n, err := f.mgr.SweepExpired()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("swept = %d, want 2", n)
	}
}

func TestCreateUserValidation(t *testing.T) {
	f := setupManager(t)
	f.createUser(t, "alice", "secret")

	tests := []struct {
		name string
		in   UserInput
	}{
		{"missing name", UserInput{Email: "x", Password: "p"}},
		{"missing password", UserInput{Name: "X", Email: "x"}},
		{"duplicate email", UserInput{Name: "A", Email: "alice", Password: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.mgr.CreateUser(tt.in); !errors.Is(err, apperr.ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestUpdateUserKeepsPasswordWhenBlank(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")

	updated, err := f.mgr.UpdateUser(u.ID, UserInput{Name: "Alice", Email: "alice", Language: model.LanguageGerman})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alice" || updated.Language != model.LanguageGerman {
		t.Errorf("unexpected user %+v", updated)
	}
	if _, err := f.mgr.Login("alice", "secret"); err != nil {
		t.Errorf("old password stopped working: %v", err)
	}

	if _, err := f.mgr.UpdateUser(u.ID, UserInput{Name: "Alice", Email: "alice", Password: "new"}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := f.mgr.Login("alice", "new"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	f := setupManager(t)

	u, password, err := f.mgr.EnsureAdmin()
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if u == nil || u.Email != AdminHandle {
		t.Fatalf("unexpected admin %+v", u)
	}
	if password != "0001020304050607" {
		t.Errorf("password = %q, want hex of the first 8 random bytes", password)
	}
	if _, err := f.mgr.Login(AdminHandle, password); err != nil {
		t.Errorf("admin cannot log in: %v", err)
	}

	again, password, err := f.mgr.EnsureAdmin()
	if err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if again != nil || password != "" {
		t.Error("admin must only be created on an empty database")
	}
}

func TestCreateSessionRandomFailure(t *testing.T) {
	f := setupManager(t)
	u := f.createUser(t, "alice", "secret")
	f.mgr.rand = bytes.NewReader(make([]byte, 10))

	if _, err := f.mgr.CreateSession(u.ID); err == nil {
		t.Fatal("expected error from short random source")
	}
}
