package store

import (
	"testing"
	"time"
)

func TestSessionCreateAndGetByToken(t *testing.T) {
	db, clk := setupTestDB(t)
	us := NewUserStore(db, clk)
	ss := NewSessionStore(db, clk)
	u := createTestUser(t, us, "alice@example.com")

	expires := testNow.Add(30 * 24 * time.Hour)
	created, err := ss.Create(u.ID, "tok-1", expires)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !created.ExpiresAt.Equal(expires) {
		t.Errorf("expires_at = %v, want %v", created.ExpiresAt, expires)
	}

	sess, err := ss.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID || sess.UserID != u.ID {
		t.Errorf("session = %+v, want %+v", sess, created)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	db, clk := setupTestDB(t)
	ss := NewSessionStore(db, clk)

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionGetByTokenReturnsExpired(t *testing.T) {
	db, clk := setupTestDB(t)
	us := NewUserStore(db, clk)
	ss := NewSessionStore(db, clk)
	u := createTestUser(t, us, "alice@example.com")

	ss.Create(u.ID, "old", testNow.Add(-time.Hour))
	sess, err := ss.GetByToken("old")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("store must return expired sessions; expiry is checked by the caller")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db, clk := setupTestDB(t)
	us := NewUserStore(db, clk)
	ss := NewSessionStore(db, clk)
	u := createTestUser(t, us, "alice@example.com")

	ss.Create(u.ID, "expired-1", testNow.Add(-48*time.Hour))
	ss.Create(u.ID, "expired-2", testNow.Add(-time.Second))
	ss.Create(u.ID, "exact", testNow)
	ss.Create(u.ID, "valid", testNow.Add(time.Hour))

	n, err := ss.DeleteExpired(testNow)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	for _, tok := range []string{"exact", "valid"} {
		if sess, _ := ss.GetByToken(tok); sess == nil {
			t.Errorf("session %q should survive", tok)
		}
	}
}

func TestSessionDeleteByUser(t *testing.T) {
	db, clk := setupTestDB(t)
	us := NewUserStore(db, clk)
	ss := NewSessionStore(db, clk)
	alice := createTestUser(t, us, "alice@example.com")
	bob := createTestUser(t, us, "bob@example.com")

	ss.Create(alice.ID, "a1", testNow.Add(time.Hour))
	ss.Create(alice.ID, "a2", testNow.Add(time.Hour))
	ss.Create(bob.ID, "b1", testNow.Add(time.Hour))

	n, err := ss.DeleteByUser(alice.ID)
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if c, _ := ss.CountByUser(alice.ID); c != 0 {
		t.Errorf("alice sessions = %d, want 0", c)
	}
	if c, _ := ss.CountByUser(bob.ID); c != 1 {
		t.Errorf("bob sessions = %d, want 1", c)
	}
}
