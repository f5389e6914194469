package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/database"
	"github.com/dukerupert/wg/internal/model"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*sql.DB, *clock.Fixed) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, clock.NewFixed(testNow)
}

func createTestUser(t *testing.T, us *UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(email, email, "hash", model.LanguageEnglish)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func date(month time.Month, day int) model.Date {
	return model.NewDate(2024, month, day)
}
