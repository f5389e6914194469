package chore

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/database"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/store"
)

type fixture struct {
	svc        *Service
	clk        *clock.Fixed
	lists      *store.ChoreListStore
	chores     *store.ChoreStore
	activities *store.ActivityStore
	list       *model.ChoreList
	alice, bob *model.User
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	f := &fixture{
		clk:        clk,
		lists:      store.NewChoreListStore(db, clk),
		chores:     store.NewChoreStore(db, clk),
		activities: store.NewActivityStore(db, clk),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.lists, f.chores, f.activities, clk, logger)

	users := store.NewUserStore(db, clk)
	f.alice, _ = users.Create("Alice", "alice@example.com", "hash", model.LanguageEnglish)
	f.bob, _ = users.Create("Bob", "bob@example.com", "hash", model.LanguageEnglish)
	f.list, err = f.lists.Create("Flat", "", model.ResetMonthly)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	return f
}

func (f *fixture) setToday(month time.Month, day int) {
	f.clk.Set(time.Date(2024, month, day, 9, 0, 0, 0, time.UTC))
}

func TestCreateChoreSetsDueDateFromCreation(t *testing.T) {
	f := setupService(t)

	c, err := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.NextDueDate == nil || !c.NextDueDate.Equal(d(1, 8)) {
		t.Errorf("next due = %v, want 2024-01-08", c.NextDueDate)
	}

	plain, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Windows", Points: 1})
	if plain.NextDueDate != nil {
		t.Errorf("chore without interval got due date %s", plain.NextDueDate)
	}
}

func TestLogActivityMovesDueDate(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})

	f.setToday(1, 5)
	if _, err := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: d(1, 5)}); err != nil {
		t.Fatalf("log activity: %v", err)
	}

	got, _ := f.chores.GetByID(c.ID)
	if got.NextDueDate == nil || !got.NextDueDate.Equal(d(1, 12)) {
		t.Fatalf("next due = %v, want 2024-01-12", got.NextDueDate)
	}

	updated, err := f.svc.RecomputeDueDate(c.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if updated {
		t.Error("second recompute should be a no-op")
	}
}

func TestLogActivityDateWindow(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2})
	f.setToday(1, 10)

	for _, day := range []int{8, 9, 10} {
		if _, err := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: d(1, day)}); err != nil {
			t.Errorf("day %d: unexpected error %v", day, err)
		}
	}
	for _, day := range []int{7, 11} {
		_, err := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: d(1, day)})
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("day %d: err = %v, want ErrInvalid", day, err)
		}
	}
}

func TestLogActivityPreconditions(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2})
	other, _ := f.lists.Create("Other", "", model.ResetMonthly)
	foreign, _ := f.svc.CreateChore(other.ID, ChoreInput{Name: "Foreign", Points: 1})
	deleted, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Gone", Points: 1})
	f.svc.DeleteChore(f.list.ID, deleted.ID)

	today := d(1, 1)
	tests := []struct {
		name    string
		listID  model.ChoreListID
		choreID model.ChoreID
		want    error
	}{
		{"unknown chore", f.list.ID, model.NewID[model.Chore](), apperr.ErrInvalid},
		{"chore of other list", f.list.ID, foreign.ID, apperr.ErrInvalid},
		{"deleted chore", f.list.ID, deleted.ID, apperr.ErrForbidden},
		{"unknown list", model.NewID[model.ChoreList](), c.ID, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.LogActivity(tt.listID, f.alice.ID, ActivityInput{ChoreID: tt.choreID, Date: today})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	f.lists.SoftDelete(f.list.ID)
	_, err := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: today})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("deleted list: err = %v, want ErrForbidden", err)
	}
}

func TestDeleteAndRestoreActivityRecomputes(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})

	f.setToday(1, 5)
	a, _ := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: d(1, 5)})

	if err := f.svc.DeleteActivity(f.list.ID, f.bob.ID, a.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("delete by other user: err = %v, want ErrForbidden", err)
	}

	if err := f.svc.DeleteActivity(f.list.ID, f.alice.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := f.chores.GetByID(c.ID)
	if !got.NextDueDate.Equal(d(1, 8)) {
		t.Errorf("after delete next due = %s, want creation + 7", got.NextDueDate)
	}

	if err := f.svc.RestoreActivity(f.list.ID, f.alice.ID, a.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ = f.chores.GetByID(c.ID)
	if !got.NextDueDate.Equal(d(1, 12)) {
		t.Errorf("after restore next due = %s, want 2024-01-12", got.NextDueDate)
	}
}

func TestUpdateActivityRecomputesBothChores(t *testing.T) {
	f := setupService(t)
	bins, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})
	floor, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Floor", Points: 3, IntervalDays: intPtr(3)})

	f.setToday(1, 5)
	a, _ := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: bins.ID, Date: d(1, 5)})

	if _, err := f.svc.UpdateActivity(f.list.ID, f.bob.ID, a.ID, ActivityInput{ChoreID: floor.ID, Date: d(1, 4)}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("update by other user: err = %v, want ErrForbidden", err)
	}

	if _, err := f.svc.UpdateActivity(f.list.ID, f.alice.ID, a.ID, ActivityInput{ChoreID: floor.ID, Date: d(1, 4)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	gotBins, _ := f.chores.GetByID(bins.ID)
	if !gotBins.NextDueDate.Equal(d(1, 8)) {
		t.Errorf("bins next due = %s, want 2024-01-08", gotBins.NextDueDate)
	}
	gotFloor, _ := f.chores.GetByID(floor.ID)
	if !gotFloor.NextDueDate.Equal(d(1, 7)) {
		t.Errorf("floor next due = %s, want 2024-01-07", gotFloor.NextDueDate)
	}
}

func TestUpdateActivityTooOld(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2})
	a, _ := f.svc.LogActivity(f.list.ID, f.alice.ID, ActivityInput{ChoreID: c.ID, Date: d(1, 1)})

	f.setToday(1, 4)
	_, err := f.svc.UpdateActivity(f.list.ID, f.alice.ID, a.ID, ActivityInput{ChoreID: c.ID, Date: d(1, 4)})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateChoreIntervalChange(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})

	updated, err := f.svc.UpdateChore(f.list.ID, c.ID, ChoreInput{Name: "Bins", Points: 2})
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.NextDueDate != nil {
		t.Errorf("next due = %s, want nil after removing interval", updated.NextDueDate)
	}

	updated, _ = f.svc.UpdateChore(f.list.ID, c.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(2)})
	if updated.NextDueDate == nil || !updated.NextDueDate.Equal(d(1, 3)) {
		t.Errorf("next due = %v, want 2024-01-03", updated.NextDueDate)
	}
}

func TestChoreInputValidation(t *testing.T) {
	f := setupService(t)
	bad := []ChoreInput{
		{Name: "  ", Points: 1},
		{Name: "x", Points: -1},
		{Name: "x", Points: 1, IntervalDays: intPtr(0)},
	}
	for _, in := range bad {
		if _, err := f.svc.CreateChore(f.list.ID, in); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("input %+v: err = %v, want ErrInvalid", in, err)
		}
	}
}

func TestRecomputeDueDateConcurrent(t *testing.T) {
	f := setupService(t)
	c, _ := f.svc.CreateChore(f.list.ID, ChoreInput{Name: "Bins", Points: 2, IntervalDays: intPtr(7)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RecomputeDueDate(c.ID); err != nil {
				t.Errorf("recompute: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := f.chores.GetByID(c.ID)
	if !got.NextDueDate.Equal(d(1, 8)) {
		t.Errorf("next due = %s, want 2024-01-08", got.NextDueDate)
	}
	if len(f.svc.locks.locks) != 0 {
		t.Errorf("lock table not cleaned up: %d entries", len(f.svc.locks.locks))
	}
}
