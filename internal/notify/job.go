package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/metrics"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/scoring"
	"github.com/dukerupert/wg/internal/store"
)

const DefaultRatio = 0.5

type ListReader interface {
	List(includeDeleted bool) ([]model.ChoreList, error)
}

type Scorer interface {
	AdjustedScores(list model.ChoreList) (*scoring.Result, error)
}

type UserReader interface {
	GetByID(id model.UserID) (*model.User, error)
}

type SentLog interface {
	WasSent(userID model.UserID, notifType, refID string) (bool, error)
	RecordSent(userID model.UserID, notifType, refID string) error
}

// Job finds users whose adjusted score on a chore list is below a fraction
// of that list's average and reminds each of them once per day.
type Job struct {
	lists     ListReader
	scorer    Scorer
	users     UserReader
	sent      SentLog
	notifiers []Notifier
	ratio     float64
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewJob(lists *store.ChoreListStore, scorer Scorer, users *store.UserStore, sent *store.PushStore, notifiers []Notifier, ratio float64, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Job {
	return newJob(lists, scorer, users, sent, notifiers, ratio, clk, m, logger)
}

func newJob(lists ListReader, scorer Scorer, users UserReader, sent SentLog, notifiers []Notifier, ratio float64, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Job {
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return &Job{
		lists:     lists,
		scorer:    scorer,
		users:     users,
		sent:      sent,
		notifiers: notifiers,
		ratio:     ratio,
		clock:     clk,
		metrics:   m,
		logger:    logger,
	}
}

// LowScoreUsers maps each low-scoring user to the lists they are behind on,
// in list order.
func (j *Job) LowScoreUsers() (map[model.UserID][]model.ChoreList, error) {
	lists, err := j.lists.List(false)
	if err != nil {
		return nil, fmt.Errorf("list chore lists: %w", err)
	}

	low := make(map[model.UserID][]model.ChoreList)
	for _, l := range lists {
		result, err := j.scorer.AdjustedScores(l)
		if err != nil {
			return nil, fmt.Errorf("score list %s: %w", l.ID, err)
		}
		for _, id := range belowAverage(result.Scores, j.ratio) {
			low[id] = append(low[id], l)
		}
	}
	return low, nil
}

func belowAverage(scores []scoring.UserScore, ratio float64) []model.UserID {
	if len(scores) == 0 {
		return nil
	}
	total := 0
	for _, s := range scores {
		total += s.Adjusted
	}
	avg := float64(total) / float64(len(scores))
	if avg <= 0 {
		return nil
	}
	var ids []model.UserID
	for _, s := range scores {
		if float64(s.Adjusted) < ratio*avg {
			ids = append(ids, s.UserID)
		}
	}
	return ids
}

// Run sends today's reminders. A user is marked as notified once at least
// one channel delivered.
func (j *Job) Run(ctx context.Context) error {
	if len(j.notifiers) == 0 {
		j.logger.Debug("low score job has no notifiers")
		return nil
	}
	low, err := j.LowScoreUsers()
	if err != nil {
		return err
	}
	refID := "low-score-" + clock.Today(j.clock).String()

	notified := 0
	for userID, lists := range low {
		if err := ctx.Err(); err != nil {
			return err
		}
		sent, err := j.sent.WasSent(userID, model.NotifTypeLowScore, refID)
		if err != nil {
			return err
		}
		if sent {
			continue
		}
		user, err := j.users.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil || user.IsDeleted() {
			continue
		}

		delivered := false
		for _, n := range j.notifiers {
			err := n.NotifyLowScore(ctx, *user, lists)
			j.metrics.Notification(n.Name(), err)
			if err != nil {
				j.logger.Error("low score notification failed", "channel", n.Name(), "user_id", userID, "error", err)
				continue
			}
			delivered = true
		}
		if !delivered {
			continue
		}
		if err := j.sent.RecordSent(userID, model.NotifTypeLowScore, refID); err != nil {
			return err
		}
		notified++
	}

	j.logger.Info("low score job finished", "low_users", len(low), "notified", notified)
	return nil
}
