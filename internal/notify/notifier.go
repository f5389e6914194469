package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/wg/internal/email"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/push"
	"github.com/dukerupert/wg/internal/store"
)

// Notifier delivers a low-score reminder over one channel.
type Notifier interface {
	Name() string
	NotifyLowScore(ctx context.Context, user model.User, lists []model.ChoreList) error
}

type EmailNotifier struct {
	client *email.Client
}

func NewEmailNotifier(client *email.Client) *EmailNotifier {
	return &EmailNotifier{client: client}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) NotifyLowScore(ctx context.Context, user model.User, lists []model.ChoreList) error {
	return n.client.SendLowScore(ctx, user, lists)
}

type PushNotifier struct {
	service *push.Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewPushNotifier(service *push.Service, subs *store.PushStore, logger *slog.Logger) *PushNotifier {
	return &PushNotifier{service: service, subs: subs, logger: logger}
}

func (n *PushNotifier) Name() string { return "push" }

var pushTexts = map[model.Language]struct{ title, body string }{
	model.LanguageEnglish: {"Your chore score is falling behind", "Behind on: %s"},
	model.LanguageGerman:  {"Dein Punktestand hängt hinterher", "Im Rückstand bei: %s"},
}

// NotifyLowScore sends to every device of the user. Subscriptions the push
// service reports as gone are removed. A user without devices is not an error.
func (n *PushNotifier) NotifyLowScore(ctx context.Context, user model.User, lists []model.ChoreList) error {
	subs, err := n.subs.ListByUser(user.ID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	text, ok := pushTexts[user.Language]
	if !ok {
		text = pushTexts[model.LanguageEnglish]
	}
	names := make([]string, len(lists))
	for i, l := range lists {
		names[i] = l.Name
	}
	payload := push.Payload{
		Title: text.title,
		Body:  fmt.Sprintf(text.body, strings.Join(names, ", ")),
		URL:   "/",
		Tag:   model.NotifTypeLowScore,
	}
	if len(lists) == 1 {
		payload.URL = "/chore-lists/" + lists[0].ID.String()
	}

	var errs []error
	for _, sub := range subs {
		err := n.service.Send(ctx, sub, payload)
		switch {
		case errors.Is(err, push.ErrExpired):
			n.logger.Info("removing expired push subscription", "user_id", user.ID, "subscription_id", sub.ID)
			if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				errs = append(errs, err)
			}
		case err != nil:
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
