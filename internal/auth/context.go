package auth

import (
	"context"

	"github.com/dukerupert/wg/internal/model"
)

// CookieName is the cookie carrying the session token.
const CookieName = "wg_session"

type contextKey struct{}

// AuthContext is the validated session of a request together with its user.
// It lives only as long as the request.
type AuthContext struct {
	Session model.Session
	User    model.User
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) model.UserID {
	ac, ok := FromContext(ctx)
	if !ok {
		return model.UserID{}
	}
	return ac.User.ID
}

// Language returns the language of the signed-in user, English otherwise.
func Language(ctx context.Context) model.Language {
	ac, ok := FromContext(ctx)
	if !ok {
		return model.LanguageEnglish
	}
	return ac.User.Language
}
