package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/wg/internal/auth"
	"github.com/dukerupert/wg/internal/model"
)

type AuthHandler struct {
	manager      *auth.Manager
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler marks cookies Secure when the site is served over https.
func NewAuthHandler(m *auth.Manager, baseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		manager:      m,
		secureCookie: strings.HasPrefix(baseURL, "https://"),
		logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Login handles POST /login with a JSON or form body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	ac, err := h.manager.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sess := ac.Session

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("user logged in", "user_id", sess.UserID)
	writeJSON(w, http.StatusOK, loginResponse{User: ac.User, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.manager.DeleteSession(ac.Session.ID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, ac.User)
}
