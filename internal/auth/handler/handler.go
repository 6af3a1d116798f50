package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leadbook/internal/auth/models"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/platform/httputil"
	authmw "leadbook/pkg/platform/middleware/auth"
	"leadbook/pkg/requestcontext"
)

// Service defines the sign-in operations the HTTP layer needs.
type Service interface {
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// Handler serves the /api/auth endpoints.
type Handler struct {
	auth         Service
	logger       *slog.Logger
	requireAuth  func(http.Handler) http.Handler
	secureCookie bool
}

func New(auth Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler, secureCookie bool) *Handler {
	return &Handler{
		auth:         auth,
		logger:       logger,
		requireAuth:  requireAuth,
		secureCookie: secureCookie,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signin", h.handleSignIn)
		r.Post("/signout", h.handleSignOut)
		r.With(h.requireAuth).Get("/session", h.handleSession)
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[models.SignInRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.auth.SignIn(ctx, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "sign in failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.auth.CurrentUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Session{User: user})
}
