package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/providers/paystack"
)

// storeTimeout bounds every persistence or provider call issued from a
// handler so a stalled backend cannot hang the caller.
const storeTimeout = 10 * time.Second

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Ledger          *ledger.Ledger
	Users           domain.UserRepository
	Payments        domain.PaymentRepository
	Paystack        *paystack.Client
	Logger          zerolog.Logger
	LeaderboardSize int
	Clock           func() time.Time
}

func (a *App) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

func (a *App) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentIdentity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.UserID == "" {
		a.error(w, http.StatusUnauthorized, "unauthenticated", "missing user context")
		return middleware.Identity{}, false
	}
	return id, true
}

// domainError maps ledger errors onto the wire taxonomy. Precondition
// violations go back verbatim; anything unexpected is logged in full and
// surfaced as a generic internal error.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		a.error(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrNotOwner):
		a.error(w, http.StatusForbidden, "not_owner", "session does not belong to user")
	case errors.Is(err, domain.ErrAlreadyActive):
		a.error(w, http.StatusConflict, "already_active", "you already have an active session")
	case errors.Is(err, domain.ErrAlreadyEnded):
		a.error(w, http.StatusConflict, "already_ended", "session already ended")
	case errors.Is(err, domain.ErrNotPaused):
		a.error(w, http.StatusConflict, "not_paused", "session is not paused")
	case errors.Is(err, domain.ErrSessionTooShort):
		a.error(w, http.StatusUnprocessableEntity, "session_too_short", "session has not reached the minimum duration")
	default:
		a.Logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("internal error")
		a.error(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}
