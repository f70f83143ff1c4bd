package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/ledger"
)

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sessionStateResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	PausedAccumMillis *int64 `json:"paused_accum_millis,omitempty"`
	TotalActiveMillis *int64 `json:"total_active_millis,omitempty"`
}

func (a *App) SessionStart(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	sessionID, err := a.Ledger.Start(ctx, ledger.StartInput{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, startSessionResponse{SessionID: sessionID})
}

func (a *App) SessionPause(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	changed, err := a.Ledger.Pause(ctx, id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	message := "session paused"
	if !changed {
		message = "session already paused"
	}
	a.json(w, http.StatusOK, sessionStateResponse{Status: "paused", Message: message})
}

func (a *App) SessionResume(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	accum, err := a.Ledger.Resume(ctx, id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sessionStateResponse{
		Status:            "active",
		Message:           "session resumed",
		PausedAccumMillis: &accum,
	})
}

func (a *App) SessionEnd(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	total, err := a.Ledger.End(ctx, id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sessionStateResponse{
		Status:            "ended",
		Message:           "session ended",
		TotalActiveMillis: &total,
	})
}
