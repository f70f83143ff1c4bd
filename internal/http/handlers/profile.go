package handlers

import (
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
)

type profileDTO struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Points         int64      `json:"points"`
	ActiveSession  bool       `json:"active_session"`
	PaymentStatus  bool       `json:"payment_status"`
	LastActive     *time.Time `json:"last_active,omitempty"`
	LastSessionEnd *time.Time `json:"last_session_end,omitempty"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	user, err := a.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The user record is created lazily on first session start; until
			// then the dashboard sees an empty profile.
			a.json(w, http.StatusOK, profileDTO{
				ID:          id.UserID,
				Email:       id.Email,
				DisplayName: id.DisplayName,
			})
			return
		}
		a.domainError(w, r, err)
		return
	}

	a.json(w, http.StatusOK, profileDTO{
		ID:             user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		Points:         user.Points,
		ActiveSession:  user.ActiveSession,
		PaymentStatus:  user.PaymentStatus,
		LastActive:     user.LastActive,
		LastSessionEnd: user.LastSessionEnd,
	})
}
