package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"display_name"`
	Points      int64  `json:"points"`
}

var titleCaser = cases.Title(language.English)

// displayNameFor falls back to a readable name derived from the email local
// part when the user never set a display name.
func displayNameFor(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "Reader"
	}
	cleaned := strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return titleCaser.String(cleaned)
}

func (a *App) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := a.LeaderboardSize
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := a.opCtx(r)
	defer cancel()

	users, err := a.Users.TopByPoints(ctx, limit)
	if err != nil {
		a.domainError(w, r, err)
		return
	}

	items := make([]leaderboardEntry, 0, len(users))
	for i, u := range users {
		items = append(items, leaderboardEntry{
			Rank:        i + 1,
			DisplayName: displayNameFor(u.DisplayName, u.Email),
			Points:      u.Points,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
