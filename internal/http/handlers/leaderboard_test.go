package handlers

import (
	"net/http"
	"testing"

	"server/internal/domain"
	"server/internal/middleware"
)

func TestDisplayNameFor(t *testing.T) {
	cases := []struct {
		name        string
		displayName string
		email       string
		want        string
	}{
		{"explicit name wins", "Jane D", "jane.doe@example.com", "Jane D"},
		{"dotted local part", "", "jane.doe@example.com", "Jane Doe"},
		{"underscores and dashes", "", "kwame_mensah-jr@example.com", "Kwame Mensah Jr"},
		{"no email", "", "", "Reader"},
		{"empty local part", "", "@example.com", "Reader"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := displayNameFor(tc.displayName, tc.email); got != tc.want {
				t.Fatalf("displayNameFor(%q, %q) = %q, want %q", tc.displayName, tc.email, got, tc.want)
			}
		})
	}
}

func TestLeaderboardRanksByPoints(t *testing.T) {
	f := newFixture(t, nil)
	f.users.Put(domain.User{ID: "u1", Email: "ama@example.com", Points: 3})
	f.users.Put(domain.User{ID: "u2", Email: "kofi.owusu@example.com", Points: 7})
	f.users.Put(domain.User{ID: "u3", Email: "zed@example.com", DisplayName: "Zed", Points: 5})

	rr := f.do(t, middleware.Identity{}, http.MethodGet, "/v1/leaderboard", nil)
	wantStatus(t, rr, http.StatusOK)

	var body struct {
		Items []leaderboardEntry `json:"items"`
	}
	decodeBody(t, rr, &body)
	if len(body.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(body.Items))
	}
	want := []leaderboardEntry{
		{Rank: 1, DisplayName: "Kofi Owusu", Points: 7},
		{Rank: 2, DisplayName: "Zed", Points: 5},
		{Rank: 3, DisplayName: "Ama", Points: 3},
	}
	for i, entry := range want {
		if body.Items[i] != entry {
			t.Fatalf("items[%d] = %+v, want %+v", i, body.Items[i], entry)
		}
	}
}

func TestLeaderboardHonorsSizeLimit(t *testing.T) {
	f := newFixture(t, nil)
	f.app.LeaderboardSize = 2
	f.users.Put(domain.User{ID: "u1", Email: "a@example.com", Points: 1})
	f.users.Put(domain.User{ID: "u2", Email: "b@example.com", Points: 2})
	f.users.Put(domain.User{ID: "u3", Email: "c@example.com", Points: 3})

	rr := f.do(t, middleware.Identity{}, http.MethodGet, "/v1/leaderboard", nil)
	wantStatus(t, rr, http.StatusOK)

	var body struct {
		Items []leaderboardEntry `json:"items"`
	}
	decodeBody(t, rr, &body)
	if len(body.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(body.Items))
	}
}
