package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "reading-tracker",
		Time:    a.now().UTC().Format(time.RFC3339),
	})
}
