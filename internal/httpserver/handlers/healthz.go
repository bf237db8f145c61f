package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	version.Info
}

// Healthz reports liveness and build identity. It never touches the store.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Info:          d.Build,
		})
	}
}
