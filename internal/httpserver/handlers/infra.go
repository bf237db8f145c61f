package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
)

var errStoreMissing = errors.New("store not initialized")

type componentStatus struct {
	OK        bool   `json:"ok"`
	Driver    string `json:"driver,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports each backing component. Errors are summarized, never raw.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store": checkStore(r, d),
			"auth":  {OK: d.Verifier != nil},
		}

		status := "operational"
		for _, c := range components {
			if !c.OK {
				status = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     status,
			Components: components,
		})
	}
}

func checkStore(r *http.Request, d deps.Deps) componentStatus {
	start := d.Now()
	err := pingStore(r.Context(), d)
	status := componentStatus{
		OK:        err == nil,
		Driver:    d.StoreDriver,
		LatencyMS: d.Now().Sub(start).Milliseconds(),
	}
	switch {
	case errors.Is(err, errStoreMissing):
		status.Error = "not initialized"
	case err != nil:
		status.Error = "unreachable"
	}
	return status
}
