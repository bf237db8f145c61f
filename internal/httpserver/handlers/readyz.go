package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
)

const storePingTimeout = time.Second

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz answers 503 while the store does not answer a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStore(r.Context(), d); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("driver", d.StoreDriver),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	if d.Store == nil {
		return errStoreMissing
	}
	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	return d.Store.Ping(ctx)
}
