package mw

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
)

// Auth verifies the identity token and stores the actor in the request context.
// The token is read from the session cookie, then from an Authorization: Bearer header.
func Auth(v *auth.Verifier, loginURL string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				Unauthorized(w, r, loginURL)
				return
			}

			actor, err := v.Verify(token)
			if err != nil {
				log.Debug("rejected identity token",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				Unauthorized(w, r, loginURL)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// Unauthorized answers 401 JSON to API clients and redirects browsers to loginURL.
func Unauthorized(w http.ResponseWriter, r *http.Request, loginURL string) {
	if WantsJSON(r) || loginURL == "" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// WantsJSON reports whether the client asked for JSON rather than a page.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
