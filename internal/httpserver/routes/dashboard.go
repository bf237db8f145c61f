package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	passwordLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.PasswordBurst,
		RefillPerMin: d.PasswordRefillPerMin,
		MaxEntries:   10_000,
		TrustProxy:   d.TrustProxy,
		Key:          mw.ActorOrIP(d.TrustProxy),
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.Auth(d.Verifier, d.LoginURL, d.Logger))

		r.Get(dashboard.PathDashboard, handlers.Dashboard(d))
		r.Get(dashboard.PathCreateProfile, handlers.CreateProfileForm(d))
		r.Post(dashboard.PathCreateProfile, handlers.CreateProfile(d))
		r.Get(dashboard.PathEditProfile, handlers.EditProfileForm(d))
		r.Post(dashboard.PathEditProfile, handlers.EditProfile(d))
		r.Get(dashboard.PathBookmarks, handlers.AllBookmarks(d))
		r.Get(dashboard.PathComments, handlers.AllComments(d))
		r.Get(dashboard.PathChangePassword, handlers.ChangePasswordForm(d))
		r.With(passwordLimit).Post(dashboard.PathChangePassword, handlers.ChangePassword(d))
	})
}
