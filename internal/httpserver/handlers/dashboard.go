package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
	"github.com/MrSnakeDoc/inkpad/internal/flash"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/mw"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
)

// screenResponse is the JSON body of every rendered dashboard screen.
type screenResponse struct {
	Screen  dashboard.Screen  `json:"screen"`
	Notice  *flash.Notice     `json:"notice,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
	View    any               `json:"view"`
}

type dashboardOp func(w http.ResponseWriter, r *http.Request, actor auth.Actor, notices dashboard.Notices) (dashboard.Outcome, error)

func Dashboard(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.Dashboard(r.Context(), actor)
	})
}

func CreateProfileForm(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.CreateProfileForm(r.Context(), actor)
	})
}

func CreateProfile(d deps.Deps) http.HandlerFunc {
	return serve(d, func(w http.ResponseWriter, r *http.Request, actor auth.Actor, notices dashboard.Notices) (dashboard.Outcome, error) {
		form, err := parseProfileForm(w, r)
		if err != nil {
			return dashboard.Outcome{}, err
		}
		return d.Dashboard.CreateProfile(r.Context(), actor, form, dashboard.ValidateProfile(form), notices)
	})
}

func EditProfileForm(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.EditProfileForm(r.Context(), actor)
	})
}

func EditProfile(d deps.Deps) http.HandlerFunc {
	return serve(d, func(w http.ResponseWriter, r *http.Request, actor auth.Actor, notices dashboard.Notices) (dashboard.Outcome, error) {
		form, err := parseProfileForm(w, r)
		if err != nil {
			return dashboard.Outcome{}, err
		}
		return d.Dashboard.EditProfile(r.Context(), actor, form, dashboard.ValidateProfile(form), notices)
	})
}

func AllBookmarks(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.AllBookmarks(r.Context(), actor)
	})
}

func AllComments(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.AllComments(r.Context(), actor)
	})
}

func ChangePasswordForm(d deps.Deps) http.HandlerFunc {
	return serve(d, func(_ http.ResponseWriter, r *http.Request, actor auth.Actor, _ dashboard.Notices) (dashboard.Outcome, error) {
		return d.Dashboard.ChangePasswordForm(r.Context(), actor)
	})
}

func ChangePassword(d deps.Deps) http.HandlerFunc {
	return serve(d, func(w http.ResponseWriter, r *http.Request, actor auth.Actor, notices dashboard.Notices) (dashboard.Outcome, error) {
		form, err := parsePasswordForm(w, r)
		if err != nil {
			return dashboard.Outcome{}, err
		}
		return d.Dashboard.ChangePassword(r.Context(), actor, form, dashboard.ValidatePassword(form), notices)
	})
}

// serve runs op for the authenticated actor and writes its outcome.
// Datastore errors never reach the client.
func serve(d deps.Deps, op dashboardOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		if !ok {
			mw.Unauthorized(w, r, d.LoginURL)
			return
		}

		notices := flash.FromRequest(w, r)
		out, err := op(w, r, actor, notices)
		switch {
		case err == nil:
			writeOutcome(w, r, notices, out)
		case errors.Is(err, errBadForm):
			d.Logger.Debug("malformed dashboard form",
				logger.String("path", r.URL.Path),
				logger.Error(err))
			writeError(w, http.StatusBadRequest, "bad request")
		default:
			d.Logger.Error("dashboard request failed",
				logger.String("path", r.URL.Path),
				logger.String("identity_id", actor.IdentityID),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

func writeOutcome(w http.ResponseWriter, r *http.Request, notices *flash.Channel, out dashboard.Outcome) {
	if out.Kind == dashboard.Redirect {
		notices.Persist(w)
		http.Redirect(w, r, out.Target, http.StatusFound)
		return
	}

	status := http.StatusOK
	if out.Kind == dashboard.Rerender {
		status = http.StatusUnprocessableEntity
	}

	resp := screenResponse{
		Screen:  out.Screen,
		Errors:  out.Errors,
		Message: out.Message,
		View:    out.View,
	}
	if notice, ok := notices.Take(); ok {
		resp.Notice = &notice
	}
	writeJSON(w, status, resp)
}
