package dashboard

import "github.com/MrSnakeDoc/inkpad/internal/domain"

// Dashboard paths used as redirect targets.
const (
	PathDashboard      = "/dashboard"
	PathCreateProfile  = "/dashboard/create-profile"
	PathEditProfile    = "/dashboard/edit-profile"
	PathBookmarks      = "/dashboard/bookmarks"
	PathComments       = "/dashboard/comments"
	PathChangePassword = "/dashboard/change-password"
)

// Kind tells the transport what to do with an Outcome.
type Kind int

const (
	// Render shows a screen.
	Render Kind = iota
	// Redirect sends the client to Target.
	Redirect
	// Rerender shows a form screen again with its errors.
	Rerender
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Rerender:
		return "rerender"
	default:
		return "unknown"
	}
}

// Screen names a dashboard view.
type Screen string

const (
	ScreenDashboard      Screen = "dashboard"
	ScreenCreateProfile  Screen = "create-profile"
	ScreenEditProfile    Screen = "edit-profile"
	ScreenBookmarks      Screen = "bookmarks"
	ScreenComments       Screen = "comments"
	ScreenChangePassword Screen = "change-password"
)

// Outcome is the result of a dashboard operation.
type Outcome struct {
	Kind   Kind
	Screen Screen
	Target string
	View   any
	// Errors holds field messages on Rerender.
	Errors map[string]string
	// Message is a form level error shown on Rerender.
	Message string
}

func render(screen Screen, view any) Outcome {
	return Outcome{Kind: Render, Screen: screen, View: view}
}

func redirect(target string) Outcome {
	return Outcome{Kind: Redirect, Target: target}
}

func rerender(screen Screen, view any, errs map[string]string, message string) Outcome {
	return Outcome{Kind: Rerender, Screen: screen, View: view, Errors: errs, Message: message}
}

// ProfileFormView backs the create and edit profile screens.
type ProfileFormView struct {
	Profile ProfileForm `json:"profile"`
}

// PasswordView backs the change-password screen. Profile is nil when the
// identity has not created a profile yet.
type PasswordView struct {
	Profile *domain.ProfileHeader `json:"profile"`
}
