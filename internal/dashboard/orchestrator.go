// Package dashboard maps profile and credential results to screens and redirects.
package dashboard

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/domain"
	"github.com/MrSnakeDoc/inkpad/internal/flash"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
)

// User facing notices.
const (
	MsgProfileCreated   = "Profile created successfully"
	MsgProfileUpdated   = "Profile updated successfully"
	MsgCheckForm        = "Please check the form"
	MsgWrongOldPassword = "Please provide a correct old password"
	MsgPasswordChanged  = "Password changed successfully"
)

// Notices records a one-time message for the current request.
type Notices interface {
	Set(kind flash.Kind, message string)
}

// Orchestrator holds no state between calls.
type Orchestrator struct {
	profiles    domain.ProfileStore
	resolver    *domain.Resolver
	credentials *domain.CredentialService
	log         logger.Logger
}

// New creates an orchestrator.
func New(profiles domain.ProfileStore, resolver *domain.Resolver, credentials *domain.CredentialService, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		profiles:    profiles,
		resolver:    resolver,
		credentials: credentials,
		log:         log,
	}
}

// Dashboard shows the landing screen.
func (o *Orchestrator) Dashboard(ctx context.Context, actor auth.Actor) (Outcome, error) {
	summary, err := o.resolver.Summary(ctx, actor.IdentityID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return redirect(PathCreateProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return render(ScreenDashboard, summary), nil
}

// CreateProfileForm shows an empty profile form, unless a profile exists.
func (o *Orchestrator) CreateProfileForm(ctx context.Context, actor auth.Actor) (Outcome, error) {
	_, err := o.profiles.FindProfileByOwner(ctx, actor.IdentityID)
	if err == nil {
		return redirect(PathEditProfile), nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return Outcome{}, err
	}
	return render(ScreenCreateProfile, ProfileFormView{}), nil
}

// CreateProfile creates the profile of actor from a validated form.
func (o *Orchestrator) CreateProfile(ctx context.Context, actor auth.Actor, form ProfileForm, v Validation, notices Notices) (Outcome, error) {
	if errs := fieldErrors(v); errs != nil {
		return rerender(ScreenCreateProfile, ProfileFormView{Profile: form}, errs, ""), nil
	}

	profile, err := o.profiles.CreateProfile(ctx, actor.IdentityID, form.Fields())
	if errors.Is(err, domain.ErrDuplicateProfile) {
		return redirect(PathEditProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	o.log.Info("profile created",
		logger.String("identity_id", actor.IdentityID),
		logger.String("profile_id", profile.ID))
	notices.Set(flash.KindSuccess, MsgProfileCreated)
	return redirect(PathDashboard), nil
}

// EditProfileForm shows the current profile in the edit form.
func (o *Orchestrator) EditProfileForm(ctx context.Context, actor auth.Actor) (Outcome, error) {
	profile, err := o.profiles.FindProfileByOwner(ctx, actor.IdentityID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return redirect(PathCreateProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return render(ScreenEditProfile, ProfileFormView{Profile: profileFormOf(profile)}), nil
}

// EditProfile replaces the editable fields of actor's profile.
func (o *Orchestrator) EditProfile(ctx context.Context, actor auth.Actor, form ProfileForm, v Validation, notices Notices) (Outcome, error) {
	if errs := fieldErrors(v); errs != nil {
		notices.Set(flash.KindFail, MsgCheckForm)
		return rerender(ScreenEditProfile, ProfileFormView{Profile: form}, errs, ""), nil
	}

	profile, err := o.profiles.UpdateProfileFields(ctx, actor.IdentityID, form.Fields())
	if errors.Is(err, domain.ErrProfileNotFound) {
		return redirect(PathCreateProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	notices.Set(flash.KindSuccess, MsgProfileUpdated)
	return render(ScreenEditProfile, ProfileFormView{Profile: profileFormOf(profile)}), nil
}

// AllBookmarks shows every bookmark of actor.
func (o *Orchestrator) AllBookmarks(ctx context.Context, actor auth.Actor) (Outcome, error) {
	list, err := o.resolver.Bookmarks(ctx, actor.IdentityID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return redirect(PathCreateProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return render(ScreenBookmarks, list), nil
}

// AllComments shows the comments received on actor's posts.
func (o *Orchestrator) AllComments(ctx context.Context, actor auth.Actor) (Outcome, error) {
	list, err := o.resolver.Threads(ctx, actor.IdentityID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return redirect(PathCreateProfile), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return render(ScreenComments, list), nil
}

// ChangePasswordForm shows the change-password screen.
func (o *Orchestrator) ChangePasswordForm(ctx context.Context, actor auth.Actor) (Outcome, error) {
	view, err := o.passwordView(ctx, actor)
	if err != nil {
		return Outcome{}, err
	}
	return render(ScreenChangePassword, view), nil
}

// ChangePassword replaces actor's secret after checking the old one.
func (o *Orchestrator) ChangePassword(ctx context.Context, actor auth.Actor, form PasswordForm, v Validation, notices Notices) (Outcome, error) {
	view, err := o.passwordView(ctx, actor)
	if err != nil {
		return Outcome{}, err
	}

	if errs := fieldErrors(v); errs != nil {
		return rerender(ScreenChangePassword, view, errs, ""), nil
	}

	err = o.credentials.ChangeCredential(ctx, actor.IdentityID, form.OldPassword, form.NewPassword)
	if errors.Is(err, domain.ErrOldSecretMismatch) {
		o.log.Info("password change rejected", logger.String("identity_id", actor.IdentityID))
		return rerender(ScreenChangePassword, view, map[string]string{}, MsgWrongOldPassword), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	o.log.Info("password changed", logger.String("identity_id", actor.IdentityID))
	notices.Set(flash.KindSuccess, MsgPasswordChanged)
	return render(ScreenChangePassword, view), nil
}

func (o *Orchestrator) passwordView(ctx context.Context, actor auth.Actor) (PasswordView, error) {
	header, err := o.resolver.Header(ctx, actor.IdentityID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return PasswordView{}, nil
	}
	if err != nil {
		return PasswordView{}, err
	}
	return PasswordView{Profile: &header}, nil
}
