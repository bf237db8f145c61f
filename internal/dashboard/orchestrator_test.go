package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/domain"
	"github.com/MrSnakeDoc/inkpad/internal/flash"
	"github.com/MrSnakeDoc/inkpad/internal/index"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
)

type harness struct {
	idx   *index.MemoryIndex
	orch  *Orchestrator
	creds *domain.CredentialService
	actor auth.Actor
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()
	hasher := domain.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(secret)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	idx := index.NewMemoryIndex()
	if err := idx.SaveIdentity(context.Background(), &domain.Identity{
		ID: "u1", Handle: "ada", Picture: "/ada.png", SecretHash: hash,
	}); err != nil {
		t.Fatalf("SaveIdentity() error = %v", err)
	}

	creds := domain.NewCredentialService(idx, hasher)
	resolver := domain.NewResolver(idx, idx, idx, idx)
	return &harness{
		idx:   idx,
		orch:  New(idx, resolver, creds, logger.New("error", false)),
		creds: creds,
		actor: auth.Actor{IdentityID: "u1", Handle: "ada"},
	}
}

var adaForm = ProfileForm{Name: "Ada", Title: "Engineer", Bio: "x"}

func TestScenarioCreateViewChangePassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "0ldP@ss")

	out, err := h.orch.Dashboard(ctx, h.actor)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if out.Kind != Redirect || out.Target != PathCreateProfile {
		t.Fatalf("Dashboard() without profile = %+v, want redirect to create", out)
	}

	notices := flash.New()
	out, err = h.orch.CreateProfile(ctx, h.actor, adaForm, ValidateProfile(adaForm), notices)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if out.Kind != Redirect || out.Target != PathDashboard {
		t.Fatalf("CreateProfile() = %+v, want redirect to dashboard", out)
	}
	if n, ok := notices.Take(); !ok || n.Message != MsgProfileCreated {
		t.Errorf("notice = %+v, %v", n, ok)
	}

	out, err = h.orch.Dashboard(ctx, h.actor)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	summary, ok := out.View.(*domain.Summary)
	if out.Kind != Render || !ok {
		t.Fatalf("Dashboard() = %+v, want summary render", out)
	}
	want := domain.ProfileSummary{ID: summary.Profile.ID, Name: "Ada", Title: "Engineer", Bio: "x", Picture: "/ada.png"}
	if diff := cmp.Diff(want, summary.Profile); diff != "" {
		t.Errorf("summary profile mismatch (-want +got):\n%s", diff)
	}
	if len(summary.Posts) != 0 || len(summary.Bookmarks) != 0 {
		t.Errorf("summary = %+v, want no posts or bookmarks", summary)
	}

	pw := PasswordForm{OldPassword: "0ldP@ss", NewPassword: "N3wP@ss", ConfirmPassword: "N3wP@ss"}
	notices = flash.New()
	out, err = h.orch.ChangePassword(ctx, h.actor, pw, ValidatePassword(pw), notices)
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if out.Kind != Render || out.Screen != ScreenChangePassword {
		t.Fatalf("ChangePassword() = %+v", out)
	}
	if n, ok := notices.Take(); !ok || n.Message != MsgPasswordChanged {
		t.Errorf("notice = %+v, %v", n, ok)
	}

	if ok, _ := h.creds.Verify(ctx, "u1", "N3wP@ss"); !ok {
		t.Error("new password should verify")
	}
	if ok, _ := h.creds.Verify(ctx, "u1", "0ldP@ss"); ok {
		t.Error("old password should no longer verify")
	}
}

func TestCreateProfileInvalidRerenders(t *testing.T) {
	h := newHarness(t, "secret")
	form := ProfileForm{Name: "", Title: "t", Bio: "b", Website: "ftp://nope"}

	out, err := h.orch.CreateProfile(context.Background(), h.actor, form, ValidateProfile(form), flash.New())
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if out.Kind != Rerender || out.Screen != ScreenCreateProfile {
		t.Fatalf("CreateProfile() = %+v, want rerender", out)
	}
	if _, ok := out.Errors["name"]; !ok {
		t.Errorf("Errors = %v, want name", out.Errors)
	}
	if _, ok := out.Errors["website"]; !ok {
		t.Errorf("Errors = %v, want website", out.Errors)
	}
	if view := out.View.(ProfileFormView); view.Profile != form {
		t.Errorf("submitted values not echoed: %+v", view.Profile)
	}
	if _, err := h.idx.FindProfileByOwner(context.Background(), "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("profile created despite invalid form: %v", err)
	}
}

func TestCreateProfileTwiceRedirectsToEdit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "secret")

	if _, err := h.orch.CreateProfile(ctx, h.actor, adaForm, Valid{}, flash.New()); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	notices := flash.New()
	out, err := h.orch.CreateProfile(ctx, h.actor, adaForm, Valid{}, notices)
	if err != nil {
		t.Fatalf("second CreateProfile() error = %v", err)
	}
	if out.Kind != Redirect || out.Target != PathEditProfile {
		t.Errorf("second CreateProfile() = %+v, want redirect to edit", out)
	}
	if _, ok := notices.Take(); ok {
		t.Error("duplicate create should not set a notice")
	}

	out, err = h.orch.CreateProfileForm(ctx, h.actor)
	if err != nil || out.Kind != Redirect || out.Target != PathEditProfile {
		t.Errorf("CreateProfileForm() = %+v, %v, want redirect to edit", out, err)
	}
}

func TestNoProfileRedirects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "secret")

	ops := map[string]func() (Outcome, error){
		"Dashboard":       func() (Outcome, error) { return h.orch.Dashboard(ctx, h.actor) },
		"EditProfileForm": func() (Outcome, error) { return h.orch.EditProfileForm(ctx, h.actor) },
		"AllBookmarks":    func() (Outcome, error) { return h.orch.AllBookmarks(ctx, h.actor) },
		"AllComments":     func() (Outcome, error) { return h.orch.AllComments(ctx, h.actor) },
		"EditProfile": func() (Outcome, error) {
			return h.orch.EditProfile(ctx, h.actor, adaForm, Valid{}, flash.New())
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			out, err := op()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if out.Kind != Redirect || out.Target != PathCreateProfile {
				t.Errorf("outcome = %+v, want redirect to create", out)
			}
		})
	}

	out, err := h.orch.CreateProfileForm(ctx, h.actor)
	if err != nil || out.Kind != Render || out.Screen != ScreenCreateProfile {
		t.Errorf("CreateProfileForm() = %+v, %v, want empty form", out, err)
	}
}

func TestEditProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "secret")
	if _, err := h.orch.CreateProfile(ctx, h.actor, adaForm, Valid{}, flash.New()); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	t.Run("invalid", func(t *testing.T) {
		form := ProfileForm{Name: "Ada", Title: "", Bio: "x"}
		notices := flash.New()
		out, err := h.orch.EditProfile(ctx, h.actor, form, ValidateProfile(form), notices)
		if err != nil {
			t.Fatalf("EditProfile() error = %v", err)
		}
		if out.Kind != Rerender || out.Errors["title"] == "" {
			t.Errorf("EditProfile() = %+v, want rerender with title error", out)
		}
		if n, _ := notices.Take(); n != (flash.Notice{Kind: flash.KindFail, Message: MsgCheckForm}) {
			t.Errorf("notice = %+v", n)
		}
	})

	t.Run("valid", func(t *testing.T) {
		form := ProfileForm{Name: "Ada L.", Title: "Countess", Bio: "y", GitHub: "https://github.com/ada"}
		notices := flash.New()
		out, err := h.orch.EditProfile(ctx, h.actor, form, ValidateProfile(form), notices)
		if err != nil {
			t.Fatalf("EditProfile() error = %v", err)
		}
		if out.Kind != Render || out.Screen != ScreenEditProfile {
			t.Fatalf("EditProfile() = %+v", out)
		}
		if got := out.View.(ProfileFormView).Profile; got != form {
			t.Errorf("view = %+v, want %+v", got, form)
		}
		if n, _ := notices.Take(); n.Message != MsgProfileUpdated {
			t.Errorf("notice = %+v", n)
		}

		out, err = h.orch.EditProfileForm(ctx, h.actor)
		if err != nil {
			t.Fatalf("EditProfileForm() error = %v", err)
		}
		if got := out.View.(ProfileFormView).Profile; got != form {
			t.Errorf("EditProfileForm() view = %+v, want %+v", got, form)
		}
	})
}

func TestChangePasswordMismatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "0ldP@ss")
	before, _ := h.idx.GetIdentity(ctx, "u1")

	pw := PasswordForm{OldPassword: "wrong", NewPassword: "N3wP@ss", ConfirmPassword: "N3wP@ss"}
	notices := flash.New()
	out, err := h.orch.ChangePassword(ctx, h.actor, pw, ValidatePassword(pw), notices)
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if out.Kind != Rerender || out.Message != MsgWrongOldPassword {
		t.Errorf("ChangePassword() = %+v, want mismatch rerender", out)
	}
	if _, ok := notices.Take(); ok {
		t.Error("mismatch should not set a notice")
	}
	if view := out.View.(PasswordView); view.Profile != nil {
		t.Errorf("view.Profile = %+v, want nil without profile", view.Profile)
	}

	after, _ := h.idx.GetIdentity(ctx, "u1")
	if before.SecretHash != after.SecretHash {
		t.Error("hash changed after mismatch")
	}
}

func TestChangePasswordInvalidForm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "0ldP@ss")
	if _, err := h.orch.CreateProfile(ctx, h.actor, adaForm, Valid{}, flash.New()); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	pw := PasswordForm{OldPassword: "0ldP@ss", NewPassword: "short", ConfirmPassword: "other"}
	out, err := h.orch.ChangePassword(ctx, h.actor, pw, ValidatePassword(pw), flash.New())
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if out.Kind != Rerender || out.Errors["newPassword"] == "" || out.Errors["confirmPassword"] == "" {
		t.Errorf("ChangePassword() = %+v, want field errors", out)
	}
	view := out.View.(PasswordView)
	if view.Profile == nil || view.Profile.Name != "Ada" {
		t.Errorf("view.Profile = %+v, want header", view.Profile)
	}
	if ok, _ := h.creds.Verify(ctx, "u1", "0ldP@ss"); !ok {
		t.Error("invalid form must not change the password")
	}
}

func TestChangePasswordUnknownIdentityIsInfrastructure(t *testing.T) {
	h := newHarness(t, "0ldP@ss")
	ghost := auth.Actor{IdentityID: "ghost"}
	pw := PasswordForm{OldPassword: "0ldP@ss", NewPassword: "N3wP@ss", ConfirmPassword: "N3wP@ss"}

	_, err := h.orch.ChangePassword(context.Background(), ghost, pw, Valid{}, flash.New())
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("ChangePassword() error = %v, want ErrIdentityNotFound", err)
	}
}

func TestAllCommentsRendersThreads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "secret")
	if err := h.idx.SaveIdentity(ctx, &domain.Identity{ID: "u2", Handle: "grace", Picture: "/grace.png"}); err != nil {
		t.Fatalf("SaveIdentity() error = %v", err)
	}
	if _, err := h.orch.CreateProfile(ctx, h.actor, adaForm, Valid{}, flash.New()); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	profile, err := h.idx.FindProfileByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("FindProfileByOwner() error = %v", err)
	}

	now := time.Now()
	if err := h.idx.SavePost(ctx, &domain.Post{ID: "post1", OwnerProfileID: profile.ID, Title: "Hello", CreatedAt: now}); err != nil {
		t.Fatalf("SavePost() error = %v", err)
	}
	profile.Posts = append(profile.Posts, "post1")
	if err := h.idx.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if err := h.idx.SaveComment(ctx, &domain.Comment{ID: "c1", PostID: "post1", AuthorID: "u2", Body: "hi", CreatedAt: now}); err != nil {
		t.Fatalf("SaveComment() error = %v", err)
	}

	out, err := h.orch.AllComments(ctx, h.actor)
	if err != nil {
		t.Fatalf("AllComments() error = %v", err)
	}
	list := out.View.(*domain.ThreadList)
	if len(list.Threads) != 1 || list.Threads[0].Author.Picture != "/grace.png" {
		t.Errorf("threads = %+v", list.Threads)
	}
	if list.Profile.Name != "Ada" {
		t.Errorf("header = %+v", list.Profile)
	}
}
