package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
	"github.com/MrSnakeDoc/inkpad/internal/domain"
	"github.com/MrSnakeDoc/inkpad/internal/flash"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/index"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
	"github.com/MrSnakeDoc/inkpad/internal/version"
)

const oldSecret = "0ldP@ss"

var ada = auth.Actor{IdentityID: "u1", Handle: "ada", Picture: "/ada.png"}

// brokenStore fails every profile lookup and ping like an unreachable datastore.
type brokenStore struct {
	*index.MemoryIndex
}

var errUnreachable = errors.New("dial tcp 10.0.0.9:6379: connect: connection refused")

func (brokenStore) FindProfileByOwner(context.Context, string) (*domain.Profile, error) {
	return nil, errUnreachable
}

func (brokenStore) Ping(context.Context) error { return errUnreachable }

type env struct {
	d     deps.Deps
	creds *domain.CredentialService
}

func newEnv(t *testing.T, store interface {
	domain.Store
	domain.Seeder
}) *env {
	t.Helper()
	hasher := domain.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(oldSecret)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := store.SaveIdentity(context.Background(), &domain.Identity{
		ID: "u1", Handle: "ada", Picture: "/ada.png", SecretHash: hash,
	}); err != nil {
		t.Fatalf("SaveIdentity() error = %v", err)
	}

	log := logger.New("error", false)
	creds := domain.NewCredentialService(store, hasher)
	resolver := domain.NewResolver(store, store, store, store)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	return &env{
		creds: creds,
		d: deps.Deps{
			Logger:      log,
			StartTime:   start,
			Build:       version.Info{Version: "v1.2.3", Commit: "abc"},
			TimeNow:     func() time.Time { return start.Add(90 * time.Second) },
			Store:       store,
			StoreDriver: "memory",
			Dashboard:   dashboard.New(store, resolver, creds, log),
			Verifier:    auth.NewVerifier([]byte("secret"), ""),
			LoginURL:    "/login",
		},
	}
}

func newMemoryEnv(t *testing.T) *env {
	return newEnv(t, index.NewMemoryIndex())
}

func do(h http.HandlerFunc, actor *auth.Actor, method, target string, body url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}
	if actor != nil {
		r = r.WithContext(auth.WithActor(r.Context(), *actor))
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

type screen struct {
	Screen  string            `json:"screen"`
	Notice  *flash.Notice     `json:"notice"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
	View    json.RawMessage   `json:"view"`
}

func decodeScreen(t *testing.T, w *httptest.ResponseRecorder) screen {
	t.Helper()
	var s screen
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return s
}

func flashCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == flash.CookieName && c.MaxAge >= 0 && c.Value != "" {
			return c
		}
	}
	return nil
}

func validProfile() url.Values {
	return url.Values{"name": {"Ada"}, "title": {"Engineer"}, "bio": {"x"}, "github": {"https://github.com/ada"}}
}

func TestDashboardRedirectsWithoutProfile(t *testing.T) {
	e := newMemoryEnv(t)

	for _, tc := range []struct {
		name string
		h    http.HandlerFunc
	}{
		{"dashboard", Dashboard(e.d)},
		{"edit-profile", EditProfileForm(e.d)},
		{"bookmarks", AllBookmarks(e.d)},
		{"comments", AllComments(e.d)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := do(tc.h, &ada, http.MethodGet, "/", nil)
			if w.Code != http.StatusFound || w.Header().Get("Location") != dashboard.PathCreateProfile {
				t.Errorf("got %d %q, want 302 %q", w.Code, w.Header().Get("Location"), dashboard.PathCreateProfile)
			}
		})
	}
}

func TestUntakenFlashFollowsRedirect(t *testing.T) {
	e := newMemoryEnv(t)

	seed := httptest.NewRecorder()
	notices := flash.New()
	notices.Set(flash.KindSuccess, dashboard.MsgProfileCreated)
	notices.Persist(seed)
	incoming := flashCookie(seed)
	if incoming == nil {
		t.Fatal("expected seeded flash cookie")
	}

	w := do(Dashboard(e.d), &ada, http.MethodGet, dashboard.PathDashboard, nil, incoming)
	if w.Code != http.StatusFound || w.Header().Get("Location") != dashboard.PathCreateProfile {
		t.Fatalf("got %d %q, want 302 %q", w.Code, w.Header().Get("Location"), dashboard.PathCreateProfile)
	}
	carried := flashCookie(w)
	if carried == nil {
		t.Fatal("notice dropped on redirect")
	}

	w = do(CreateProfileForm(e.d), &ada, http.MethodGet, dashboard.PathCreateProfile, nil, carried)
	want := &flash.Notice{Kind: flash.KindSuccess, Message: dashboard.MsgProfileCreated}
	if diff := cmp.Diff(want, decodeScreen(t, w).Notice); diff != "" {
		t.Errorf("notice mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateProfileFlashSurvivesRedirect(t *testing.T) {
	e := newMemoryEnv(t)

	w := do(CreateProfile(e.d), &ada, http.MethodPost, dashboard.PathCreateProfile, validProfile())
	if w.Code != http.StatusFound || w.Header().Get("Location") != dashboard.PathDashboard {
		t.Fatalf("got %d %q, want 302 %q", w.Code, w.Header().Get("Location"), dashboard.PathDashboard)
	}
	cookie := flashCookie(w)
	if cookie == nil {
		t.Fatal("expected flash cookie on redirect")
	}

	w = do(Dashboard(e.d), &ada, http.MethodGet, dashboard.PathDashboard, nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	s := decodeScreen(t, w)
	want := &flash.Notice{Kind: flash.KindSuccess, Message: dashboard.MsgProfileCreated}
	if diff := cmp.Diff(want, s.Notice); diff != "" {
		t.Errorf("notice mismatch (-want +got):\n%s", diff)
	}
	if s.Screen != string(dashboard.ScreenDashboard) {
		t.Errorf("screen = %q", s.Screen)
	}

	var summary domain.Summary
	if err := json.Unmarshal(s.View, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Profile.Name != "Ada" || summary.Profile.Picture != "/ada.png" || summary.Profile.Links.GitHub != "https://github.com/ada" {
		t.Errorf("summary profile = %+v", summary.Profile)
	}

	// Notice is shown once.
	w = do(Dashboard(e.d), &ada, http.MethodGet, dashboard.PathDashboard, nil)
	if s := decodeScreen(t, w); s.Notice != nil {
		t.Errorf("notice repeated: %+v", s.Notice)
	}

	// Second creation goes to the edit form.
	w = do(CreateProfileForm(e.d), &ada, http.MethodGet, dashboard.PathCreateProfile, nil)
	if w.Header().Get("Location") != dashboard.PathEditProfile {
		t.Errorf("Location = %q, want %q", w.Header().Get("Location"), dashboard.PathEditProfile)
	}
}

func TestCreateProfileInvalidJSONRerenders(t *testing.T) {
	e := newMemoryEnv(t)

	r := httptest.NewRequest(http.MethodPost, dashboard.PathCreateProfile,
		strings.NewReader(`{"name":"","title":"Engineer","bio":"x","website":"not a url"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r = r.WithContext(auth.WithActor(r.Context(), ada))
	w := httptest.NewRecorder()
	CreateProfile(e.d)(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	s := decodeScreen(t, w)
	wantErrs := map[string]string{"name": "Name can not be empty", "website": "Please provide a valid URL"}
	if diff := cmp.Diff(wantErrs, s.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	var view dashboard.ProfileFormView
	if err := json.Unmarshal(s.View, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Profile.Title != "Engineer" || view.Profile.Website != "not a url" {
		t.Errorf("submitted values not echoed: %+v", view.Profile)
	}
}

func TestEditProfileInvalidShowsNoticeInline(t *testing.T) {
	e := newMemoryEnv(t)
	do(CreateProfile(e.d), &ada, http.MethodPost, dashboard.PathCreateProfile, validProfile())

	form := validProfile()
	form.Set("bio", "")
	w := do(EditProfile(e.d), &ada, http.MethodPost, dashboard.PathEditProfile, form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	s := decodeScreen(t, w)
	if s.Notice == nil || s.Notice.Kind != flash.KindFail || s.Notice.Message != dashboard.MsgCheckForm {
		t.Errorf("notice = %+v", s.Notice)
	}
	if flashCookie(w) != nil {
		t.Error("rerender must not persist the notice")
	}

	form = validProfile()
	form.Set("title", "Countess")
	w = do(EditProfile(e.d), &ada, http.MethodPost, dashboard.PathEditProfile, form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if s := decodeScreen(t, w); s.Notice == nil || s.Notice.Message != dashboard.MsgProfileUpdated {
		t.Errorf("notice = %+v", s.Notice)
	}
}

func TestChangePassword(t *testing.T) {
	e := newMemoryEnv(t)
	ctx := context.Background()

	wrong := url.Values{"oldPassword": {"guess-1"}, "newPassword": {"N3wP@ss"}, "confirmPassword": {"N3wP@ss"}}
	w := do(ChangePassword(e.d), &ada, http.MethodPost, dashboard.PathChangePassword, wrong)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	s := decodeScreen(t, w)
	if s.Message != dashboard.MsgWrongOldPassword {
		t.Errorf("message = %q", s.Message)
	}
	for _, secret := range []string{"guess-1", "N3wP@ss", "$2a$"} {
		if strings.Contains(w.Body.String(), secret) {
			t.Errorf("response leaks %q: %s", secret, w.Body.String())
		}
	}

	right := url.Values{"oldPassword": {oldSecret}, "newPassword": {"N3wP@ss"}, "confirmPassword": {"N3wP@ss"}}
	w = do(ChangePassword(e.d), &ada, http.MethodPost, dashboard.PathChangePassword, right)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if s := decodeScreen(t, w); s.Notice == nil || s.Notice.Message != dashboard.MsgPasswordChanged {
		t.Errorf("notice = %+v", s.Notice)
	}

	ok, err := e.creds.Verify(ctx, "u1", "N3wP@ss")
	if err != nil || !ok {
		t.Errorf("Verify(new) = %v, %v; want true", ok, err)
	}
}

func TestBadRequestAndAuthFailures(t *testing.T) {
	e := newMemoryEnv(t)
	ghost := auth.Actor{IdentityID: "ghost"}

	r := httptest.NewRequest(http.MethodPost, dashboard.PathChangePassword, strings.NewReader("{"))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithActor(r.Context(), ada))
	w := httptest.NewRecorder()
	ChangePassword(e.d)(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed json status = %d, want 400", w.Code)
	}

	w = do(Dashboard(e.d), nil, http.MethodGet, dashboard.PathDashboard, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("anonymous got %d %q, want 302 /login", w.Code, w.Header().Get("Location"))
	}

	w = do(CreateProfile(e.d), &ghost, http.MethodPost, dashboard.PathCreateProfile, validProfile())
	if w.Code != http.StatusInternalServerError {
		t.Errorf("vanished identity status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "ghost") {
		t.Errorf("body leaks identity: %s", w.Body.String())
	}
}

func TestStoreFailureIsGeneric(t *testing.T) {
	e := newEnv(t, brokenStore{index.NewMemoryIndex()})

	w := do(Dashboard(e.d), &ada, http.MethodGet, dashboard.PathDashboard, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"internal server error"}` {
		t.Errorf("body = %s", got)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	e := newMemoryEnv(t)

	w := do(Healthz(e.d), nil, http.MethodGet, "/healthz", nil)
	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health["status"] != "ok" || health["version"] != "v1.2.3" || health["uptime_seconds"] != 90.0 {
		t.Errorf("healthz = %v", health)
	}

	if w := do(Readyz(e.d), nil, http.MethodGet, "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", w.Code)
	}

	broken := newEnv(t, brokenStore{index.NewMemoryIndex()})
	if w := do(Readyz(broken.d), nil, http.MethodGet, "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("broken readyz status = %d, want 503", w.Code)
	}

	w = do(Infra(broken.d), nil, http.MethodGet, "/infra", nil)
	var infra infraResponse
	if err := json.Unmarshal(w.Body.Bytes(), &infra); err != nil {
		t.Fatalf("decode infra: %v", err)
	}
	if infra.Status != "degraded" || infra.Components["store"].Error != "unreachable" {
		t.Errorf("infra = %+v", infra)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("infra leaks raw error: %s", w.Body.String())
	}
}
