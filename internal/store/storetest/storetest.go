// Package storetest holds the behaviour every datastore driver must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

// Driver is a store under test.
type Driver interface {
	domain.Store
	domain.Seeder
}

// Run exercises newDriver against the store contract. newDriver must return
// an empty store on every call.
func Run(t *testing.T, newDriver func(t *testing.T) Driver) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, d Driver)
	}{
		{"CreateProfileDefaults", testCreateProfileDefaults},
		{"CreateProfileDuplicate", testCreateProfileDuplicate},
		{"CreateProfileConcurrent", testCreateProfileConcurrent},
		{"CreateProfileUnknownIdentity", testCreateProfileUnknownIdentity},
		{"FindProfileNotFound", testFindProfileNotFound},
		{"UpdateProfileFields", testUpdateProfileFields},
		{"ReplaceSecretHash", testReplaceSecretHash},
		{"IdentityCards", testIdentityCards},
		{"PostsByID", testPostsByID},
		{"CommentsForPosts", testCommentsForPosts},
		{"SaveProfileOwnerUnique", testSaveProfileOwnerUnique},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDriver(t)
			seedIdentity(t, d, "u1", "ada")
			tt.fn(t, d)
		})
	}
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedIdentity(t *testing.T, d Driver, id, handle string) {
	t.Helper()
	if err := d.SaveIdentity(context.Background(), &domain.Identity{
		ID:         id,
		Handle:     handle,
		SecretHash: "hash-" + id,
		Picture:    "/" + handle + ".png",
		CreatedAt:  base,
	}); err != nil {
		t.Fatalf("SaveIdentity(%s) error = %v", id, err)
	}
}

func testCreateProfileDefaults(t *testing.T, d Driver) {
	ctx := context.Background()
	fields := domain.ProfileFields{
		Name: "Ada", Title: "Engineer", Bio: "x",
		Links: domain.Links{GitHub: "https://github.com/ada"},
	}

	created, err := d.CreateProfile(ctx, "u1", fields)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if created.ID == "" || created.OwnerID != "u1" {
		t.Errorf("created = %+v", created)
	}
	if created.Picture != "/ada.png" {
		t.Errorf("Picture = %q, want copied from identity", created.Picture)
	}

	found, err := d.FindProfileByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("FindProfileByOwner() error = %v", err)
	}
	if diff := cmp.Diff(fields, found.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if found.Links.Website != "" || found.Links.Facebook != "" || found.Links.LinkedIn != "" {
		t.Errorf("absent links should be empty: %+v", found.Links)
	}
	if found.Posts == nil || found.Bookmarks == nil || len(found.Posts)+len(found.Bookmarks) != 0 {
		t.Errorf("collections = %#v %#v, want empty", found.Posts, found.Bookmarks)
	}

	identity, err := d.GetIdentity(ctx, "u1")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if identity.ProfileID != created.ID {
		t.Errorf("identity.ProfileID = %q, want %q", identity.ProfileID, created.ID)
	}
}

func testCreateProfileDuplicate(t *testing.T, d Driver) {
	ctx := context.Background()
	first, err := d.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Ada"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := d.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Other"}); !errors.Is(err, domain.ErrDuplicateProfile) {
		t.Fatalf("second CreateProfile() error = %v, want ErrDuplicateProfile", err)
	}

	found, err := d.FindProfileByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("FindProfileByOwner() error = %v", err)
	}
	if found.ID != first.ID || found.Name != "Ada" {
		t.Errorf("profile replaced by duplicate: %+v", found)
	}
}

func testCreateProfileConcurrent(t *testing.T, d Driver) {
	ctx := context.Background()
	const workers = 8

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
		failures   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Ada"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateProfile):
				duplicates++
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected errors: %v", failures)
	}
	if created != 1 || duplicates != workers-1 {
		t.Errorf("created = %d, duplicates = %d", created, duplicates)
	}
}

func testCreateProfileUnknownIdentity(t *testing.T, d Driver) {
	_, err := d.CreateProfile(context.Background(), "ghost", domain.ProfileFields{Name: "x"})
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("CreateProfile() error = %v, want ErrIdentityNotFound", err)
	}
}

func testFindProfileNotFound(t *testing.T, d Driver) {
	if _, err := d.FindProfileByOwner(context.Background(), "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("FindProfileByOwner() error = %v, want ErrProfileNotFound", err)
	}
	_, err := d.UpdateProfileFields(context.Background(), "u1", domain.ProfileFields{Name: "x"})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("UpdateProfileFields() error = %v, want ErrProfileNotFound", err)
	}
}

func testUpdateProfileFields(t *testing.T, d Driver) {
	ctx := context.Background()
	if err := d.SaveProfile(ctx, &domain.Profile{
		ID: "p1", OwnerID: "u1", Name: "Ada", Picture: "/ada.png",
		Links:     domain.Links{Website: "https://ada.dev"},
		Posts:     []string{"a", "b"},
		Bookmarks: []string{"c"},
		CreatedAt: base,
		UpdatedAt: base,
	}); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	fields := domain.ProfileFields{Name: "Ada L.", Title: "Countess", Bio: "y"}
	updated, err := d.UpdateProfileFields(ctx, "u1", fields)
	if err != nil {
		t.Fatalf("UpdateProfileFields() error = %v", err)
	}
	if diff := cmp.Diff(fields, updated.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, updated.Posts); diff != "" {
		t.Errorf("posts changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, updated.Bookmarks); diff != "" {
		t.Errorf("bookmarks changed (-want +got):\n%s", diff)
	}
	if updated.Picture != "/ada.png" || updated.ID != "p1" {
		t.Errorf("immutable fields changed: %+v", updated)
	}
}

func testReplaceSecretHash(t *testing.T, d Driver) {
	ctx := context.Background()
	if err := d.ReplaceSecretHash(ctx, "u1", "new-hash"); err != nil {
		t.Fatalf("ReplaceSecretHash() error = %v", err)
	}
	identity, err := d.GetIdentity(ctx, "u1")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if identity.SecretHash != "new-hash" || identity.Handle != "ada" {
		t.Errorf("identity = %+v", identity)
	}

	if err := d.ReplaceSecretHash(ctx, "ghost", "x"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("ReplaceSecretHash(ghost) error = %v, want ErrIdentityNotFound", err)
	}
	if _, err := d.GetIdentity(ctx, "ghost"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("GetIdentity(ghost) error = %v, want ErrIdentityNotFound", err)
	}
}

func testIdentityCards(t *testing.T, d Driver) {
	seedIdentity(t, d, "u2", "grace")

	cards, err := d.IdentityCards(context.Background(), []string{"u1", "ghost", "u2"})
	if err != nil {
		t.Fatalf("IdentityCards() error = %v", err)
	}
	want := map[string]domain.IdentityCard{
		"u1": {ID: "u1", Handle: "ada", Picture: "/ada.png"},
		"u2": {ID: "u2", Handle: "grace", Picture: "/grace.png"},
	}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Errorf("IdentityCards() mismatch (-want +got):\n%s", diff)
	}
}

func testPostsByID(t *testing.T, d Driver) {
	ctx := context.Background()
	for i, id := range []string{"p-a", "p-b", "p-c"} {
		if err := d.SavePost(ctx, &domain.Post{
			ID: id, OwnerProfileID: "owner", Title: "t " + id, Thumbnail: "/" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("SavePost() error = %v", err)
		}
	}

	posts, err := d.PostsByID(ctx, []string{"p-c", "missing", "p-a"})
	if err != nil {
		t.Fatalf("PostsByID() error = %v", err)
	}
	want := []domain.Post{
		{ID: "p-c", OwnerProfileID: "owner", Title: "t p-c", Thumbnail: "/p-c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "p-a", OwnerProfileID: "owner", Title: "t p-a", Thumbnail: "/p-a", CreatedAt: base},
	}
	if diff := cmp.Diff(want, posts, timeEqual); diff != "" {
		t.Errorf("PostsByID() mismatch (-want +got):\n%s", diff)
	}

	empty, err := d.PostsByID(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("PostsByID(nil) = %v, %v", empty, err)
	}
}

func testCommentsForPosts(t *testing.T, d Driver) {
	ctx := context.Background()
	comments := []*domain.Comment{
		{ID: "c1", PostID: "post1", AuthorID: "u1", Body: "first", CreatedAt: base},
		{ID: "c2", PostID: "post2", AuthorID: "u1", Body: "other", CreatedAt: base},
		{
			ID: "c3", PostID: "post1", AuthorID: "u1", Body: "second", CreatedAt: base.Add(time.Minute),
			Replies: []domain.Reply{
				{AuthorID: "u1", Body: "r1", CreatedAt: base.Add(2 * time.Minute)},
				{AuthorID: "u1", Body: "r2", CreatedAt: base.Add(3 * time.Minute)},
			},
		},
	}
	for _, c := range comments {
		if err := d.SaveComment(ctx, c); err != nil {
			t.Fatalf("SaveComment() error = %v", err)
		}
	}
	// Saving again must not duplicate the index entry.
	if err := d.SaveComment(ctx, comments[0]); err != nil {
		t.Fatalf("SaveComment() error = %v", err)
	}

	got, err := d.CommentsForPosts(ctx, []string{"post1", "nothing"})
	if err != nil {
		t.Fatalf("CommentsForPosts() error = %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"c1", "c3"}, ids); diff != "" {
		t.Fatalf("CommentsForPosts() ids mismatch (-want +got):\n%s", diff)
	}
	if len(got[1].Replies) != 2 || got[1].Replies[0].Body != "r1" || got[1].Replies[1].Body != "r2" {
		t.Errorf("replies = %+v", got[1].Replies)
	}
	if !got[1].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("CreatedAt = %v", got[1].CreatedAt)
	}

	repeated, err := d.CommentsForPosts(ctx, []string{"post1", "post2", "post1"})
	if err != nil {
		t.Fatalf("CommentsForPosts(repeated) error = %v", err)
	}
	ids = ids[:0]
	for _, c := range repeated {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"c1", "c3", "c2"}, ids); diff != "" {
		t.Errorf("CommentsForPosts(repeated) ids mismatch (-want +got):\n%s", diff)
	}

	none, err := d.CommentsForPosts(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("CommentsForPosts(nil) = %v, %v", none, err)
	}
}

func testSaveProfileOwnerUnique(t *testing.T, d Driver) {
	ctx := context.Background()
	if err := d.SaveProfile(ctx, &domain.Profile{ID: "p1", OwnerID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if err := d.SaveProfile(ctx, &domain.Profile{ID: "p1", OwnerID: "u1", Name: "Ada again"}); err != nil {
		t.Fatalf("SaveProfile(same id) error = %v", err)
	}
	err := d.SaveProfile(ctx, &domain.Profile{ID: "p2", OwnerID: "u1", Name: "Impostor"})
	if !errors.Is(err, domain.ErrDuplicateProfile) {
		t.Errorf("SaveProfile(other id) error = %v, want ErrDuplicateProfile", err)
	}

	identity, err := d.GetIdentity(ctx, "u1")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if identity.ProfileID != "p1" {
		t.Errorf("identity.ProfileID = %q, want p1", identity.ProfileID)
	}
}

var timeEqual = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
