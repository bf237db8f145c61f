package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

func seededIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	if err := idx.SaveIdentity(context.Background(), &domain.Identity{
		ID: "u1", Handle: "ada", SecretHash: "hash", Picture: "/uploads/ada.png",
	}); err != nil {
		t.Fatalf("SaveIdentity() error = %v", err)
	}
	return idx
}

func TestNewMemoryIndex(t *testing.T) {
	idx := NewMemoryIndex()
	if idx == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if _, err := idx.FindProfileByOwner(context.Background(), "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("FindProfileByOwner() error = %v, want ErrProfileNotFound", err)
	}
}

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	idx := seededIndex(t)

	profile, err := idx.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Ada"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if profile.OwnerID != "u1" || profile.Name != "Ada" {
		t.Errorf("CreateProfile() = %+v", profile)
	}
	if profile.Picture != "/uploads/ada.png" {
		t.Errorf("Picture = %q, want identity picture", profile.Picture)
	}

	identity, err := idx.GetIdentity(ctx, "u1")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if identity.ProfileID != profile.ID {
		t.Errorf("identity.ProfileID = %q, want %q", identity.ProfileID, profile.ID)
	}
}

func TestCreateProfileDuplicate(t *testing.T) {
	ctx := context.Background()
	idx := seededIndex(t)

	original, err := idx.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Ada"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	_, err = idx.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Impostor"})
	if !errors.Is(err, domain.ErrDuplicateProfile) {
		t.Fatalf("second CreateProfile() error = %v, want ErrDuplicateProfile", err)
	}

	got, err := idx.FindProfileByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("FindProfileByOwner() error = %v", err)
	}
	if got.ID != original.ID || got.Name != "Ada" {
		t.Errorf("original profile changed: %+v", got)
	}
}

func TestCreateProfileConcurrent(t *testing.T) {
	ctx := context.Background()
	idx := seededIndex(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, duplicates := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := idx.CreateProfile(ctx, "u1", domain.ProfileFields{Name: "Ada"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateProfile):
				duplicates++
			default:
				t.Errorf("CreateProfile() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || duplicates != 9 {
		t.Errorf("created = %d, duplicates = %d, want 1 and 9", created, duplicates)
	}
}

func TestUpdateProfileFieldsNotFound(t *testing.T) {
	idx := seededIndex(t)
	_, err := idx.UpdateProfileFields(context.Background(), "u1", domain.ProfileFields{Name: "Ada"})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("UpdateProfileFields() error = %v, want ErrProfileNotFound", err)
	}
}

func TestUpdateProfileFieldsKeepsCollections(t *testing.T) {
	ctx := context.Background()
	idx := seededIndex(t)
	if err := idx.SaveProfile(ctx, &domain.Profile{
		ID: "p1", OwnerID: "u1", Name: "Ada", Posts: []string{"a"}, Bookmarks: []string{"b"},
	}); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	updated, err := idx.UpdateProfileFields(ctx, "u1", domain.ProfileFields{Name: "Ada L."})
	if err != nil {
		t.Fatalf("UpdateProfileFields() error = %v", err)
	}
	if updated.Name != "Ada L." {
		t.Errorf("Name = %q, want %q", updated.Name, "Ada L.")
	}
	if len(updated.Posts) != 1 || len(updated.Bookmarks) != 1 {
		t.Errorf("collections changed: posts=%v bookmarks=%v", updated.Posts, updated.Bookmarks)
	}
	if updated.Links != (domain.Links{}) {
		t.Errorf("Links = %+v, want empty strings", updated.Links)
	}
}

func TestReplaceSecretHash(t *testing.T) {
	ctx := context.Background()
	idx := seededIndex(t)

	if err := idx.ReplaceSecretHash(ctx, "u1", "new-hash"); err != nil {
		t.Fatalf("ReplaceSecretHash() error = %v", err)
	}
	identity, _ := idx.GetIdentity(ctx, "u1")
	if identity.SecretHash != "new-hash" {
		t.Errorf("SecretHash = %q, want new-hash", identity.SecretHash)
	}

	if err := idx.ReplaceSecretHash(ctx, "ghost", "x"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("ReplaceSecretHash(ghost) error = %v, want ErrIdentityNotFound", err)
	}
}

func TestPostsByIDKeepsOrderAndSkipsMissing(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	for _, id := range []string{"a", "b", "c"} {
		if err := idx.SavePost(ctx, &domain.Post{ID: id, Title: id}); err != nil {
			t.Fatalf("SavePost() error = %v", err)
		}
	}

	posts, err := idx.PostsByID(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("PostsByID() error = %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "c" || posts[1].ID != "a" {
		t.Errorf("PostsByID() = %+v, want [c a]", posts)
	}
}

func TestCommentsForPosts(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	comments := []*domain.Comment{
		{ID: "c1", PostID: "p1"},
		{ID: "c2", PostID: "p2"},
		{ID: "c3", PostID: "p1"},
	}
	for _, c := range comments {
		if err := idx.SaveComment(ctx, c); err != nil {
			t.Fatalf("SaveComment() error = %v", err)
		}
	}
	// Re-saving must not duplicate the index entry.
	if err := idx.SaveComment(ctx, comments[0]); err != nil {
		t.Fatalf("SaveComment() error = %v", err)
	}

	got, err := idx.CommentsForPosts(ctx, []string{"p1"})
	if err != nil {
		t.Fatalf("CommentsForPosts() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
		t.Errorf("CommentsForPosts() = %+v, want [c1 c3]", got)
	}
}
