package index

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

// MemoryIndex is an in-process datastore for identities, profiles, posts and comments.
// It backs the "memory" store driver (dev/local) and the tests of the packages above it.
type MemoryIndex struct {
	mu           sync.RWMutex
	identities   map[string]*domain.Identity // ID -> Identity
	profiles     map[string]*domain.Profile  // ID -> Profile
	owners       map[string]string           // Identity ID -> Profile ID
	posts        map[string]*domain.Post     // ID -> Post
	comments     map[string]*domain.Comment  // ID -> Comment
	postComments map[string][]string         // Post ID -> Comment IDs, insertion order
	now          func() time.Time
}

// NewMemoryIndex creates an empty memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		identities:   make(map[string]*domain.Identity),
		profiles:     make(map[string]*domain.Profile),
		owners:       make(map[string]string),
		posts:        make(map[string]*domain.Post),
		comments:     make(map[string]*domain.Comment),
		postComments: make(map[string][]string),
		now:          time.Now,
	}
}

// ─────────────────────────────────────────────────────────────────
// Identities
// ─────────────────────────────────────────────────────────────────

// GetIdentity returns a copy of the identity.
func (idx *MemoryIndex) GetIdentity(_ context.Context, id string) (*domain.Identity, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	identity, ok := idx.identities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
	}
	cp := *identity
	return &cp, nil
}

// IdentityCards resolves display projections for ids.
func (idx *MemoryIndex) IdentityCards(_ context.Context, ids []string) (map[string]domain.IdentityCard, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	cards := make(map[string]domain.IdentityCard, len(ids))
	for _, id := range ids {
		if identity, ok := idx.identities[id]; ok {
			cards[id] = identity.Card()
		}
	}
	return cards, nil
}

// ReplaceSecretHash swaps the stored hash under the write lock.
func (idx *MemoryIndex) ReplaceSecretHash(_ context.Context, id, hash string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	identity, ok := idx.identities[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
	}
	identity.SecretHash = hash
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Profiles
// ─────────────────────────────────────────────────────────────────

// FindProfileByOwner returns a copy of the profile owned by identityID.
func (idx *MemoryIndex) FindProfileByOwner(_ context.Context, identityID string) (*domain.Profile, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	profile, ok := idx.profileByOwnerLocked(identityID)
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

// CreateProfile creates the identity's profile and sets the identity back-reference.
func (idx *MemoryIndex) CreateProfile(_ context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	identity, ok := idx.identities[identityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, identityID)
	}
	if _, exists := idx.owners[identityID]; exists {
		return nil, domain.ErrDuplicateProfile
	}

	now := idx.now()
	profile := &domain.Profile{
		ID:        uuid.NewString(),
		OwnerID:   identityID,
		Picture:   identity.Picture,
		Posts:     []string{},
		Bookmarks: []string{},
		CreatedAt: now,
	}
	profile.Apply(fields, now)

	idx.profiles[profile.ID] = profile
	idx.owners[identityID] = profile.ID
	identity.ProfileID = profile.ID

	return cloneProfile(profile), nil
}

// UpdateProfileFields overwrites the editable fields of the identity's profile.
func (idx *MemoryIndex) UpdateProfileFields(_ context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	profile, ok := idx.profileByOwnerLocked(identityID)
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	profile.Apply(fields, idx.now())
	return cloneProfile(profile), nil
}

func (idx *MemoryIndex) profileByOwnerLocked(identityID string) (*domain.Profile, bool) {
	id, ok := idx.owners[identityID]
	if !ok {
		return nil, false
	}
	profile, ok := idx.profiles[id]
	return profile, ok
}

// ─────────────────────────────────────────────────────────────────
// Posts & comments
// ─────────────────────────────────────────────────────────────────

// PostsByID returns posts in the order of ids.
func (idx *MemoryIndex) PostsByID(_ context.Context, ids []string) ([]domain.Post, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		if post, ok := idx.posts[id]; ok {
			posts = append(posts, *post)
		}
	}
	return posts, nil
}

// CommentsForPosts returns the comments targeting postIDs.
func (idx *MemoryIndex) CommentsForPosts(_ context.Context, postIDs []string) ([]domain.Comment, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	comments := []domain.Comment{}
	seen := make(map[string]bool, len(postIDs))
	for _, postID := range postIDs {
		if seen[postID] {
			continue
		}
		seen[postID] = true
		for _, id := range idx.postComments[postID] {
			if c, ok := idx.comments[id]; ok {
				cp := *c
				cp.Replies = slices.Clone(c.Replies)
				comments = append(comments, cp)
			}
		}
	}
	return comments, nil
}

// ─────────────────────────────────────────────────────────────────
// Seeding
// ─────────────────────────────────────────────────────────────────

// SaveIdentity adds or replaces an identity.
func (idx *MemoryIndex) SaveIdentity(_ context.Context, identity *domain.Identity) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := *identity
	idx.identities[identity.ID] = &cp
	return nil
}

// SaveProfile adds or replaces a profile with its collections.
func (idx *MemoryIndex) SaveProfile(_ context.Context, profile *domain.Profile) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.owners[profile.OwnerID]; ok && existing != profile.ID {
		return domain.ErrDuplicateProfile
	}
	idx.profiles[profile.ID] = cloneProfile(profile)
	idx.owners[profile.OwnerID] = profile.ID
	if identity, ok := idx.identities[profile.OwnerID]; ok {
		identity.ProfileID = profile.ID
	}
	return nil
}

// SavePost adds or replaces a post.
func (idx *MemoryIndex) SavePost(_ context.Context, post *domain.Post) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := *post
	idx.posts[post.ID] = &cp
	return nil
}

// SaveComment adds or replaces a comment and indexes it under its post.
func (idx *MemoryIndex) SaveComment(_ context.Context, comment *domain.Comment) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := *comment
	cp.Replies = slices.Clone(comment.Replies)
	if _, exists := idx.comments[comment.ID]; !exists {
		idx.postComments[comment.PostID] = append(idx.postComments[comment.PostID], comment.ID)
	}
	idx.comments[comment.ID] = &cp
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────

// Ping always succeeds.
func (idx *MemoryIndex) Ping(context.Context) error { return nil }

// Close is a no-op.
func (idx *MemoryIndex) Close() error { return nil }

func cloneProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	cp.Posts = slices.Clone(p.Posts)
	cp.Bookmarks = slices.Clone(p.Bookmarks)
	if cp.Posts == nil {
		cp.Posts = []string{}
	}
	if cp.Bookmarks == nil {
		cp.Bookmarks = []string{}
	}
	return &cp
}

var (
	_ domain.Store  = (*MemoryIndex)(nil)
	_ domain.Seeder = (*MemoryIndex)(nil)
)
