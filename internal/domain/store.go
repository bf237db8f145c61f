package domain

import "context"

// IdentityStore reads identities and replaces their secret hash.
type IdentityStore interface {
	// GetIdentity returns ErrIdentityNotFound when id does not resolve.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// IdentityCards resolves display projections in a single round trip.
	// Unknown ids are absent from the returned map.
	IdentityCards(ctx context.Context, ids []string) (map[string]IdentityCard, error)

	// ReplaceSecretHash atomically swaps the stored hash.
	// It returns ErrIdentityNotFound when id does not resolve.
	ReplaceSecretHash(ctx context.Context, id, hash string) error
}

// ProfileStore owns profile records and their linked collections.
type ProfileStore interface {
	// FindProfileByOwner returns ErrProfileNotFound when the identity owns no profile.
	FindProfileByOwner(ctx context.Context, identityID string) (*Profile, error)

	// CreateProfile returns ErrDuplicateProfile when the identity already owns one,
	// including when a concurrent creation wins the race.
	CreateProfile(ctx context.Context, identityID string, fields ProfileFields) (*Profile, error)

	// UpdateProfileFields returns ErrProfileNotFound when the identity owns no profile.
	UpdateProfileFields(ctx context.Context, identityID string, fields ProfileFields) (*Profile, error)
}

// PostStore reads post projections.
type PostStore interface {
	// PostsByID returns the posts in the order of ids, skipping ids that do not resolve.
	PostsByID(ctx context.Context, ids []string) ([]Post, error)
}

// CommentStore reads comments received by posts.
type CommentStore interface {
	// CommentsForPosts returns every comment whose target post is in postIDs,
	// in insertion order per post.
	CommentsForPosts(ctx context.Context, postIDs []string) ([]Comment, error)
}

// Store is the full datastore contract a driver implements.
type Store interface {
	IdentityStore
	ProfileStore
	PostStore
	CommentStore

	Ping(ctx context.Context) error
	Close() error
}

// Seeder writes records produced outside inkpad (registration, posting,
// bookmarking, commenting). It is used by the fixture loader and tests.
type Seeder interface {
	SaveIdentity(ctx context.Context, identity *Identity) error
	SaveProfile(ctx context.Context, profile *Profile) error
	SavePost(ctx context.Context, post *Post) error
	SaveComment(ctx context.Context, comment *Comment) error
}
