package redis

const (
	// KeyPrefixIdentity is the prefix for identity hashes
	KeyPrefixIdentity = "inkpad:identity:"
	// KeyPrefixProfile is the prefix for profile records and their collections
	KeyPrefixProfile = "inkpad:profile:"
	// KeyPrefixProfileOwner maps an identity to the profile it owns
	KeyPrefixProfileOwner = "inkpad:profile:owner:"
	// KeyPrefixPost is the prefix for post records and their comment lists
	KeyPrefixPost = "inkpad:post:"
	// KeyPrefixComment is the prefix for comment records
	KeyPrefixComment = "inkpad:comment:"
)

// Identity hash fields
const (
	fieldID         = "id"
	fieldHandle     = "handle"
	fieldSecretHash = "secret_hash"
	fieldPicture    = "picture"
	fieldProfileID  = "profile_id"
	fieldCreatedAt  = "created_at"
)

// IdentityKey returns the Redis key for an identity hash
func IdentityKey(id string) string {
	return KeyPrefixIdentity + id
}

// ProfileKey returns the Redis key for a profile record
func ProfileKey(id string) string {
	return KeyPrefixProfile + id
}

// ProfilePostsKey returns the Redis key for the authored posts list of a profile
func ProfilePostsKey(id string) string {
	return KeyPrefixProfile + id + ":posts"
}

// ProfileBookmarksKey returns the Redis key for the bookmarks list of a profile
func ProfileBookmarksKey(id string) string {
	return KeyPrefixProfile + id + ":bookmarks"
}

// ProfileOwnerKey returns the Redis key holding the profile id owned by an identity
func ProfileOwnerKey(identityID string) string {
	return KeyPrefixProfileOwner + identityID
}

// PostKey returns the Redis key for a post record
func PostKey(id string) string {
	return KeyPrefixPost + id
}

// PostCommentsKey returns the Redis key for the comment ids received by a post
func PostCommentsKey(postID string) string {
	return KeyPrefixPost + postID + ":comments"
}

// CommentKey returns the Redis key for a comment record
func CommentKey(id string) string {
	return KeyPrefixComment + id
}
