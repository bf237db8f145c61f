package fixtures

import "time"

// Seed is the top-level structure of a fixtures file.
type Seed struct {
	Identities []IdentitySeed `yaml:"identities"`
	Profiles   []ProfileSeed  `yaml:"profiles"`
	Posts      []PostSeed     `yaml:"posts"`
	Comments   []CommentSeed  `yaml:"comments"`
}

// IdentitySeed is a registered user. Password is plaintext and hashed on load.
type IdentitySeed struct {
	ID       string `yaml:"id"`
	Handle   string `yaml:"handle"`
	Password string `yaml:"password"`
	Picture  string `yaml:"picture,omitempty"`
}

// ProfileSeed is a profile. Authored posts are derived from the posts section.
type ProfileSeed struct {
	ID        string    `yaml:"id"`
	Owner     string    `yaml:"owner"`
	Name      string    `yaml:"name"`
	Title     string    `yaml:"title"`
	Bio       string    `yaml:"bio"`
	Picture   string    `yaml:"picture,omitempty"`
	Links     LinksSeed `yaml:"links,omitempty"`
	Bookmarks []string  `yaml:"bookmarks,omitempty"`
}

// LinksSeed lists the optional profile links.
type LinksSeed struct {
	Website  string `yaml:"website,omitempty"`
	Facebook string `yaml:"facebook,omitempty"`
	LinkedIn string `yaml:"linkedin,omitempty"`
	GitHub   string `yaml:"github,omitempty"`
}

// PostSeed is a post owned by a profile.
type PostSeed struct {
	ID        string    `yaml:"id"`
	Owner     string    `yaml:"owner"`
	Title     string    `yaml:"title"`
	Thumbnail string    `yaml:"thumbnail,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

// CommentSeed is a comment on a post with its replies.
type CommentSeed struct {
	ID        string      `yaml:"id"`
	Post      string      `yaml:"post"`
	Author    string      `yaml:"author"`
	Body      string      `yaml:"body"`
	CreatedAt time.Time   `yaml:"created_at,omitempty"`
	Replies   []ReplySeed `yaml:"replies,omitempty"`
}

// ReplySeed is a reply within a comment.
type ReplySeed struct {
	Author    string    `yaml:"author"`
	Body      string    `yaml:"body"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}
