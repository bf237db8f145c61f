package domain

import (
	"strings"
	"time"
)

// Links is the fixed set of external links a profile may advertise.
// Absent links are stored as empty strings, never omitted.
type Links struct {
	Website  string `json:"website"`
	Facebook string `json:"facebook"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// ProfileFields holds the user-editable part of a Profile.
type ProfileFields struct {
	Name  string
	Title string
	Bio   string
	Links Links
}

// Normalize trims surrounding whitespace from every field.
func (f ProfileFields) Normalize() ProfileFields {
	return ProfileFields{
		Name:  strings.TrimSpace(f.Name),
		Title: strings.TrimSpace(f.Title),
		Bio:   strings.TrimSpace(f.Bio),
		Links: Links{
			Website:  strings.TrimSpace(f.Links.Website),
			Facebook: strings.TrimSpace(f.Links.Facebook),
			LinkedIn: strings.TrimSpace(f.Links.LinkedIn),
			GitHub:   strings.TrimSpace(f.Links.GitHub),
		},
	}
}

// Profile is a user's public authorship record, 1:1 with an Identity.
type Profile struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	ID string

	// OwnerID is the owning Identity. Unique across all profiles.
	OwnerID string

	// ─────────────────────────────
	// Editable fields
	// ─────────────────────────────

	Name  string
	Title string
	Bio   string
	Links Links

	// Picture is copied from the owning identity at creation.
	Picture string

	// ─────────────────────────────
	// Linked collections
	// (mutated by post and bookmark flows, never by profile edit)
	// ─────────────────────────────

	// Posts lists authored post ids in insertion order.
	Posts []string

	// Bookmarks lists bookmarked post ids in insertion order.
	Bookmarks []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Apply overwrites the editable fields and leaves collections untouched.
func (p *Profile) Apply(fields ProfileFields, now time.Time) {
	p.Name = fields.Name
	p.Title = fields.Title
	p.Bio = fields.Bio
	p.Links = fields.Links
	p.UpdatedAt = now
}

// Fields returns the editable part of the profile.
func (p *Profile) Fields() ProfileFields {
	return ProfileFields{Name: p.Name, Title: p.Title, Bio: p.Bio, Links: p.Links}
}

// ProfileHeader is the projection shown in the dashboard chrome of every screen.
type ProfileHeader struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Header projects the profile for the dashboard chrome.
func (p *Profile) Header() ProfileHeader {
	return ProfileHeader{Name: p.Name, Picture: p.Picture}
}
