package domain

import "time"

// Identity is the login record of a user.
//
// It is created at registration, outside of inkpad. inkpad only ever
// mutates SecretHash (credential change) and ProfileID (profile creation).
type Identity struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque unique identifier.
	ID string

	// Handle is the login name.
	// Example: ada
	Handle string

	// ─────────────────────────────
	// Credential
	// ─────────────────────────────

	// SecretHash is the bcrypt digest of the user's password.
	// It MUST never be serialized to a response or a log line.
	SecretHash string `json:"-"`

	// ─────────────────────────────
	// Display & links
	// ─────────────────────────────

	// Picture is the path of the uploaded display picture.
	Picture string

	// ProfileID is the back-reference to the owned Profile.
	// Empty until the profile is created, then set once.
	ProfileID string

	CreatedAt time.Time
}

// IdentityCard is the minimal display projection of an Identity.
type IdentityCard struct {
	ID      string
	Handle  string
	Picture string
}

// Card projects the identity for display.
func (i *Identity) Card() IdentityCard {
	return IdentityCard{ID: i.ID, Handle: i.Handle, Picture: i.Picture}
}
