package domain

import "errors"

var (
	// ErrProfileNotFound means the identity owns no profile yet.
	// Callers treat it as a normal state and redirect to profile creation.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrDuplicateProfile means the identity already owns a profile.
	ErrDuplicateProfile = errors.New("profile already exists")

	// ErrIdentityNotFound means an authenticated identity did not resolve.
	// It is never expected and is handled as an infrastructure failure.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrOldSecretMismatch means the offered old password is wrong.
	ErrOldSecretMismatch = errors.New("old secret does not match")
)
