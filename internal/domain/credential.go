package domain

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor for new secret hashes.
const DefaultHashCost = 12

// Hasher computes and checks salted one-way secret hashes.
type Hasher interface {
	// Hash returns a new salted hash of secret.
	Hash(secret string) (string, error)

	// Matches reports whether secret matches hash. A malformed hash is an error.
	Matches(hash, secret string) (bool, error)
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt hasher. A zero cost selects DefaultHashCost;
// other values are clamped to bcrypt's accepted range.
func NewBcryptHasher(cost int) BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultHashCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return BcryptHasher{cost: cost}
}

// Cost returns the work factor used for new hashes.
func (h BcryptHasher) Cost() int { return h.cost }

// Hash returns the bcrypt hash of secret at the configured cost.
func (h BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether secret matches hash. A mismatch is not an error.
func (h BcryptHasher) Matches(hash, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to compare secret hash: %w", err)
	}
}

// CredentialService verifies and replaces identity secrets.
type CredentialService struct {
	identities IdentityStore
	hasher     Hasher
}

// NewCredentialService creates a credential service.
func NewCredentialService(identities IdentityStore, hasher Hasher) *CredentialService {
	return &CredentialService{identities: identities, hasher: hasher}
}

// ChangeCredential replaces the identity's secret hash when oldSecret matches.
//
// It returns ErrOldSecretMismatch without mutating anything when it does not,
// and ErrIdentityNotFound when identityID does not resolve.
func (s *CredentialService) ChangeCredential(ctx context.Context, identityID, oldSecret, newSecret string) error {
	identity, err := s.identities.GetIdentity(ctx, identityID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Matches(identity.SecretHash, oldSecret)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOldSecretMismatch
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return err
	}

	if err := s.identities.ReplaceSecretHash(ctx, identityID, hash); err != nil {
		return fmt.Errorf("failed to persist secret hash: %w", err)
	}
	return nil
}

// Verify reports whether secret matches the identity's stored hash.
func (s *CredentialService) Verify(ctx context.Context, identityID, secret string) (bool, error) {
	identity, err := s.identities.GetIdentity(ctx, identityID)
	if err != nil {
		return false, err
	}
	return s.hasher.Matches(identity.SecretHash, secret)
}
