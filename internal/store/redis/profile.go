package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

// profileRecord is the JSON value stored at ProfileKey.
// Collections live in their own lists.
type profileRecord struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"owner_id"`
	Name      string       `json:"name"`
	Title     string       `json:"title"`
	Bio       string       `json:"bio"`
	Links     domain.Links `json:"links"`
	Picture   string       `json:"picture"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func recordOf(p *domain.Profile) profileRecord {
	return profileRecord{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Title:     p.Title,
		Bio:       p.Bio,
		Links:     p.Links,
		Picture:   p.Picture,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r profileRecord) profile(posts, bookmarks []string) *domain.Profile {
	if posts == nil {
		posts = []string{}
	}
	if bookmarks == nil {
		bookmarks = []string{}
	}
	return &domain.Profile{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Title:     r.Title,
		Bio:       r.Bio,
		Links:     r.Links,
		Picture:   r.Picture,
		Posts:     posts,
		Bookmarks: bookmarks,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// FindProfileByOwner resolves the owner index then loads the profile.
func (s *Store) FindProfileByOwner(ctx context.Context, identityID string) (*domain.Profile, error) {
	profileID, err := s.ownedProfileID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return s.loadProfile(ctx, profileID)
}

// CreateProfile claims the owner index, writes the profile and sets the
// identity back-reference in one transaction over the watched owner and
// identity keys.
func (s *Store) CreateProfile(ctx context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	ownerKey := ProfileOwnerKey(identityID)
	identityKey := IdentityKey(identityID)

	var profile *domain.Profile
	err := s.watch(ctx, func(tx *redis.Tx) error {
		identity, err := tx.HGetAll(ctx, identityKey).Result()
		if err != nil {
			return fmt.Errorf("failed to get identity: %w", err)
		}
		if len(identity) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, identityID)
		}

		claimed, err := liveOwner(ctx, tx, ownerKey)
		if err != nil {
			return err
		}
		if claimed {
			return domain.ErrDuplicateProfile
		}

		now := s.now()
		profile = &domain.Profile{
			ID:        uuid.NewString(),
			OwnerID:   identityID,
			Picture:   identity[fieldPicture],
			Posts:     []string{},
			Bookmarks: []string{},
			CreatedAt: now,
		}
		profile.Apply(fields, now)

		data, err := json.Marshal(recordOf(profile))
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ownerKey, profile.ID, 0)
			pipe.Set(ctx, ProfileKey(profile.ID), data, 0)
			pipe.HSet(ctx, identityKey, fieldProfileID, profile.ID)
			return nil
		})
		return err
	}, ownerKey, identityKey)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, domain.ErrDuplicateProfile), errors.Is(err, domain.ErrIdentityNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
}

// liveOwner reports whether ownerKey names a profile record that exists.
// An owner key left pointing at a missing record does not count as a claim.
func liveOwner(ctx context.Context, tx *redis.Tx, ownerKey string) (bool, error) {
	profileID, err := tx.Get(ctx, ownerKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get profile owner: %w", err)
	}
	n, err := tx.Exists(ctx, ProfileKey(profileID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	return n > 0, nil
}

// UpdateProfileFields rewrites the profile record under WATCH.
func (s *Store) UpdateProfileFields(ctx context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	profileID, err := s.ownedProfileID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	key := ProfileKey(profileID)
	err = s.watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		var rec profileRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal profile: %w", err)
		}
		profile := rec.profile(nil, nil)
		profile.Apply(fields, s.now())

		out, err := json.Marshal(recordOf(profile))
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.loadProfile(ctx, profileID)
}

// SaveProfile writes a profile with its collections and owner index.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	ownerKey := ProfileOwnerKey(profile.OwnerID)
	existing, err := s.client.Get(ctx, ownerKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get profile owner: %w", err)
	}
	if existing != "" && existing != profile.ID {
		return domain.ErrDuplicateProfile
	}

	hasIdentity, err := s.client.Exists(ctx, IdentityKey(profile.OwnerID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check identity: %w", err)
	}

	data, err := json.Marshal(recordOf(profile))
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ProfileKey(profile.ID), data, 0)
		pipe.Set(ctx, ownerKey, profile.ID, 0)
		replaceList(ctx, pipe, ProfilePostsKey(profile.ID), profile.Posts)
		replaceList(ctx, pipe, ProfileBookmarksKey(profile.ID), profile.Bookmarks)
		if hasIdentity > 0 {
			pipe.HSet(ctx, IdentityKey(profile.OwnerID), fieldProfileID, profile.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Store) ownedProfileID(ctx context.Context, identityID string) (string, error) {
	profileID, err := s.client.Get(ctx, ProfileOwnerKey(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get profile owner: %w", err)
	}
	return profileID, nil
}

func (s *Store) loadProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	pipe := s.client.Pipeline()
	recCmd := pipe.Get(ctx, ProfileKey(profileID))
	postsCmd := pipe.LRange(ctx, ProfilePostsKey(profileID), 0, -1)
	bookmarksCmd := pipe.LRange(ctx, ProfileBookmarksKey(profileID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	data, err := recCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var rec profileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return rec.profile(postsCmd.Val(), bookmarksCmd.Val()), nil
}

func replaceList(ctx context.Context, pipe redis.Pipeliner, key string, ids []string) {
	pipe.Del(ctx, key)
	if len(ids) == 0 {
		return
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	pipe.RPush(ctx, key, values...)
}
