package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

// GetIdentity reads an identity hash.
func (s *Store) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	fields, err := s.client.HGetAll(ctx, IdentityKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
	}
	return identityFromHash(id, fields), nil
}

// IdentityCards reads the display fields of every id in one pipeline.
func (s *Store) IdentityCards(ctx context.Context, ids []string) (map[string]domain.IdentityCard, error) {
	cards := make(map[string]domain.IdentityCard, len(ids))
	if len(ids) == 0 {
		return cards, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, IdentityKey(id), fieldID, fieldHandle, fieldPicture)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get identity cards: %w", err)
	}

	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 3 || vals[0] == nil {
			continue
		}
		cards[ids[i]] = domain.IdentityCard{
			ID:      ids[i],
			Handle:  asString(vals[1]),
			Picture: asString(vals[2]),
		}
	}
	return cards, nil
}

// ReplaceSecretHash sets the secret hash field of an existing identity.
func (s *Store) ReplaceSecretHash(ctx context.Context, id, hash string) error {
	key := IdentityKey(id)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check identity: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldSecretHash, hash)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to replace secret hash: %w", err)
	}
	return nil
}

// SaveIdentity writes every field of an identity.
func (s *Store) SaveIdentity(ctx context.Context, identity *domain.Identity) error {
	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	if err := s.client.HSet(ctx, IdentityKey(identity.ID),
		fieldID, identity.ID,
		fieldHandle, identity.Handle,
		fieldSecretHash, identity.SecretHash,
		fieldPicture, identity.Picture,
		fieldProfileID, identity.ProfileID,
		fieldCreatedAt, createdAt.UTC().Format(time.RFC3339Nano),
	).Err(); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func identityFromHash(id string, fields map[string]string) *domain.Identity {
	identity := &domain.Identity{
		ID:         id,
		Handle:     fields[fieldHandle],
		SecretHash: fields[fieldSecretHash],
		Picture:    fields[fieldPicture],
		ProfileID:  fields[fieldProfileID],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt]); err == nil {
		identity.CreatedAt = ts
	}
	return identity
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
