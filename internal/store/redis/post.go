package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

type postRecord struct {
	ID             string    `json:"id"`
	OwnerProfileID string    `json:"owner_profile_id"`
	Title          string    `json:"title"`
	Thumbnail      string    `json:"thumbnail"`
	CreatedAt      time.Time `json:"created_at"`
}

type replyRecord struct {
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type commentRecord struct {
	ID        string        `json:"id"`
	PostID    string        `json:"post_id"`
	AuthorID  string        `json:"author_id"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"created_at"`
	Replies   []replyRecord `json:"replies"`
}

// PostsByID reads every post with a single MGET, keeping the order of ids.
func (s *Store) PostsByID(ctx context.Context, ids []string) ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = PostKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Dangling id: the post was removed.
			continue
		}
		var rec postRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post: %w", err)
		}
		posts = append(posts, domain.Post{
			ID:             rec.ID,
			OwnerProfileID: rec.OwnerProfileID,
			Title:          rec.Title,
			Thumbnail:      rec.Thumbnail,
			CreatedAt:      rec.CreatedAt,
		})
	}
	return posts, nil
}

// CommentsForPosts lists the comment ids of every post in one pipeline,
// then reads the comments with a single MGET.
func (s *Store) CommentsForPosts(ctx context.Context, postIDs []string) ([]domain.Comment, error) {
	postIDs = distinct(postIDs)
	if len(postIDs) == 0 {
		return []domain.Comment{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(postIDs))
	for i, postID := range postIDs {
		cmds[i] = pipe.LRange(ctx, PostCommentsKey(postID), 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	var keys []string
	for _, cmd := range cmds {
		for _, id := range cmd.Val() {
			keys = append(keys, CommentKey(id))
		}
	}
	if len(keys) == 0 {
		return []domain.Comment{}, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec commentRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		comments = append(comments, rec.comment())
	}
	return comments, nil
}

// SavePost writes a post record.
func (s *Store) SavePost(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(postRecord{
		ID:             post.ID,
		OwnerProfileID: post.OwnerProfileID,
		Title:          post.Title,
		Thumbnail:      post.Thumbnail,
		CreatedAt:      post.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}
	if err := s.client.Set(ctx, PostKey(post.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

// SaveComment writes a comment and appends it to its post's list the first time it is seen.
func (s *Store) SaveComment(ctx context.Context, comment *domain.Comment) error {
	rec := commentRecord{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		Replies:   make([]replyRecord, 0, len(comment.Replies)),
	}
	for _, r := range comment.Replies {
		rec.Replies = append(rec.Replies, replyRecord{AuthorID: r.AuthorID, Body: r.Body, CreatedAt: r.CreatedAt})
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	key := CommentKey(comment.ID)
	err = s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if n == 0 {
				pipe.RPush(ctx, PostCommentsKey(comment.PostID), comment.ID)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

func (r commentRecord) comment() domain.Comment {
	c := domain.Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		AuthorID:  r.AuthorID,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
		Replies:   make([]domain.Reply, 0, len(r.Replies)),
	}
	for _, reply := range r.Replies {
		c.Replies = append(c.Replies, domain.Reply{AuthorID: reply.AuthorID, Body: reply.Body, CreatedAt: reply.CreatedAt})
	}
	return c
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
