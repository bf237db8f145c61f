package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

func newID() string {
	return uuid.NewString()
}

// PostsByID reads posts in one query and returns them in the order of ids.
func (s *Store) PostsByID(ctx context.Context, ids []string) ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_profile_id, title, thumbnail, created_at
		 FROM posts WHERE id IN (`+placeholders(len(ids))+`)`,
		anyArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Post, len(ids))
	for rows.Next() {
		var p domain.Post
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.OwnerProfileID, &p.Title, &p.Thumbnail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = fromUnixNano(createdAt)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// CommentsForPosts returns comments grouped by the order of postIDs, each
// group in insertion order, with their replies.
func (s *Store) CommentsForPosts(ctx context.Context, postIDs []string) ([]domain.Comment, error) {
	postIDs = distinct(postIDs)
	if len(postIDs) == 0 {
		return []domain.Comment{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, author_id, body, created_at
		 FROM comments WHERE post_id IN (`+placeholders(len(postIDs))+`)
		 ORDER BY seq`,
		anyArgs(postIDs)...)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	byPost := make(map[string][]*domain.Comment, len(postIDs))
	byID := make(map[string]*domain.Comment)
	var commentIDs []string
	for rows.Next() {
		c := &domain.Comment{Replies: []domain.Reply{}}
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = fromUnixNano(createdAt)
		byPost[c.PostID] = append(byPost[c.PostID], c)
		byID[c.ID] = c
		commentIDs = append(commentIDs, c.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	rows.Close()

	if len(commentIDs) > 0 {
		if err := s.loadReplies(ctx, commentIDs, byID); err != nil {
			return nil, err
		}
	}

	comments := make([]domain.Comment, 0, len(commentIDs))
	for _, postID := range postIDs {
		for _, c := range byPost[postID] {
			comments = append(comments, *c)
		}
	}
	return comments, nil
}

func (s *Store) loadReplies(ctx context.Context, commentIDs []string, byID map[string]*domain.Comment) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT comment_id, author_id, body, created_at
		 FROM replies WHERE comment_id IN (`+placeholders(len(commentIDs))+`)
		 ORDER BY comment_id, position`,
		anyArgs(commentIDs)...)
	if err != nil {
		return fmt.Errorf("get replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commentID string
		var r domain.Reply
		var createdAt int64
		if err := rows.Scan(&commentID, &r.AuthorID, &r.Body, &createdAt); err != nil {
			return fmt.Errorf("scan reply: %w", err)
		}
		r.CreatedAt = fromUnixNano(createdAt)
		if c, ok := byID[commentID]; ok {
			c.Replies = append(c.Replies, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate replies: %w", err)
	}
	return nil
}

// SavePost upserts a post.
func (s *Store) SavePost(ctx context.Context, post *domain.Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, owner_profile_id, title, thumbnail, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   owner_profile_id = excluded.owner_profile_id,
		   title = excluded.title,
		   thumbnail = excluded.thumbnail,
		   created_at = excluded.created_at`,
		post.ID, post.OwnerProfileID, post.Title, post.Thumbnail, toUnixNano(post.CreatedAt))
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// SaveComment upserts a comment, keeping its original insertion position,
// and replaces its replies.
func (s *Store) SaveComment(ctx context.Context, comment *domain.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save comment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   post_id = excluded.post_id,
		   author_id = excluded.author_id,
		   body = excluded.body,
		   created_at = excluded.created_at`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Body, toUnixNano(comment.CreatedAt)); err != nil {
		return fmt.Errorf("save comment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE comment_id = ?`, comment.ID); err != nil {
		return fmt.Errorf("clear replies: %w", err)
	}
	for i, r := range comment.Replies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO replies (comment_id, position, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
			comment.ID, i, r.AuthorID, r.Body, toUnixNano(r.CreatedAt)); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save comment: %w", err)
	}
	return nil
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
