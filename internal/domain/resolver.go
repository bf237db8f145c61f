package domain

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SummaryLimit caps the authored posts and the bookmarks on the dashboard landing screen.
const SummaryLimit = 3

// ProfileSummary is the core profile projection of the dashboard landing screen.
type ProfileSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Bio     string `json:"bio"`
	Links   Links  `json:"links"`
	Picture string `json:"picture"`
}

// Summary is the dashboard landing view.
type Summary struct {
	Profile   ProfileSummary `json:"profile"`
	Posts     []PostCard     `json:"posts"`
	Bookmarks []PostCard     `json:"bookmarks"`
}

// BookmarkList is the uncapped bookmarks view.
type BookmarkList struct {
	Profile   ProfileHeader `json:"profile"`
	Bookmarks []PostCard    `json:"bookmarks"`
}

// ThreadList is the comments-received view.
type ThreadList struct {
	Profile ProfileHeader `json:"profile"`
	Threads []Thread      `json:"threads"`
}

// Resolver builds bounded, ordered views over a profile's linked entities.
type Resolver struct {
	profiles   ProfileStore
	posts      PostStore
	comments   CommentStore
	identities IdentityStore
}

// NewResolver creates a resolver reading from the given stores.
func NewResolver(profiles ProfileStore, posts PostStore, comments CommentStore, identities IdentityStore) *Resolver {
	return &Resolver{
		profiles:   profiles,
		posts:      posts,
		comments:   comments,
		identities: identities,
	}
}

// Header returns the profile chrome of the identity, or ErrProfileNotFound.
func (r *Resolver) Header(ctx context.Context, identityID string) (ProfileHeader, error) {
	profile, err := r.profiles.FindProfileByOwner(ctx, identityID)
	if err != nil {
		return ProfileHeader{}, err
	}
	return profile.Header(), nil
}

// Summary returns the profile with its SummaryLimit newest posts and bookmarks.
func (r *Resolver) Summary(ctx context.Context, identityID string) (*Summary, error) {
	profile, err := r.profiles.FindProfileByOwner(ctx, identityID)
	if err != nil {
		return nil, err
	}

	var posts, bookmarks []Post
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = r.posts.PostsByID(gctx, profile.Posts)
		if err != nil {
			return fmt.Errorf("failed to load authored posts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookmarks, err = r.posts.PostsByID(gctx, profile.Bookmarks)
		if err != nil {
			return fmt.Errorf("failed to load bookmarks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		Profile: ProfileSummary{
			ID:      profile.ID,
			Name:    profile.Name,
			Title:   profile.Title,
			Bio:     profile.Bio,
			Links:   profile.Links,
			Picture: profile.Picture,
		},
		Posts:     NewestFirst(posts, SummaryLimit),
		Bookmarks: NewestFirst(bookmarks, SummaryLimit),
	}, nil
}

// Bookmarks returns every bookmark of the profile, newest first.
func (r *Resolver) Bookmarks(ctx context.Context, identityID string) (*BookmarkList, error) {
	profile, err := r.profiles.FindProfileByOwner(ctx, identityID)
	if err != nil {
		return nil, err
	}

	bookmarks, err := r.posts.PostsByID(ctx, profile.Bookmarks)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return &BookmarkList{
		Profile:   profile.Header(),
		Bookmarks: NewestFirst(bookmarks, 0),
	}, nil
}

// Threads returns every comment received on posts the profile owns, newest
// first, with commenter, post and replier projections resolved.
func (r *Resolver) Threads(ctx context.Context, identityID string) (*ThreadList, error) {
	profile, err := r.profiles.FindProfileByOwner(ctx, identityID)
	if err != nil {
		return nil, err
	}

	list := &ThreadList{Profile: profile.Header(), Threads: []Thread{}}
	if len(profile.Posts) == 0 {
		return list, nil
	}

	var owned []Post
	var comments []Comment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = r.posts.PostsByID(gctx, profile.Posts)
		if err != nil {
			return fmt.Errorf("failed to load authored posts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = r.comments.CommentsForPosts(gctx, profile.Posts)
		if err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Ownership is the post's owner field, not collection membership alone.
	postsByID := make(map[string]Post, len(owned))
	for _, p := range owned {
		if p.OwnerProfileID == profile.ID {
			postsByID[p.ID] = p
		}
	}

	visible := make([]Comment, 0, len(comments))
	for _, c := range comments {
		if _, ok := postsByID[c.PostID]; ok {
			visible = append(visible, c)
		}
	}
	if len(visible) == 0 {
		return list, nil
	}

	cards, err := r.identities.IdentityCards(ctx, authorIDs(visible))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment authors: %w", err)
	}

	slices.SortStableFunc(visible, func(a, b Comment) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	for _, c := range visible {
		author := cards[c.AuthorID]
		thread := Thread{
			ID:        c.ID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
			Author:    CommentAuthor{ID: c.AuthorID, Picture: author.Picture},
			Post:      postsByID[c.PostID].Card(),
			Replies:   make([]ThreadReply, 0, len(c.Replies)),
		}
		for _, reply := range c.Replies {
			replier := cards[reply.AuthorID]
			thread.Replies = append(thread.Replies, ThreadReply{
				Body:      reply.Body,
				CreatedAt: reply.CreatedAt,
				Author:    ReplyAuthor{Handle: replier.Handle, Picture: replier.Picture},
			})
		}
		list.Threads = append(list.Threads, thread)
	}

	return list, nil
}

// authorIDs collects the distinct commenter and replier ids, in first-seen order.
func authorIDs(comments []Comment) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(comments))
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, c := range comments {
		add(c.AuthorID)
		for _, reply := range c.Replies {
			add(reply.AuthorID)
		}
	}
	return ids
}
