package domain

import (
	"cmp"
	"slices"
	"time"
)

// Post is an article authored by a Profile.
// inkpad never creates or edits posts; it only reads them.
type Post struct {
	ID             string
	OwnerProfileID string
	Title          string
	Thumbnail      string
	CreatedAt      time.Time
}

// PostCard is the (id, title, thumbnail) projection of a Post.
type PostCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// Card projects the post for display.
func (p Post) Card() PostCard {
	return PostCard{ID: p.ID, Title: p.Title, Thumbnail: p.Thumbnail}
}

// NewestFirst orders posts by creation time, most recent first, keeping
// the input order for equal timestamps, and returns at most limit cards.
// A limit <= 0 returns every post.
func NewestFirst(posts []Post, limit int) []PostCard {
	sorted := slices.Clone(posts)
	slices.SortStableFunc(sorted, func(a, b Post) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	cards := make([]PostCard, 0, len(sorted))
	for _, p := range sorted {
		cards = append(cards, p.Card())
	}
	return cards
}
