package fixtures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

// Dataset is a validated seed ready to be written to a store.
type Dataset struct {
	Identities []*domain.Identity
	Profiles   []*domain.Profile
	Posts      []*domain.Post
	Comments   []*domain.Comment
}

// Mapper converts a Seed to domain records
type Mapper struct {
	hasher domain.Hasher
	now    func() time.Time
}

// NewMapper creates a mapper hashing seed passwords with hasher
func NewMapper(hasher domain.Hasher) *Mapper {
	return &Mapper{hasher: hasher, now: time.Now}
}

// Map validates references and builds the records.
// A profile's authored posts are the posts listing it as owner, in file order.
func (m *Mapper) Map(seed *Seed) (*Dataset, error) {
	now := m.now()
	ds := &Dataset{}

	identities := make(map[string]*domain.Identity, len(seed.Identities))
	for _, s := range seed.Identities {
		id := strings.TrimSpace(s.ID)
		if id == "" || strings.TrimSpace(s.Handle) == "" {
			return nil, fmt.Errorf("identity %q: id and handle are required", s.ID)
		}
		if _, dup := identities[id]; dup {
			return nil, fmt.Errorf("identity %q: duplicate id", id)
		}
		if s.Password == "" {
			return nil, fmt.Errorf("identity %q: password is required", id)
		}
		hash, err := m.hasher.Hash(s.Password)
		if err != nil {
			return nil, fmt.Errorf("identity %q: %w", id, err)
		}
		identity := &domain.Identity{
			ID:         id,
			Handle:     strings.TrimSpace(s.Handle),
			SecretHash: hash,
			Picture:    s.Picture,
			CreatedAt:  now,
		}
		identities[id] = identity
		ds.Identities = append(ds.Identities, identity)
	}

	profiles := make(map[string]*domain.Profile, len(seed.Profiles))
	owners := make(map[string]string, len(seed.Profiles))
	for _, s := range seed.Profiles {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("profile: id is required")
		}
		if _, dup := profiles[id]; dup {
			return nil, fmt.Errorf("profile %q: duplicate id", id)
		}
		owner, ok := identities[s.Owner]
		if !ok {
			return nil, fmt.Errorf("profile %q: unknown owner identity %q", id, s.Owner)
		}
		if other, taken := owners[s.Owner]; taken {
			return nil, fmt.Errorf("profile %q: identity %q already owns profile %q", id, s.Owner, other)
		}

		picture := s.Picture
		if picture == "" {
			picture = owner.Picture
		}
		profile := &domain.Profile{
			ID:        id,
			OwnerID:   owner.ID,
			Picture:   picture,
			Posts:     []string{},
			Bookmarks: append([]string{}, s.Bookmarks...),
			CreatedAt: now,
		}
		profile.Apply(domain.ProfileFields{
			Name:  s.Name,
			Title: s.Title,
			Bio:   s.Bio,
			Links: domain.Links{
				Website:  s.Links.Website,
				Facebook: s.Links.Facebook,
				LinkedIn: s.Links.LinkedIn,
				GitHub:   s.Links.GitHub,
			},
		}.Normalize(), now)

		owners[s.Owner] = id
		owner.ProfileID = id
		profiles[id] = profile
		ds.Profiles = append(ds.Profiles, profile)
	}

	posts := make(map[string]bool, len(seed.Posts))
	for _, s := range seed.Posts {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("post: id is required")
		}
		if posts[id] {
			return nil, fmt.Errorf("post %q: duplicate id", id)
		}
		owner, ok := profiles[s.Owner]
		if !ok {
			return nil, fmt.Errorf("post %q: unknown owner profile %q", id, s.Owner)
		}
		posts[id] = true
		owner.Posts = append(owner.Posts, id)
		ds.Posts = append(ds.Posts, &domain.Post{
			ID:             id,
			OwnerProfileID: owner.ID,
			Title:          s.Title,
			Thumbnail:      s.Thumbnail,
			CreatedAt:      orNow(s.CreatedAt, now),
		})
	}

	for _, p := range ds.Profiles {
		for _, b := range p.Bookmarks {
			if !posts[b] {
				return nil, fmt.Errorf("profile %q: bookmark of unknown post %q", p.ID, b)
			}
		}
	}

	comments := make(map[string]bool, len(seed.Comments))
	for _, s := range seed.Comments {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("comment: id is required")
		}
		if comments[id] {
			return nil, fmt.Errorf("comment %q: duplicate id", id)
		}
		if !posts[s.Post] {
			return nil, fmt.Errorf("comment %q: unknown post %q", id, s.Post)
		}
		if _, ok := identities[s.Author]; !ok {
			return nil, fmt.Errorf("comment %q: unknown author %q", id, s.Author)
		}

		comment := &domain.Comment{
			ID:        id,
			PostID:    s.Post,
			AuthorID:  s.Author,
			Body:      s.Body,
			CreatedAt: orNow(s.CreatedAt, now),
			Replies:   make([]domain.Reply, 0, len(s.Replies)),
		}
		for i, r := range s.Replies {
			if _, ok := identities[r.Author]; !ok {
				return nil, fmt.Errorf("comment %q reply %d: unknown author %q", id, i, r.Author)
			}
			comment.Replies = append(comment.Replies, domain.Reply{
				AuthorID:  r.Author,
				Body:      r.Body,
				CreatedAt: orNow(r.CreatedAt, now),
			})
		}
		comments[id] = true
		ds.Comments = append(ds.Comments, comment)
	}

	return ds, nil
}

// Apply writes the dataset through seeder, parents first.
func Apply(ctx context.Context, seeder domain.Seeder, ds *Dataset) error {
	for _, identity := range ds.Identities {
		if err := seeder.SaveIdentity(ctx, identity); err != nil {
			return fmt.Errorf("seed identity %s: %w", identity.ID, err)
		}
	}
	for _, profile := range ds.Profiles {
		if err := seeder.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("seed profile %s: %w", profile.ID, err)
		}
	}
	for _, post := range ds.Posts {
		if err := seeder.SavePost(ctx, post); err != nil {
			return fmt.Errorf("seed post %s: %w", post.ID, err)
		}
	}
	for _, comment := range ds.Comments {
		if err := seeder.SaveComment(ctx, comment); err != nil {
			return fmt.Errorf("seed comment %s: %w", comment.ID, err)
		}
	}
	return nil
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
