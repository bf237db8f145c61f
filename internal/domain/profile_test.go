package domain

import (
	"testing"
	"time"
)

func TestProfileFieldsNormalize(t *testing.T) {
	in := ProfileFields{
		Name:  "  Ada ",
		Title: "\tEngineer",
		Bio:   "bio  ",
		Links: Links{Website: " https://ada.dev ", GitHub: "  "},
	}
	got := in.Normalize()

	want := ProfileFields{
		Name:  "Ada",
		Title: "Engineer",
		Bio:   "bio",
		Links: Links{Website: "https://ada.dev"},
	}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestProfileApplyKeepsCollections(t *testing.T) {
	now := time.Now()
	p := &Profile{ID: "p1", Posts: []string{"a"}, Bookmarks: []string{"b"}}
	p.Apply(ProfileFields{Name: "Ada", Links: Links{GitHub: "https://github.com/ada"}}, now)

	if p.Name != "Ada" || p.Links.GitHub != "https://github.com/ada" {
		t.Errorf("Apply() did not set fields: %+v", p)
	}
	if p.Links.Website != "" || p.Links.Facebook != "" || p.Links.LinkedIn != "" {
		t.Errorf("unset links should be empty strings: %+v", p.Links)
	}
	if len(p.Posts) != 1 || len(p.Bookmarks) != 1 {
		t.Errorf("Apply() touched collections: %+v", p)
	}
	if !p.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, now)
	}
}
