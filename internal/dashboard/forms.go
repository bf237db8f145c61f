package dashboard

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

const (
	maxNameLen   = 50
	maxTitleLen  = 100
	maxBioLen    = 500
	minSecretLen = 6
	// bcrypt ignores input past 72 bytes.
	maxSecretBytes = 72
)

// ProfileForm is the submitted create/edit profile form.
// Its values are echoed back on rerender.
type ProfileForm struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Bio      string `json:"bio"`
	Website  string `json:"website"`
	Facebook string `json:"facebook"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Fields converts the form to normalized profile fields.
func (f ProfileForm) Fields() domain.ProfileFields {
	return domain.ProfileFields{
		Name:  f.Name,
		Title: f.Title,
		Bio:   f.Bio,
		Links: domain.Links{
			Website:  f.Website,
			Facebook: f.Facebook,
			LinkedIn: f.LinkedIn,
			GitHub:   f.GitHub,
		},
	}.Normalize()
}

func profileFormOf(p *domain.Profile) ProfileForm {
	return ProfileForm{
		Name:     p.Name,
		Title:    p.Title,
		Bio:      p.Bio,
		Website:  p.Links.Website,
		Facebook: p.Links.Facebook,
		LinkedIn: p.Links.LinkedIn,
		GitHub:   p.Links.GitHub,
	}
}

// PasswordForm is the submitted change-password form. It is never echoed back.
type PasswordForm struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ValidateProfile applies the profile form rules.
func ValidateProfile(f ProfileForm) Validation {
	fields := f.Fields()
	errs := map[string]string{}

	checkRequired(errs, "name", fields.Name, maxNameLen, "Name")
	checkRequired(errs, "title", fields.Title, maxTitleLen, "Title")
	checkRequired(errs, "bio", fields.Bio, maxBioLen, "Bio")

	for name, value := range map[string]string{
		"website":  fields.Links.Website,
		"facebook": fields.Links.Facebook,
		"linkedin": fields.Links.LinkedIn,
		"github":   fields.Links.GitHub,
	} {
		if value != "" && !isWebURL(value) {
			errs[name] = "Please provide a valid URL"
		}
	}

	if len(errs) > 0 {
		return Invalid{Fields: errs}
	}
	return Valid{}
}

// ValidatePassword applies the change-password form rules.
func ValidatePassword(f PasswordForm) Validation {
	errs := map[string]string{}

	if f.OldPassword == "" {
		errs["oldPassword"] = "Please provide your old password"
	}
	switch {
	case f.NewPassword == "":
		errs["newPassword"] = "Please provide a new password"
	case utf8.RuneCountInString(f.NewPassword) < minSecretLen:
		errs["newPassword"] = "Password must be at least 6 characters"
	case len(f.NewPassword) > maxSecretBytes:
		errs["newPassword"] = "Password is too long"
	}
	if f.ConfirmPassword == "" {
		errs["confirmPassword"] = "Please confirm your new password"
	} else if f.ConfirmPassword != f.NewPassword {
		errs["confirmPassword"] = "Password does not match"
	}

	if len(errs) > 0 {
		return Invalid{Fields: errs}
	}
	return Valid{}
}

func checkRequired(errs map[string]string, field, value string, max int, label string) {
	switch {
	case value == "":
		errs[field] = label + " can not be empty"
	case utf8.RuneCountInString(value) > max:
		errs[field] = label + " is too long"
	}
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
