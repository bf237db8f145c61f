package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
)

const maxFormBytes = 64 << 10

var errBadForm = errors.New("malformed form")

// bindForm fills dst from a JSON body, or from urlencoded fields through assign.
func bindForm(w http.ResponseWriter, r *http.Request, dst any, assign func(url.Values)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", errBadForm, err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadForm, err)
	}
	assign(r.PostForm)
	return nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func parseProfileForm(w http.ResponseWriter, r *http.Request) (dashboard.ProfileForm, error) {
	var form dashboard.ProfileForm
	err := bindForm(w, r, &form, func(v url.Values) {
		form = dashboard.ProfileForm{
			Name:     v.Get("name"),
			Title:    v.Get("title"),
			Bio:      v.Get("bio"),
			Website:  v.Get("website"),
			Facebook: v.Get("facebook"),
			LinkedIn: v.Get("linkedin"),
			GitHub:   v.Get("github"),
		}
	})
	return form, err
}

func parsePasswordForm(w http.ResponseWriter, r *http.Request) (dashboard.PasswordForm, error) {
	var form dashboard.PasswordForm
	err := bindForm(w, r, &form, func(v url.Values) {
		form = dashboard.PasswordForm{
			OldPassword:     v.Get("oldPassword"),
			NewPassword:     v.Get("newPassword"),
			ConfirmPassword: v.Get("confirmPassword"),
		}
	})
	return form, err
}
