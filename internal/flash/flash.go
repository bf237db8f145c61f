// Package flash carries one-time dashboard notices across a redirect.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// CookieName holds the notice between a redirect and the next render.
const CookieName = "inkpad_flash"

// Kind classifies a notice.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFail    Kind = "fail"
)

// Notice is one user facing message.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Channel is the notice state of a single request.
// The incoming notice comes from the cookie; a notice recorded with Set
// replaces it. A notice nobody took is carried to the next response by
// Persist, so a redirect chain still shows it once.
type Channel struct {
	current *Notice
	secure  bool
}

// New returns an empty channel.
func New() *Channel {
	return &Channel{}
}

// FromRequest reads and clears the notice cookie of r.
func FromRequest(w http.ResponseWriter, r *http.Request) *Channel {
	ch := &Channel{secure: r != nil && r.TLS != nil}
	if r == nil {
		return ch
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ch
	}
	expire(w, ch.secure)
	if notice, ok := decode(cookie.Value); ok {
		ch.current = &notice
	}
	return ch
}

// Set records a notice for this request.
func (c *Channel) Set(kind Kind, message string) {
	notice, ok := normalize(Notice{Kind: kind, Message: message})
	if !ok {
		return
	}
	c.current = &notice
}

// Take returns the current notice and consumes it.
func (c *Channel) Take() (Notice, bool) {
	if c.current == nil {
		return Notice{}, false
	}
	notice := *c.current
	c.current = nil
	return notice, true
}

// Persist writes the untaken notice to the cookie so it survives a redirect.
func (c *Channel) Persist(w http.ResponseWriter) {
	if c.current == nil || w == nil {
		return
	}
	payload, err := json.Marshal(c.current)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.current = nil
}

func expire(w http.ResponseWriter, secure bool) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func decode(raw string) (Notice, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Notice{}, false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Notice{}, false
	}
	var notice Notice
	if err := json.Unmarshal(decoded, &notice); err != nil {
		return Notice{}, false
	}
	return normalize(notice)
}

func normalize(n Notice) (Notice, bool) {
	n.Message = strings.TrimSpace(n.Message)
	if n.Message == "" {
		return Notice{}, false
	}
	switch n.Kind {
	case KindSuccess, KindFail:
		return n, true
	default:
		return Notice{}, false
	}
}
