// Package identity describes who is searching.
//
// Authentication itself belongs to an external provider; this package only
// carries its result into the search flow.
package identity

import (
	"net/http"
	"net/url"
	"strings"
)

// User is a signed-in user or a guest.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	IsPro     bool   `json:"isPro"`
}

// guestPrefix marks user ids that were derived from a session rather than
// an identity provider.
const guestPrefix = "guest:"

// Guest returns the anonymous user for a session. An empty session id gives
// the process-wide guest used by the CLI.
func Guest(sessionID string) *User {
	return &User{ID: guestPrefix + sessionID, Name: "Guest"}
}

// IsGuest reports whether u was not supplied by an identity provider.
func (u *User) IsGuest() bool {
	return u == nil || strings.HasPrefix(u.ID, guestPrefix)
}

// DefaultAvatar builds a generated avatar URL for name.
func DefaultAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

// Header names set by the authenticating proxy in front of the server.
const (
	HeaderUserID     = "X-User-ID"
	HeaderUserName   = "X-User-Name"
	HeaderUserAvatar = "X-User-Avatar"
	HeaderUserTier   = "X-User-Tier"
)

// FromRequest reads the user from trusted proxy headers. Requests without
// X-User-ID are guests keyed by sessionID.
func FromRequest(r *http.Request, sessionID string) *User {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Guest(sessionID)
	}

	name := strings.TrimSpace(r.Header.Get(HeaderUserName))
	if name == "" {
		name = "User"
	}
	avatar := strings.TrimSpace(r.Header.Get(HeaderUserAvatar))
	if avatar == "" {
		avatar = DefaultAvatar(name)
	}

	return &User{
		ID:        id,
		Name:      name,
		AvatarURL: avatar,
		IsPro:     strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderUserTier)), "pro"),
	}
}
