// Package access decides which users may open analysis views and modify
// datasets. Users are resolved by a UserSource; how they authenticated is not
// this package's concern.
package access

import (
	"net/http"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVIP   Role = "vip"
	RoleUser  Role = "user"
)

// User is the identity record the gate needs.
type User struct {
	ID        string     `json:"id,omitempty"`
	Role      Role       `json:"role"`
	VIPExpiry *time.Time `json:"vipExpiry,omitempty"`
}

// Reason explains a denial.
type Reason string

const (
	ReasonGuest   Reason = "guest"
	ReasonExpired Reason = "expired"
	ReasonNotVIP  Reason = "not_vip"
)

var messages = map[Reason]string{
	ReasonGuest:   "Sign in to use the analysis pages.",
	ReasonExpired: "Your VIP membership has expired.",
	ReasonNotVIP:  "This feature is available to VIP members only.",
}

// Decision is the result of a gate check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func deny(r Reason) Decision {
	return Decision{Reason: r, Message: messages[r]}
}

// UserSource resolves the current user of a request; nil means guest.
type UserSource interface {
	CurrentUser(r *http.Request) (*User, error)
}

// Gate applies the role rules. Now defaults to time.Now.
type Gate struct {
	Now func() time.Time
}

func (g *Gate) now() time.Time {
	if g != nil && g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Validate decides access to a protected view. Admins always pass; VIPs pass
// until their expiry; everyone else is denied.
func (g *Gate) Validate(u *User) Decision {
	if u == nil {
		return deny(ReasonGuest)
	}
	switch u.Role {
	case RoleAdmin:
		return Decision{Allowed: true}
	case RoleVIP:
		if u.VIPExpiry != nil && u.VIPExpiry.After(g.now()) {
			return Decision{Allowed: true}
		}
		return deny(ReasonExpired)
	}
	return deny(ReasonNotVIP)
}

// CanManageData reports whether u may upload or clear datasets. The role
// alone decides; an expired VIP keeps upload rights.
func (g *Gate) CanManageData(u *User) bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleVIP)
}

// Header names read by HeaderSource.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRole  = "X-User-Role"
	HeaderVIPExpiry = "X-User-Vip-Expiry"
)

// HeaderSource trusts identity headers set by an authenticating proxy in
// front of the API.
type HeaderSource struct{}

func (HeaderSource) CurrentUser(r *http.Request) (*User, error) {
	role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
	if role == "" {
		return nil, nil
	}
	u := &User{ID: r.Header.Get(HeaderUserID), Role: Role(role)}
	if v := r.Header.Get(HeaderVIPExpiry); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		u.VIPExpiry = &t
	}
	return u, nil
}
