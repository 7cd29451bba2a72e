package access

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestGate_Validate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Second)
	g := &Gate{Now: func() time.Time { return now }}

	tests := []struct {
		name   string
		user   *User
		allow  bool
		reason Reason
	}{
		{"guest", nil, false, ReasonGuest},
		{"admin", &User{Role: RoleAdmin}, true, ""},
		{"admin ignores expiry", &User{Role: RoleAdmin, VIPExpiry: &past}, true, ""},
		{"vip active", &User{Role: RoleVIP, VIPExpiry: &future}, true, ""},
		{"vip expired", &User{Role: RoleVIP, VIPExpiry: &past}, false, ReasonExpired},
		{"vip without expiry", &User{Role: RoleVIP}, false, ReasonExpired},
		{"user", &User{Role: RoleUser}, false, ReasonNotVIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Validate(tt.user)
			if d.Allowed != tt.allow || d.Reason != tt.reason {
				t.Errorf("Validate() = %+v, want allowed %v reason %q", d, tt.allow, tt.reason)
			}
			if !d.Allowed && d.Message == "" {
				t.Error("denial without message")
			}
		})
	}
}

func TestGate_CanManageData(t *testing.T) {
	g := &Gate{}
	past := time.Now().Add(-time.Hour)
	if !g.CanManageData(&User{Role: RoleVIP, VIPExpiry: &past}) {
		t.Error("vip should manage data")
	}
	if g.CanManageData(&User{Role: RoleUser}) || g.CanManageData(nil) {
		t.Error("user and guest must not manage data")
	}
}

func TestHeaderSource(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if u, err := (HeaderSource{}).CurrentUser(r); u != nil || err != nil {
		t.Errorf("no headers: %v, %v", u, err)
	}

	r.Header.Set(HeaderUserRole, "VIP")
	r.Header.Set(HeaderUserID, "u1")
	r.Header.Set(HeaderVIPExpiry, "2030-01-01T00:00:00Z")
	u, err := (HeaderSource{}).CurrentUser(r)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != RoleVIP || u.ID != "u1" || u.VIPExpiry == nil || u.VIPExpiry.Year() != 2030 {
		t.Errorf("user = %+v", u)
	}

	r.Header.Set(HeaderVIPExpiry, "tomorrow")
	if _, err := (HeaderSource{}).CurrentUser(r); err == nil {
		t.Error("expected error for bad expiry")
	}
}
