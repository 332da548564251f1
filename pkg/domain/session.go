package domain

import (
	"maps"
	"slices"
)

// Session is the client-side authentication state: token, user, active
// tenant and permission set. It is persisted as JSON between runs.
type Session struct {
	Token       string   `json:"token"`
	User        *User    `json:"user"`
	Company     *Company `json:"company"`
	Permissions []string `json:"permissions"`
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// RoleName returns the name of the user's first role.
func (s Session) RoleName() string {
	return s.User.RoleName()
}

// Clone returns a deep copy safe to hand out to other goroutines.
func (s Session) Clone() Session {
	out := Session{Token: s.Token, Permissions: slices.Clone(s.Permissions)}
	if s.User != nil {
		u := *s.User
		u.Roles = slices.Clone(s.User.Roles)
		u.Companies = slices.Clone(s.User.Companies)
		for i := range u.Companies {
			u.Companies[i] = u.Companies[i].Clone()
		}
		u.Profile = maps.Clone(s.User.Profile)
		out.User = &u
	}
	if s.Company != nil {
		c := s.Company.Clone()
		out.Company = &c
	}
	return out
}

// Clone returns a copy that shares no Profile map with c.
func (c Company) Clone() Company {
	c.Profile = maps.Clone(c.Profile)
	return c
}
