package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Privileged role names. Either one bypasses permission checks, but not
// role-gated checks.
const (
	RoleSuperAdmin = "SUPER ADMIN"
	RoleAdmin      = "ADMIN"
)

// ID is an identifier the API may send as a JSON number or string.
type ID string

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so persisted state matches the API.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(id)) && isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

func isNumeric(s string) bool {
	for i, r := range s {
		if r == '-' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != "" && s != "-"
}

// Role is a coarse-grained identity label attached to a user.
type Role struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// Company is an organizational tenant. Requests carry the active one in the
// company-id header.
type Company struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`

	// Profile keeps fields the console does not interpret.
	Profile map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes known fields and keeps the rest in Profile.
func (c *Company) UnmarshalJSON(b []byte) error {
	type plain Company
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, "id", "name")
	if err != nil {
		return err
	}
	p.Profile = extra
	*c = Company(p)
	return nil
}

// MarshalJSON writes known fields merged with Profile.
func (c Company) MarshalJSON() ([]byte, error) {
	type plain Company
	return mergeFields(plain(c), c.Profile)
}

// User is the authenticated account returned by the whoami endpoint.
type User struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Roles     []Role    `json:"roles"`
	Companies []Company `json:"companies"`

	// Profile keeps fields the console does not interpret.
	Profile map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes known fields and keeps the rest in Profile.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, "id", "name", "email", "roles", "companies")
	if err != nil {
		return err
	}
	p.Profile = extra
	*u = User(p)
	return nil
}

// MarshalJSON writes known fields merged with Profile.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return mergeFields(plain(u), u.Profile)
}

// RoleName returns the name of the first role, or "" when the user has none.
// Only the first role counts for role-gated checks.
func (u *User) RoleName() string {
	if u == nil || len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0].Name
}

// HasPrivilegedRole reports whether any role is SUPER ADMIN or ADMIN.
func (u *User) HasPrivilegedRole() bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == RoleSuperAdmin || r.Name == RoleAdmin {
			return true
		}
	}
	return false
}

// DefaultCompany returns a copy of the first company, or nil.
func (u *User) DefaultCompany() *Company {
	if u == nil || len(u.Companies) == 0 {
		return nil
	}
	c := u.Companies[0].Clone()
	return &c
}

func extraFields(b []byte, known ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeFields(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}
