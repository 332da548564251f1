package domain

import "encoding/json"

// Credentials is the payload posted to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login endpoint's body. Fields beyond the token are
// kept raw for callers that need them.
type LoginResponse struct {
	Token string                     `json:"token"`
	Raw   map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the token and keeps every field in Raw.
func (r *LoginResponse) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Raw = raw
	r.Token = ""
	if tok, ok := raw["token"]; ok {
		var s string
		if err := json.Unmarshal(tok, &s); err == nil {
			r.Token = s
		}
	}
	return nil
}

// MeResponse is the whoami endpoint's body.
type MeResponse struct {
	Data        *User    `json:"data"`
	Permissions []string `json:"permissions"`
}
