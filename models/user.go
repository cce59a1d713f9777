package models

import "encoding/json"

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	u.ID = firstString(fields, "_id", "id")
	u.Name = firstString(fields, "name", "username")
	u.Email = firstString(fields, "email")
	return nil
}

// DisplayName falls back to the email when the account has no name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// SessionPair is what the auth endpoints hand back and what the session keeps.
type SessionPair struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Authenticated requires both halves of the pair.
func (p SessionPair) Authenticated() bool {
	return p.Token != "" && p.User != nil
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type SignupRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
}
