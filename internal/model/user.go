// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// Every entity here is server-owned. The client only holds copies of what the
// backend returned, so the stores can throw them away and refetch at any time.
package model

// User represents a forum account as the backend reports it.
//
// The `json:"..."` tags match the backend's camelCase wire format. The user
// is opaque to the client: it is copied from login/register/profile responses
// and only changed locally through an explicit UserPatch merge.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// UserPatch is a partial profile update. A nil field means "leave unchanged".
//
// WHY POINTERS?
// The zero value of a string is "", which is a legal value to set (e.g. an
// empty avatar). Pointers let us tell "not provided" apart from "set to empty".
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// Apply shallow-merges the patch into a copy of u and returns the copy.
func (p UserPatch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// LoginInput holds the credentials submitted by the login form.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// RegisterInput holds the profile data submitted by the registration form.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}
