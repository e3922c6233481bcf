package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRef is the public projection of a user embedded in other aggregates.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Ref returns the public projection of u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}
