package models

import "time"

// User is an end-user. UserAdminID and UserAdminEmail link the user to the
// admin that manages it; self-registered users have neither.
type User struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	Role           string
	UserAdminID    *int64
	UserAdminEmail *string
	CreatedAt      time.Time
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, Type: PrincipalUser}
}
