package models

import "time"

// Admin is a tenant operator. Module optionally scopes the admin to one
// product area.
type Admin struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         string
	Module       *string
	CreatedAt    time.Time
}

func (a *Admin) Identity() Identity {
	return Identity{ID: a.ID, Email: a.Email, Role: a.Role, Type: PrincipalAdmin}
}
