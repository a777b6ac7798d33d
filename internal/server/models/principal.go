// Package models contains the persistent records of the server and the
// identity view shared by both kinds of principal.
package models

// PrincipalType tells admins and end-users apart inside a token.
type PrincipalType string

const (
	PrincipalAdmin PrincipalType = "admin"
	PrincipalUser  PrincipalType = "user"
)

// Valid reports whether t is one of the known principal types.
func (t PrincipalType) Valid() bool {
	return t == PrincipalAdmin || t == PrincipalUser
}

// Default roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the part of a principal that goes into a token.
type Identity struct {
	ID    int64
	Email string
	Role  string
	Type  PrincipalType
}

// Principal is implemented by every record that can authenticate.
type Principal interface {
	Identity() Identity
}
