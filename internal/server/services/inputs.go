package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
)

// AdminRegistration is the input of RegisterAdmin. An empty Role means
// models.RoleAdmin; an empty Module is stored as NULL.
type AdminRegistration struct {
	Email    string
	Username string
	Password string
	Role     string
	Module   *string
}

// UserRegistration is the input of RegisterUser. Users cannot pick a role.
type UserRegistration struct {
	Name     string
	Email    string
	Password string
}

// Credentials is the input of LoginAdmin and LoginUser.
type Credentials struct {
	Email    string
	Password string
}

// GoogleLogin is an identity already confirmed by Google. Name may be empty.
type GoogleLogin struct {
	Email string
	Name  string
}

// AdminSession is returned by the admin flows. Admin.PasswordHash is always empty.
type AdminSession struct {
	Admin     *models.Admin
	Token     string
	ExpiresAt time.Time
}

// UserSession is returned by the user flows. User.PasswordHash is always empty.
type UserSession struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func validationError(format string, args ...any) error {
	return common.NewError(common.ErrorValidation, fmt.Sprintf(format, args...))
}

// requireFields takes name/value pairs and, if any value is empty, reports
// all of the names as required: "email, username and password are required".
func requireFields(fields ...[2]string) error {
	names := make([]string, 0, len(fields))
	missing := false
	for _, f := range fields {
		names = append(names, f[0])
		if f[1] == "" {
			missing = true
		}
	}
	if !missing {
		return nil
	}
	if len(names) == 1 {
		return validationError("%s is required", names[0])
	}
	last := len(names) - 1
	return validationError("%s and %s are required", strings.Join(names[:last], ", "), names[last])
}

func checkPasswordLength(password string) error {
	if len(password) > auth.MaxPasswordLength {
		return validationError("password must be at most %d bytes", auth.MaxPasswordLength)
	}
	return nil
}

// Validate trims the input, fills defaults and reports missing fields.
func (r *AdminRegistration) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		r.Role = models.RoleAdmin
	}
	if r.Module != nil && strings.TrimSpace(*r.Module) == "" {
		r.Module = nil
	}

	if err := requireFields(
		[2]string{"email", r.Email},
		[2]string{"username", r.Username},
		[2]string{"password", r.Password},
	); err != nil {
		return err
	}
	return checkPasswordLength(r.Password)
}

func (r *UserRegistration) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	if err := requireFields(
		[2]string{"name", r.Name},
		[2]string{"email", r.Email},
		[2]string{"password", r.Password},
	); err != nil {
		return err
	}
	return checkPasswordLength(r.Password)
}

func (c *Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	return requireFields(
		[2]string{"email", c.Email},
		[2]string{"password", c.Password},
	)
}

// Validate requires an email and defaults Name to the local part of it.
func (g *GoogleLogin) Validate() error {
	g.Email = strings.TrimSpace(g.Email)
	g.Name = strings.TrimSpace(g.Name)

	if err := requireFields([2]string{"email", g.Email}); err != nil {
		return err
	}
	if g.Name == "" {
		g.Name, _, _ = strings.Cut(g.Email, "@")
	}
	if g.Name == "" {
		g.Name = g.Email
	}
	return nil
}
