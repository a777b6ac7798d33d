package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// HashPassword returns a bcrypt hash of password at the given cost.
// Passwords longer than MaxPasswordLength bytes are a validation error.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, MaxPasswordLength)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
