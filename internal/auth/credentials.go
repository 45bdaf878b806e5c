package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validator checks submitted credentials against one directory and issues
// principals carrying that directory's role.
type Validator struct {
	dir  Directory
	role Role
}

// NewValidator creates a Validator for accounts in dir. Principals it issues
// carry role.
func NewValidator(dir Directory, role Role) *Validator {
	return &Validator{dir: dir, role: role}
}

// Authenticate verifies subject/password. The GUEST subject is accepted
// without any directory or password check.
func (v *Validator) Authenticate(ctx context.Context, subject, password string) (Principal, error) {
	if subject == GuestSubject {
		return v.authenticateGuest(), nil
	}

	acct, err := v.dir.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return newPrincipal(acct.Email, v.role), nil
}

// Reauthenticate re-checks a subject taken from a verified refresh token
// against the directory-resident account instead of trusting the claim.
func (v *Validator) Reauthenticate(ctx context.Context, subject string) (Principal, error) {
	if subject == GuestSubject {
		return v.authenticateGuest(), nil
	}

	acct, err := v.dir.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, fmt.Errorf("looking up account: %w", err)
	}
	if acct.PasswordHash == "" {
		return Principal{}, ErrInvalidCredentials
	}
	return newPrincipal(acct.Email, v.role), nil
}

// authenticateGuest is the anonymous access path: the GUEST subject
// always resolves to the guest principal and never touches the directory.
func (v *Validator) authenticateGuest() Principal {
	return newPrincipal(GuestSubject, RoleGuest)
}
