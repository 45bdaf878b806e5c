package user

import (
	"context"
	"errors"

	"github.com/alecgard/pitchside/internal/auth"
)

// AuthAdapter adapts user.Store to the auth.Directory interface.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

func (a *AuthAdapter) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.store.ExistsByEmail(ctx, email)
}

func (a *AuthAdapter) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	u, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(u), nil
}

func (a *AuthAdapter) Create(ctx context.Context, in auth.NewAccount) (*auth.Account, error) {
	u, err := a.store.Create(ctx, CreateUserInput{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(u), nil
}

func (a *AuthAdapter) UpdateName(ctx context.Context, email, name string) (*auth.Account, error) {
	u, err := a.store.UpdateName(ctx, email, name)
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(u), nil
}

func toAccount(u *User) *auth.Account {
	return &auth.Account{ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash}
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return auth.ErrAccountNotFound
	case errors.Is(err, ErrEmailTaken):
		return auth.ErrAccountExists
	default:
		return err
	}
}
