package organization

import (
	"context"
	"errors"

	"github.com/alecgard/pitchside/internal/auth"
)

// AuthAdapter exposes a Store as an auth.Directory.
type AuthAdapter struct {
	store *Store
}

func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

func (a *AuthAdapter) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.store.ExistsByEmail(ctx, email)
}

func (a *AuthAdapter) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	o, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(o), nil
}

func (a *AuthAdapter) Create(ctx context.Context, in auth.NewAccount) (*auth.Account, error) {
	o, err := a.store.Create(ctx, CreateInput{
		Email:       in.Email,
		Password:    in.Password,
		Name:        in.Name,
		Description: in.Description,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(o), nil
}

func (a *AuthAdapter) UpdateName(ctx context.Context, email, name string) (*auth.Account, error) {
	o, err := a.store.UpdateName(ctx, email, name)
	if err != nil {
		return nil, translate(err)
	}
	return toAccount(o), nil
}

func toAccount(o *Organization) *auth.Account {
	return &auth.Account{ID: o.ID, Email: o.Email, Name: o.Name, PasswordHash: o.PasswordHash}
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
