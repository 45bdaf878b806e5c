package organization

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/database/dbtest"
)

func TestStoreAndAdapter(t *testing.T) {
	s := NewStore(dbtest.NewPool(t))
	s.cost = bcrypt.MinCost
	a := NewAuthAdapter(s)
	ctx := context.Background()

	acct, err := a.Create(ctx, auth.NewAccount{
		Email:       "club@x.com",
		Password:    "club-password",
		Name:        "Sunday League",
		Description: "Five-a-side",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	o, err := s.GetByEmail(ctx, "club@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if o.ID != acct.ID || o.Description != "Five-a-side" {
		t.Errorf("unexpected organization %+v", o)
	}

	if _, err := a.Create(ctx, auth.NewAccount{Email: "club@x.com", Password: "x", Name: "Dup"}); !errors.Is(err, auth.ErrAccountExists) {
		t.Errorf("expected auth.ErrAccountExists, got %v", err)
	}
	if _, err := a.FindByEmail(ctx, "none@x.com"); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Errorf("expected auth.ErrAccountNotFound, got %v", err)
	}
	if ok, err := a.ExistsByEmail(ctx, "club@x.com"); err != nil || !ok {
		t.Errorf("ExistsByEmail = %v, %v", ok, err)
	}
	if renamed, err := a.UpdateName(ctx, "club@x.com", "Monday League"); err != nil || renamed.Name != "Monday League" {
		t.Errorf("UpdateName = %+v, %v", renamed, err)
	}
}
