package organization

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("organization not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Organization is a club or venue operator that publishes events for
// approval.
type Organization struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateInput holds the fields required to register an organization.
type CreateInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
