package auth

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrAccountNotFound = errors.New("auth: account not found")
	ErrAccountExists   = errors.New("auth: account already exists")
)

// Account is the directory record a credential check runs against.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
}

// NewAccount holds the fields needed to register an account. The directory
// is responsible for hashing Password.
type NewAccount struct {
	Email       string
	Password    string
	Name        string
	Description string
}

// Directory is the account lookup contract shared by the user and
// organization stores. FindByEmail and UpdateName return ErrAccountNotFound
// when absent and Create returns ErrAccountExists on a duplicate email.
type Directory interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, in NewAccount) (*Account, error)
	UpdateName(ctx context.Context, email, name string) (*Account, error)
}

// ProfileCache keeps recently resolved profiles so that request-scoped
// subject resolution does not hit the directory on every call. A nil
// *ProfileCache disables caching.
type ProfileCache struct {
	lru *expirable.LRU[string, Profile]
}

// NewProfileCache creates a cache holding at most size profiles for ttl.
func NewProfileCache(size int, ttl time.Duration) *ProfileCache {
	if size <= 0 {
		return nil
	}
	return &ProfileCache{lru: expirable.NewLRU[string, Profile](size, nil, ttl)}
}

func (c *ProfileCache) get(role Role, email string) (Profile, bool) {
	if c == nil {
		return Profile{}, false
	}
	return c.lru.Get(cacheKey(role, email))
}

func (c *ProfileCache) add(p Profile) {
	if c == nil {
		return
	}
	c.lru.Add(cacheKey(p.Role, p.Email), p)
}

// Invalidate drops a cached profile, e.g. after the account was updated.
func (c *ProfileCache) Invalidate(role Role, email string) {
	if c == nil {
		return
	}
	c.lru.Remove(cacheKey(role, email))
}

// Len returns the number of cached profiles.
func (c *ProfileCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func cacheKey(role Role, email string) string {
	return string(role) + "|" + email
}
