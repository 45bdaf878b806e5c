package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const columns = `id, email, password_hash, name, description, created_at, updated_at`

// Store provides database operations for organizations.
type Store struct {
	pool *pgxpool.Pool
	cost int
}

// NewStore creates a new organization store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, cost: bcrypt.DefaultCost}
}

func scanOrganization(scan func(dest ...any) error) (*Organization, error) {
	o := &Organization{}
	err := scan(&o.ID, &o.Email, &o.PasswordHash, &o.Name, &o.Description, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts a new organization with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Organization, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	o, err := scanOrganization(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO organizations (email, password_hash, name, description)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+columns,
			in.Email, string(hash), in.Name, in.Description,
		).Scan(dest...)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating organization: %w", err)
	}
	return o, nil
}

// GetByEmail retrieves an organization by email address.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Organization, error) {
	o, err := scanOrganization(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+columns+` FROM organizations WHERE email = $1`, email,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting organization by email: %w", err)
	}
	return o, nil
}

// ExistsByEmail reports whether an organization uses the given email.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking organization email: %w", err)
	}
	return exists, nil
}

// UpdateName renames the organization with the given email.
func (s *Store) UpdateName(ctx context.Context, email, name string) (*Organization, error) {
	o, err := scanOrganization(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`UPDATE organizations SET name = $2, updated_at = now() WHERE email = $1
			 RETURNING `+columns,
			email, name,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating organization: %w", err)
	}
	return o, nil
}
