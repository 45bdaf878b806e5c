package auth

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/alecgard/pitchside/internal/token"
)

// RegisterOrganizationInput is the payload of an organization registration.
type RegisterOrganizationInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the registration payload.
func (in RegisterOrganizationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 2000)),
	)
}

// LoginOrganization authenticates an organization account. The issued
// tokens always carry the ORGANIZATION role.
func (s *Service) LoginOrganization(ctx context.Context, email, password string) (TokenPair, error) {
	exists, err := s.orgs.ExistsByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, s.fail(ErrInternal.with(err))
	}
	if !exists {
		return TokenPair{}, s.fail(ErrEmailNotFound)
	}
	return s.login(ctx, s.orgCreds, email, password)
}

// RegisterOrganization creates an organization account and issues its first
// token pair.
func (s *Service) RegisterOrganization(ctx context.Context, in RegisterOrganizationInput) (TokenPair, error) {
	if err := in.Validate(); err != nil {
		return TokenPair{}, s.fail(ErrRegistrationInvalid.with(err))
	}
	return s.register(ctx, s.orgs, RoleOrganization, NewAccount{
		Email:       in.Email,
		Password:    in.Password,
		Name:        in.Name,
		Description: in.Description,
	})
}

// ValidateOrganizationToken resolves an organization identity. When the
// access token has expired it is reissued from the refresh token and the
// new access token is returned alongside the identity; renewed is empty when
// the original access token was still valid.
func (s *Service) ValidateOrganizationToken(ctx context.Context, accessToken, refreshToken string) (id Identity, renewed string, err error) {
	claims, err := s.codec.Open(accessToken)
	if errors.Is(err, token.ErrExpired) {
		renewed, err = s.Refresh(ctx, refreshToken)
		if err != nil {
			return Identity{}, "", err
		}
		claims, err = s.codec.Open(renewed)
	}
	if err != nil {
		return Identity{}, "", s.fail(tokenError(err))
	}
	if claims.Kind != token.KindAccess {
		return Identity{}, "", s.fail(ErrTokenValidation)
	}

	if Role(claims.Role) != RoleOrganization {
		return Identity{}, "", s.fail(ErrForbidden)
	}
	id, err = s.identityFor(ctx, claims)
	if err != nil {
		return Identity{}, "", err
	}
	return id, renewed, nil
}
