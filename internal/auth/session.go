package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/alecgard/pitchside/internal/token"
)

const (
	DefaultAccessTTL  = 120000 * time.Millisecond
	DefaultRefreshTTL = 604800000 * time.Millisecond
)

// Observer receives session outcomes. The metrics package implements it.
type Observer interface {
	TokenIssued(role Role, kind string)
	SessionFailed(code string)
}

type nopObserver struct{}

func (nopObserver) TokenIssued(Role, string) {}
func (nopObserver) SessionFailed(string) {}

// RegisterInput is the payload of a user registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks the registration payload.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
	)
}

// Service runs the login, registration, refresh and subject resolution
// flows for users and organizations.
type Service struct {
	codec      *token.Codec
	users      Directory
	orgs       Directory
	userCreds  *Validator
	orgCreds   *Validator
	accessTTL  time.Duration
	refreshTTL time.Duration
	cache      *ProfileCache
	observer   Observer
}

// Option configures a Service.
type Option func(*Service)

// WithTTLs overrides the access and refresh token lifetimes. Non-positive
// values keep the defaults.
func WithTTLs(access, refresh time.Duration) Option {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

// WithProfileCache caches directory profiles looked up by ResolveSubject.
func WithProfileCache(c *ProfileCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithObserver reports issued tokens and failures to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates a session Service over the user and organization
// directories.
func NewService(codec *token.Codec, users, orgs Directory, opts ...Option) *Service {
	s := &Service{
		codec:      codec,
		users:      users,
		orgs:       orgs,
		userCreds:  NewValidator(users, RoleUser),
		orgCreds:   NewValidator(orgs, RoleOrganization),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates a user and issues a token pair. When asUser is false
// the credentials are replaced with GUEST/GUEST and a guest pair is issued
// regardless of directory state.
func (s *Service) Login(ctx context.Context, email, password string, asUser bool) (TokenPair, error) {
	if !asUser {
		email, password = GuestSubject, GuestSubject
	} else {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return TokenPair{}, s.fail(ErrInternal.with(err))
		}
		if !exists {
			return TokenPair{}, s.fail(ErrEmailNotFound)
		}
	}
	return s.login(ctx, s.userCreds, email, password)
}

// Register creates a user account and issues its first token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	if err := in.Validate(); err != nil {
		return TokenPair{}, s.fail(ErrRegistrationInvalid.with(err))
	}
	return s.register(ctx, s.users, RoleUser, NewAccount{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	})
}

// Refresh verifies a refresh token, re-checks its subject against the
// directory and mints a new access token. The refresh token itself is not
// reissued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Open(refreshToken)
	if err != nil {
		return "", s.fail(refreshError(err))
	}
	if claims.Kind != token.KindRefresh {
		return "", s.fail(ErrRefreshValidation)
	}

	creds, ok := s.validatorFor(Role(claims.Role))
	if !ok {
		return "", s.fail(ErrRefreshValidation)
	}
	p, err := creds.Reauthenticate(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidCredentials) {
			return "", s.fail(ErrRefreshValidation.with(err))
		}
		return "", s.fail(ErrRefresh.with(err))
	}

	access, err := s.codec.Issue(p.Subject, string(p.Role), token.KindAccess, s.accessTTL)
	if err != nil {
		return "", s.fail(ErrRefresh.with(err))
	}
	s.observer.TokenIssued(p.Role, "access")
	return access, nil
}

// ResolveSubject turns the request's token headers into an Identity.
func (s *Service) ResolveSubject(ctx context.Context, accessToken, refreshToken string) (Identity, error) {
	if isSystemCall(accessToken, refreshToken) {
		return systemIdentity(), nil
	}

	claims, err := s.codec.Open(accessToken)
	if err != nil {
		return Identity{}, s.fail(tokenError(err))
	}
	if claims.Kind != token.KindAccess {
		return Identity{}, s.fail(ErrTokenValidation)
	}
	return s.identityFor(ctx, claims)
}

// UpdateProfileName renames the account behind id and drops its cached
// profile.
func (s *Service) UpdateProfileName(ctx context.Context, id Identity, name string) (Profile, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, 100)); err != nil {
		return Profile{}, s.fail(ErrRegistrationInvalid.with(err))
	}
	dir, ok := s.directoryFor(id.Principal.Role)
	if !ok {
		return Profile{}, s.fail(ErrForbidden)
	}
	acct, err := dir.UpdateName(ctx, id.Principal.Subject, name)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Profile{}, s.fail(ErrProfileNotFound.with(err))
		}
		return Profile{}, s.fail(ErrInternal.with(err))
	}
	s.cache.Invalidate(id.Principal.Role, id.Principal.Subject)
	return profileOf(acct, id.Principal.Role), nil
}

// isSystemCall is the internal service-to-service bypass: both headers carry
// the SYSTEM literal. Nothing is decoded and no directory is consulted.
func isSystemCall(accessToken, refreshToken string) bool {
	return strings.EqualFold(accessToken, SystemSubject) && strings.EqualFold(refreshToken, SystemSubject)
}

func (s *Service) login(ctx context.Context, creds *Validator, subject, password string) (TokenPair, error) {
	p, err := creds.Authenticate(ctx, subject, password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidCredentials) {
			return TokenPair{}, s.fail(ErrAuthorization.with(err))
		}
		return TokenPair{}, s.fail(ErrInternal.with(err))
	}
	return s.issuePair(p)
}

func (s *Service) register(ctx context.Context, dir Directory, role Role, in NewAccount) (TokenPair, error) {
	acct, err := dir.Create(ctx, in)
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return TokenPair{}, s.fail(ErrEmailExists)
		}
		return TokenPair{}, s.fail(ErrInternal.with(err))
	}
	slog.Info("account registered", "role", role, "id", acct.ID)
	return s.issuePair(newPrincipal(acct.Email, role))
}

func (s *Service) issuePair(p Principal) (TokenPair, error) {
	access, err := s.codec.Issue(p.Subject, string(p.Role), token.KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, s.fail(ErrTokenGeneration.with(err))
	}
	refresh, err := s.codec.Issue(p.Subject, string(p.Role), token.KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, s.fail(ErrTokenGeneration.with(err))
	}
	s.observer.TokenIssued(p.Role, "access")
	s.observer.TokenIssued(p.Role, "refresh")
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) identityFor(ctx context.Context, claims *token.Claims) (Identity, error) {
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, s.fail(ErrTokenSubjectMissing)
	}
	if subject == GuestSubject {
		return guestIdentity(), nil
	}

	role := Role(claims.Role)
	dir, ok := s.directoryFor(role)
	if !ok {
		return Identity{}, s.fail(ErrTokenValidation)
	}

	principal := newPrincipal(subject, role)
	if p, ok := s.cache.get(role, subject); ok {
		return Identity{Principal: principal, Profile: p}, nil
	}

	acct, err := dir.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Identity{}, s.fail(ErrProfileNotFound)
		}
		return Identity{}, s.fail(ErrInternal.with(err))
	}
	profile := profileOf(acct, role)
	s.cache.add(profile)
	return Identity{Principal: principal, Profile: profile}, nil
}

func (s *Service) validatorFor(role Role) (*Validator, bool) {
	switch role {
	case RoleUser, RoleGuest:
		return s.userCreds, true
	case RoleOrganization:
		return s.orgCreds, true
	default:
		return nil, false
	}
}

func (s *Service) directoryFor(role Role) (Directory, bool) {
	switch role {
	case RoleUser:
		return s.users, true
	case RoleOrganization:
		return s.orgs, true
	default:
		return nil, false
	}
}

func (s *Service) fail(e *Error) error {
	s.observer.SessionFailed(e.Code)
	return e
}

func profileOf(acct *Account, role Role) Profile {
	return Profile{ID: acct.ID, Email: acct.Email, Name: acct.Name, Role: role}
}

// tokenError maps a codec failure on an access token to its session error.
func tokenError(err error) *Error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired.with(err)
	case errors.Is(err, token.ErrBadSignature):
		return ErrTokenSignature.with(err)
	case errors.Is(err, token.ErrMalformed):
		return ErrTokenMalformed.with(err)
	case errors.Is(err, token.ErrInvalid):
		return ErrTokenValidation.with(err)
	default:
		return ErrToken.with(err)
	}
}

func refreshError(err error) *Error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrRefreshExpired.with(err)
	case errors.Is(err, token.ErrBadSignature),
		errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrInvalid):
		return ErrRefreshValidation.with(err)
	default:
		return ErrRefresh.with(err)
	}
}
