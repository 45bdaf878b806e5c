// Package token signs, verifies, and wraps the bearer tokens handed to
// clients. A token on the wire is always AES-GCM(HS512-JWT): Issue signs
// first and encrypts second, Open decrypts first and verifies second.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tells access tokens from refresh tokens. Both share the signing key,
// so a flow must check the kind before trusting the claims.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload carried inside every token.
type Claims struct {
	Role string `json:"role"`
	Kind Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Codec holds the process-wide signing secret and wrapping cipher. Both are
// loaded from configuration at startup and never change afterwards.
type Codec struct {
	secret []byte
	cipher *Cipher
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec creates a Codec from the signing secret and a hex-encoded 32-byte
// encryption key.
func NewCodec(signingSecret, encryptionKey string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(signingSecret) == "" {
		return nil, errors.New("signing secret is empty")
	}
	ciph, err := NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("creating token cipher: %w", err)
	}

	c := &Codec{
		secret: []byte(signingSecret),
		cipher: ciph,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign builds a claim set {sub, role, typ, iat=now, exp=now+ttl} and signs
// it with HS512. Claim times have second precision, so exp is rounded up to
// keep the token valid for at least ttl.
func (c *Codec) Sign(subject, role string, kind Kind, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be greater than zero", ErrGeneration)
	}

	now := c.now()
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(ttl))),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a signed token and returns its
// claims. Expired or tampered tokens never yield claims.
func (c *Codec) Verify(signed string) (*Claims, error) {
	signed = strings.TrimSpace(signed)
	if signed == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	parsed, err := jwt.ParseWithClaims(signed, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Issue signs and then encrypts a token for transmission.
func (c *Codec) Issue(subject, role string, kind Kind, ttl time.Duration) (string, error) {
	signed, err := c.Sign(subject, role, kind, ttl)
	if err != nil {
		return "", err
	}
	wrapped, err := c.cipher.Encrypt(signed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return wrapped, nil
}

// Open decrypts a wrapped token and then verifies it.
func (c *Codec) Open(wrapped string) (*Claims, error) {
	wrapped = strings.TrimSpace(wrapped)
	if wrapped == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	signed, err := c.cipher.Decrypt(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c.Verify(signed)
}

func ceilSecond(t time.Time) time.Time {
	if tr := t.Truncate(time.Second); tr.Before(t) {
		return tr.Add(time.Second)
	}
	return t
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}
