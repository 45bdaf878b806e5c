package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

// fixedClock returns a controllable time source.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestCodec(t *testing.T, clock *fixedClock) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, testKey(t), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodecRequiresKeys(t *testing.T) {
	if _, err := NewCodec("", testKey(t)); err == nil {
		t.Error("expected error for empty signing secret")
	}
	if _, err := NewCodec(testSecret, ""); err == nil {
		t.Error("expected error for empty encryption key")
	}
}

func TestSignVerifyRoundtrip(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	signed, err := c.Sign("alice@x.com", "USER", KindAccess, 2*time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	clock.now = clock.now.Add(time.Minute)
	claims, err := c.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@x.com" {
		t.Errorf("subject = %q, want alice@x.com", claims.Subject)
	}
	if claims.Role != "USER" {
		t.Errorf("role = %q, want USER", claims.Role)
	}
	if claims.Kind != KindAccess {
		t.Errorf("kind = %q, want access", claims.Kind)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
	wantExp := time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC)
	if !claims.ExpiresAt.Time.Equal(wantExp) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt.Time, wantExp)
	}
}

func TestVerifyExpired(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	signed, err := c.Sign("alice@x.com", "USER", KindAccess, 2*time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	clock.now = clock.now.Add(3 * time.Minute)
	claims, err := c.Verify(signed)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if claims != nil {
		t.Error("expired token must not yield claims")
	}
}

func TestSignFractionalSecondClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 600_000_000, time.UTC)

	tests := []struct {
		name    string
		ttl     time.Duration
		elapsed time.Duration
		wantErr error
	}{
		{"sub-second ttl before expiry", 300 * time.Millisecond, 100 * time.Millisecond, nil},
		{"sub-second ttl just before expiry", 300 * time.Millisecond, 299 * time.Millisecond, nil},
		{"minute ttl just before expiry", 2 * time.Minute, 2*time.Minute - time.Millisecond, nil},
		{"minute ttl well past expiry", 2 * time.Minute, 2*time.Minute + time.Second, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fixedClock{now: start}
			c := newTestCodec(t, clock)

			signed, err := c.Sign("alice@x.com", "USER", KindAccess, tt.ttl)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			clock.now = start.Add(tt.elapsed)

			_, err = c.Verify(signed)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVerifyBadSignature(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	c := newTestCodec(t, clock)

	other, err := NewCodec("another-secret", testKey(t), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	signed, _ := other.Sign("alice@x.com", "USER", KindAccess, time.Minute)

	if _, err := c.Verify(signed); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	c := newTestCodec(t, clock)

	claims := Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@x.com",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing HS256: %v", err)
	}

	if _, err := c.Verify(hs256); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for HS256 token, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, &fixedClock{now: time.Now()})

	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := c.Verify(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Verify(%q): expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestSignRejectsNonPositiveTTL(t *testing.T) {
	c := newTestCodec(t, &fixedClock{now: time.Now()})
	if _, err := c.Sign("alice@x.com", "USER", KindAccess, 0); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestIssueOpenRoundtrip(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	wrapped, err := c.Issue("club@x.com", "ORGANIZATION", KindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// The wrapped form must not be a readable JWT.
	if _, err := c.Verify(wrapped); err == nil {
		t.Fatal("wrapped token should not verify without decrypting first")
	}

	claims, err := c.Open(wrapped)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if claims.Subject != "club@x.com" || claims.Role != "ORGANIZATION" || claims.Kind != KindRefresh {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestOpenExpired(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	wrapped, _ := c.Issue("alice@x.com", "USER", KindAccess, 2*time.Minute)
	clock.now = clock.now.Add(2*time.Minute + time.Second)

	if _, err := c.Open(wrapped); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestOpenUndecryptable(t *testing.T) {
	c := newTestCodec(t, &fixedClock{now: time.Now()})

	tests := []string{"", "%%%", "YQ=="}
	for _, in := range tests {
		if _, err := c.Open(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Open(%q): expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestOpenRawSignedTokenIsMalformed(t *testing.T) {
	c := newTestCodec(t, &fixedClock{now: time.Now()})

	signed, _ := c.Sign("alice@x.com", "USER", KindAccess, time.Minute)
	if _, err := c.Open(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("an unwrapped token must be rejected, got %v", err)
	}
}
