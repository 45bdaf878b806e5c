package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alecgard/pitchside/internal/token"
)

const (
	testSecret = "test-signing-secret"
	testKey    = "3031323334353637383961626364656630313233343536373839616263646566"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDirectory is an in-memory Directory that counts its calls.
type fakeDirectory struct {
	mu       sync.Mutex
	accounts map[string]*Account
	calls    int
	err      error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: make(map[string]*Account)}
}

func (d *fakeDirectory) add(t *testing.T, email, password, name string) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	acct := &Account{ID: "id-" + strconv.Itoa(len(d.accounts)+1), Email: email, Name: name, PasswordHash: string(hash)}
	d.accounts[email] = acct
	return acct
}

func (d *fakeDirectory) remove(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.accounts, email)
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDirectory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.accounts[email]
	return ok, nil
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	acct, ok := d.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (d *fakeDirectory) Create(_ context.Context, in NewAccount) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if _, ok := d.accounts[in.Email]; ok {
		return nil, ErrAccountExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	acct := &Account{ID: "id-" + strconv.Itoa(len(d.accounts)+1), Email: in.Email, Name: in.Name, PasswordHash: string(hash)}
	d.accounts[in.Email] = acct
	cp := *acct
	return &cp, nil
}

func (d *fakeDirectory) UpdateName(_ context.Context, email, name string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	acct, ok := d.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acct.Name = name
	cp := *acct
	return &cp, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	issued map[string]int
	failed map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{issued: map[string]int{}, failed: map[string]int{}}
}

func (o *recordingObserver) TokenIssued(role Role, kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.issued[string(role)+"/"+kind]++
}

func (o *recordingObserver) SessionFailed(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[code]++
}

type testEnv struct {
	svc   *Service
	codec *token.Codec
	clock *fixedClock
	users *fakeDirectory
	orgs  *fakeDirectory
	obs   *recordingObserver
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	clock := newClock()
	codec, err := token.NewCodec(testSecret, testKey, token.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	env := &testEnv{
		codec: codec,
		clock: clock,
		users: newFakeDirectory(),
		orgs:  newFakeDirectory(),
		obs:   newRecordingObserver(),
	}
	opts = append([]Option{WithObserver(env.obs)}, opts...)
	env.svc = NewService(codec, env.users, env.orgs, opts...)
	return env
}

func assertCode(t *testing.T, err error, want *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want.Code)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v", want.Code, err)
	}
	if got := AsError(err); got.Status != want.Status {
		t.Errorf("status = %d, want %d", got.Status, want.Status)
	}
}
