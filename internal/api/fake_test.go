package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/event"
	"github.com/alecgard/pitchside/internal/metrics"
	"github.com/alecgard/pitchside/internal/notify"
	"github.com/alecgard/pitchside/internal/ratelimit"
	"github.com/alecgard/pitchside/internal/token"
)

const (
	testSecret = "test-signing-secret"
	testKey    = "3031323334353637383961626364656630313233343536373839616263646566"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakePinger implements the Ping(ctx) method used by the health handler.
type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

// fakeDirectory is an in-memory auth.Directory.
type fakeDirectory struct {
	mu       sync.Mutex
	prefix   string
	accounts map[string]*auth.Account
}

func newFakeDirectory(prefix string) *fakeDirectory {
	return &fakeDirectory{prefix: prefix, accounts: map[string]*auth.Account{}}
}

func (d *fakeDirectory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.accounts[email]
	return ok, nil
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[email]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (d *fakeDirectory) Create(_ context.Context, in auth.NewAccount) (*auth.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[in.Email]; ok {
		return nil, auth.ErrAccountExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	acct := &auth.Account{
		ID:           d.prefix + "-" + strconv.Itoa(len(d.accounts)+1),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
	}
	d.accounts[in.Email] = acct
	cp := *acct
	return &cp, nil
}

func (d *fakeDirectory) UpdateName(_ context.Context, email, name string) (*auth.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[email]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	acct.Name = name
	cp := *acct
	return &cp, nil
}

// fakeEventRepo is an in-memory event.Repository with version checking.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*event.Event
}

func copyEvent(e *event.Event) *event.Event {
	cp := *e
	cp.Participants = append([]event.Participant(nil), e.Participants...)
	return &cp
}

func (r *fakeEventRepo) Create(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Version = 1
	r.events[e.ID] = copyEvent(e)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r *fakeEventRepo) FindByStatus(_ context.Context, status event.Status) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*event.Event
	for _, e := range r.events {
		if e.Status == status {
			out = append(out, copyEvent(e))
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Save(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[e.ID]
	if !ok || stored.Version != e.Version {
		return event.ErrConflict
	}
	e.Version++
	r.events[e.ID] = copyEvent(e)
	return nil
}

// fakeOutbox collects sent notifications and serves them back per recipient.
type fakeOutbox struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (o *fakeOutbox) Send(recipientID, kind string, payload map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, notify.Notification{
		ID:          strconv.Itoa(len(o.items) + 1),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
	})
}

func (o *fakeOutbox) ListForRecipient(_ context.Context, recipientID string, limit int) ([]notify.Notification, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []notify.Notification
	for i := len(o.items) - 1; i >= 0 && len(out) < limit; i-- {
		if o.items[i].RecipientID == recipientID {
			out = append(out, o.items[i])
		}
	}
	return out, nil
}

type testServer struct {
	handler http.Handler
	clock   *testClock
	users   *fakeDirectory
	orgs    *fakeDirectory
	events  *fakeEventRepo
	outbox  *fakeOutbox
	metrics *metrics.Metrics
}

// newTestServer wires real auth and event services over in-memory fakes.
func newTestServer(t *testing.T, limiter *ratelimit.Limiter, opts ...func(*RouterDeps)) *testServer {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(testSecret, testKey, token.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}

	ts := &testServer{
		clock:   clock,
		users:   newFakeDirectory("user"),
		orgs:    newFakeDirectory("org"),
		events:  &fakeEventRepo{events: map[string]*event.Event{}},
		outbox:  &fakeOutbox{},
		metrics: metrics.New(),
	}
	authSvc := auth.NewService(codec, ts.users, ts.orgs, auth.WithObserver(ts.metrics))
	eventSvc := event.NewService(ts.events, ts.outbox, event.WithClock(clock.Now), event.WithObserver(ts.metrics))

	deps := RouterDeps{
		Auth:           authSvc,
		Events:         eventSvc,
		Notifications:  ts.outbox,
		Limiter:        limiter,
		Metrics:        ts.metrics,
		DB:             &fakePinger{},
		AllowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	ts.handler = NewRouter(deps)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user account and returns its token headers.
func (ts *testServer) register(t *testing.T, email, name string) map[string]string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "password": "correct-horse", "name": name}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, rec.Code, rec.Body)
	}
	return tokenHeaders(t, rec)
}

// registerOrg creates an organization account and returns its token headers.
func (ts *testServer) registerOrg(t *testing.T, email, name string) map[string]string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/organizations/register",
		map[string]string{"email": email, "password": "correct-horse", "name": name, "description": "club"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register org %s: expected 201, got %d: %s", email, rec.Code, rec.Body)
	}
	return tokenHeaders(t, rec)
}

func tokenHeaders(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var pair auth.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&pair); err != nil {
		t.Fatalf("decoding token pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	return map[string]string{
		auth.HeaderAccessToken:  pair.AccessToken,
		auth.HeaderRefreshToken: pair.RefreshToken,
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return envelope.Error.Code
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) event.Event {
	t.Helper()
	var e event.Event
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	return e
}
