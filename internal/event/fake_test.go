package event

import (
	"context"
	"sync"
	"time"

	"github.com/alecgard/pitchside/internal/auth"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return baseTime }

func cloneEvent(e *Event) *Event {
	cp := *e
	cp.Participants = append([]Participant(nil), e.Participants...)
	return &cp
}

// fakeRepo is an in-memory Repository with version checking.
type fakeRepo struct {
	mu        sync.Mutex
	events    map[string]*Event
	saveErr   map[string]error
	findErr   error
	conflicts int // number of upcoming Saves to reject as stale
	saves     int
}

func newFakeRepo(events ...*Event) *fakeRepo {
	r := &fakeRepo{events: map[string]*Event{}, saveErr: map[string]error{}}
	for _, e := range events {
		if e.Version == 0 {
			e.Version = 1
		}
		r.events[e.ID] = cloneEvent(e)
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Version = 1
	e.CreatedAt, e.UpdatedAt = baseTime, baseTime
	r.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *fakeRepo) FindByStatus(_ context.Context, status Status) ([]*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*Event
	for _, e := range r.events {
		if e.Status == status {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (r *fakeRepo) Save(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if err := r.saveErr[e.ID]; err != nil {
		return err
	}
	stored, ok := r.events[e.ID]
	if !ok {
		return ErrConflict
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
		return ErrConflict
	}
	if stored.Version != e.Version {
		return ErrConflict
	}
	e.Version++
	e.ParticipantCount = len(e.Participants)
	r.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *fakeRepo) get(id string) *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneEvent(r.events[id])
}

type sentNotification struct {
	recipient string
	kind      string
	payload   map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Send(recipientID, kind string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipient: recipientID, kind: kind, payload: payload})
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.kind
	}
	return out
}

type recordingObserver struct {
	mu      sync.Mutex
	roster  []string
	changes [][2]Status
	sweeps  []SweepResult
}

func (o *recordingObserver) RosterChanged(action string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.roster = append(o.roster, action)
}

func (o *recordingObserver) StatusChanged(from, to Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, [2]Status{from, to})
}

func (o *recordingObserver) SweepCompleted(r SweepResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweeps = append(o.sweeps, r)
}

func identity(role auth.Role, id, name string) auth.Identity {
	return auth.Identity{
		Principal: auth.Principal{Subject: id + "@x.com", Role: role, Authority: string(role)},
		Profile:   auth.Profile{ID: id, Email: id + "@x.com", Name: name, Role: role},
	}
}

var (
	alice  = identity(auth.RoleUser, "alice", "Alice")
	bob    = identity(auth.RoleUser, "bob", "Bob")
	club   = identity(auth.RoleOrganization, "club", "Sunday League")
	league = identity(auth.RoleOrganization, "league", "County League")
)

var guest = auth.Identity{
	Principal: auth.Principal{Subject: auth.GuestSubject, Role: auth.RoleGuest, Authority: "GUEST"},
	Profile:   auth.Profile{ID: auth.GuestSubject, Role: auth.RoleGuest},
}

var system = auth.Identity{
	Principal: auth.Principal{Subject: auth.SystemSubject, Role: auth.RoleSystem, Authority: "SYSTEM"},
	Profile:   auth.Profile{ID: auth.SystemSubject, Role: auth.RoleSystem},
}

func openEvent(id string, at time.Time) *Event {
	return &Event{
		ID:           id,
		PlaceID:      "place-1",
		Sport:        Sport{TypeID: "1", Name: "Football"},
		Organizer:    Organizer{ID: "alice", Name: "Alice"},
		Participants: []Participant{},
		Status:       StatusOpen,
		SkillLevel:   "ANY",
		DateTime:     at,
		Version:      1,
	}
}
