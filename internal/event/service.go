package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alecgard/pitchside/internal/auth"
)

// maxSaveAttempts bounds the reload-and-retry loop on version conflicts.
const maxSaveAttempts = 3

// Notification kinds sent to organizers and participants.
const (
	NotifyCreated           = "event.created"
	NotifyParticipantJoined = "event.participant_joined"
	NotifyParticipantLeft   = "event.participant_left"
	NotifyStatusChanged     = "event.status_changed"
	NotifyExpired           = "event.expired"
)

// Repository is the event persistence contract. Save must fail with
// ErrConflict when the stored version differs from the one on the event.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	FindByStatus(ctx context.Context, status Status) ([]*Event, error)
	Save(ctx context.Context, e *Event) error
}

// Notifier delivers fire-and-forget notifications.
type Notifier interface {
	Send(recipientID, kind string, payload map[string]any)
}

// Observer receives roster, status and sweep outcomes.
type Observer interface {
	RosterChanged(action string)
	StatusChanged(from, to Status)
	SweepCompleted(r SweepResult)
}

type nopObserver struct{}

func (nopObserver) RosterChanged(string) {}
func (nopObserver) StatusChanged(Status, Status) {}
func (nopObserver) SweepCompleted(SweepResult) {}

// Service implements event creation, roster changes and status changes on
// top of a Repository.
type Service struct {
	repo     Repository
	notifier Notifier
	observer Observer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithObserver reports roster and status changes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates an event Service.
func NewService(repo Repository, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEvent creates an event organized by actor. Events created by users
// start OPEN; events created by organizations start PENDING_APPROVAL.
func (s *Service) AddEvent(ctx context.Context, actor auth.Identity, in CreateEventInput) (*Event, error) {
	var status Status
	switch actor.Principal.Role {
	case auth.RoleUser:
		status = StatusOpen
	case auth.RoleOrganization:
		status = StatusPendingApproval
	default:
		return nil, ErrForbidden
	}

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !in.DateTime.After(s.now()) {
		return nil, ErrPastDate
	}

	e := &Event{
		ID:           uuid.NewString(),
		PlaceID:      in.PlaceID,
		Sport:        in.Sport,
		Organizer:    Organizer{ID: actor.Profile.ID, Name: actor.Profile.Name},
		Participants: []Participant{},
		Status:       status,
		Description:  in.Description,
		SkillLevel:   in.SkillLevel,
		DateTime:     in.DateTime.UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	slog.Info("event created", "event_id", e.ID, "organizer_id", e.Organizer.ID, "status", e.Status)
	s.notifier.Send(e.Organizer.ID, NotifyCreated, eventPayload(e))
	return e, nil
}

// Get returns the event with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByStatus returns all events currently in status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	events, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*Event{}
	}
	return events, nil
}

// Join adds actor to the roster of event id.
func (s *Service) Join(ctx context.Context, actor auth.Identity, id string) (*Event, error) {
	if !canParticipate(actor) {
		return nil, ErrForbidden
	}
	p := Participant{ID: actor.Profile.ID, Name: actor.Profile.Name}

	e, err := s.mutate(ctx, id, func(e *Event) error {
		if !e.CanJoin(s.now()) {
			return ErrNotJoinable
		}
		return e.AddParticipant(p)
	})
	if err != nil {
		return nil, err
	}

	s.observer.RosterChanged("join")
	payload := eventPayload(e)
	payload["participantId"] = p.ID
	s.notifier.Send(e.Organizer.ID, NotifyParticipantJoined, payload)
	return e, nil
}

// Leave removes actor from the roster of event id.
func (s *Service) Leave(ctx context.Context, actor auth.Identity, id string) (*Event, error) {
	if !canParticipate(actor) {
		return nil, ErrForbidden
	}

	e, err := s.mutate(ctx, id, func(e *Event) error {
		return e.RemoveParticipant(actor.Profile.ID)
	})
	if err != nil {
		return nil, err
	}

	s.observer.RosterChanged("leave")
	payload := eventPayload(e)
	payload["participantId"] = actor.Profile.ID
	s.notifier.Send(e.Organizer.ID, NotifyParticipantLeft, payload)
	return e, nil
}

// ChangeStatus drives event id to status to through the transition table.
// Only the organizer, organization accounts and internal SYSTEM calls may
// change a status.
func (s *Service) ChangeStatus(ctx context.Context, actor auth.Identity, id string, to Status) (*Event, error) {
	if actor.Principal.IsGuest() {
		return nil, ErrForbidden
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}

	var from Status
	e, err := s.mutate(ctx, id, func(e *Event) error {
		if !canChangeStatus(actor, e, to) {
			return ErrForbidden
		}
		from = e.Status
		return e.TransitionTo(to)
	})
	if err != nil {
		return nil, err
	}

	s.observer.StatusChanged(from, to)
	slog.Info("event status changed", "event_id", e.ID, "from", from, "to", to, "actor", actor.Principal.Subject)
	s.notifyRoster(e, NotifyStatusChanged)
	return e, nil
}

// mutate loads event id, applies fn and saves it, reloading and retrying
// when another writer got there first.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Event) error) (*Event, error) {
	for attempt := 1; ; attempt++ {
		e, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(e); err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrConflict) || attempt >= maxSaveAttempts {
			return nil, err
		}
		slog.Debug("retrying event update after version conflict", "event_id", id, "attempt", attempt)
	}
}

func (s *Service) notifyRoster(e *Event, kind string) {
	payload := eventPayload(e)
	s.notifier.Send(e.Organizer.ID, kind, payload)
	for _, p := range e.Participants {
		if p.ID == e.Organizer.ID {
			continue
		}
		s.notifier.Send(p.ID, kind, payload)
	}
}

func canParticipate(actor auth.Identity) bool {
	switch actor.Principal.Role {
	case auth.RoleUser, auth.RoleOrganization:
		return actor.Profile.ID != ""
	default:
		return false
	}
}

// canChangeStatus lets organizations moderate events, but an approval
// decision on an event is never made by its own organizer.
func canChangeStatus(actor auth.Identity, e *Event, to Status) bool {
	switch actor.Principal.Role {
	case auth.RoleSystem:
		return true
	case auth.RoleOrganization:
		return !(isApprovalDecision(e.Status, to) && actor.Profile.ID == e.Organizer.ID)
	case auth.RoleUser:
		return actor.Profile.ID != "" && actor.Profile.ID == e.Organizer.ID
	default:
		return false
	}
}

func isApprovalDecision(from, to Status) bool {
	if from != StatusPendingApproval {
		return false
	}
	switch to {
	case StatusConfirmed, StatusRejected, StatusChangesRequested:
		return true
	default:
		return false
	}
}

func eventPayload(e *Event) map[string]any {
	return map[string]any{
		"eventId":  e.ID,
		"status":   string(e.Status),
		"dateTime": e.DateTime,
	}
}
