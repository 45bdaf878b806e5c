package event

import "time"

// AddParticipant appends p to the roster and recomputes the count. A
// participant already on the roster is rejected with ErrAlreadyJoined.
func (e *Event) AddParticipant(p Participant) error {
	if e.HasParticipant(p.ID) {
		return ErrAlreadyJoined
	}
	e.Participants = append(e.Participants, p)
	e.ParticipantCount = len(e.Participants)
	return nil
}

// RemoveParticipant drops the participant with the given id and recomputes
// the count.
func (e *Event) RemoveParticipant(id string) error {
	kept := make([]Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(e.Participants) {
		return ErrNotParticipant
	}
	e.Participants = kept
	e.ParticipantCount = len(kept)
	return nil
}

// HasParticipant reports whether id is on the roster.
func (e *Event) HasParticipant(id string) bool {
	for _, p := range e.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// CanJoin reports whether the event accepts new participants at now: it must
// be OPEN or CONFIRMED and not yet started.
func (e *Event) CanJoin(now time.Time) bool {
	if e.Status != StatusOpen && e.Status != StatusConfirmed {
		return false
	}
	return e.DateTime.After(now)
}
