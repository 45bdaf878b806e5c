package event

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Sport identifies the kind of game being played.
type Sport struct {
	TypeID string `json:"typeId"`
	Name   string `json:"name"`
}

// Validate checks the sport reference.
func (s Sport) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.TypeID, validation.Length(0, 64)),
		validation.Field(&s.Name, validation.Required, validation.Length(1, 64)),
	)
}

// Organizer is the account that created the event.
type Organizer struct {
	ID   string `json:"organizerId"`
	Name string `json:"name"`
}

// Participant is one roster entry.
type Participant struct {
	ID   string `json:"participantId"`
	Name string `json:"participantName"`
}

// Event is a schedulable gathering with a roster and a lifecycle status.
type Event struct {
	ID               string        `json:"id"`
	PlaceID          string        `json:"placeId"`
	Sport            Sport         `json:"sportEvent"`
	Organizer        Organizer     `json:"organizerEvent"`
	Participants     []Participant `json:"participants"`
	ParticipantCount int           `json:"participantCount"`
	Status           Status        `json:"status"`
	Description      string        `json:"description"`
	SkillLevel       string        `json:"skillLevel"`
	DateTime         time.Time     `json:"dateTime"`
	Version          int64         `json:"version"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// CreateEventInput holds the fields a caller supplies when creating an event.
type CreateEventInput struct {
	PlaceID     string    `json:"placeId"`
	Sport       Sport     `json:"sportEvent"`
	Description string    `json:"description"`
	SkillLevel  string    `json:"skillLevel"`
	DateTime    time.Time `json:"dateTime"`
}

// Validate checks field presence and sizes. Whether DateTime lies in the
// future is checked by the service against its own clock.
func (in CreateEventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PlaceID, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Sport),
		validation.Field(&in.Description, validation.Length(0, 2000)),
		validation.Field(&in.SkillLevel, validation.Required, validation.Length(1, 32)),
		validation.Field(&in.DateTime, validation.Required),
	)
}

// ChangeStatusInput is the payload of a status change request.
type ChangeStatusInput struct {
	Status Status `json:"status"`
}
