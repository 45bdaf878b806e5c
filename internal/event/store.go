package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `id, place_id, sport_type_id, sport_name, organizer_id, organizer_name,
	participants, participant_count, status, description, skill_level, date_time,
	version, created_at, updated_at`

// Store persists events in Postgres. The roster is stored as JSONB next to
// the event row and every write is guarded by the version column.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new event store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scanEvent scans an event row, decoding the JSONB participants column.
func scanEvent(scan func(dest ...any) error) (*Event, error) {
	e := &Event{}
	var participantsJSON []byte
	err := scan(
		&e.ID, &e.PlaceID, &e.Sport.TypeID, &e.Sport.Name, &e.Organizer.ID, &e.Organizer.Name,
		&participantsJSON, &e.ParticipantCount, &e.Status, &e.Description, &e.SkillLevel, &e.DateTime,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(participantsJSON) > 0 {
		if err := json.Unmarshal(participantsJSON, &e.Participants); err != nil {
			return nil, fmt.Errorf("unmarshaling participants: %w", err)
		}
	}
	if e.Participants == nil {
		e.Participants = []Participant{}
	}
	return e, nil
}

func marshalParticipants(ps []Participant) ([]byte, error) {
	if ps == nil {
		ps = []Participant{}
	}
	return json.Marshal(ps)
}

// Create inserts e. An empty ID is filled with a new UUID; Version,
// CreatedAt and UpdatedAt are set from the stored row.
func (s *Store) Create(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	participants, err := marshalParticipants(e.Participants)
	if err != nil {
		return fmt.Errorf("marshaling participants: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO events (id, place_id, sport_type_id, sport_name, organizer_id, organizer_name,
		     participants, participant_count, status, description, skill_level, date_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING version, created_at, updated_at`,
		e.ID, e.PlaceID, e.Sport.TypeID, e.Sport.Name, e.Organizer.ID, e.Organizer.Name,
		participants, len(e.Participants), e.Status, e.Description, e.SkillLevel, e.DateTime,
	).Scan(&e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	e.ParticipantCount = len(e.Participants)
	return nil
}

// GetByID retrieves an event by primary key. Unknown or malformed ids yield
// ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	e, err := scanEvent(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+selectColumns+` FROM events WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// FindByStatus returns all events in status, soonest first.
func (s *Store) FindByStatus(ctx context.Context, status Status) ([]*Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM events WHERE status = $1 ORDER BY date_time ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("listing events by status: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Save writes the mutable fields of e if the stored version still equals
// e.Version, then bumps the version. A stale e yields ErrConflict.
func (s *Store) Save(ctx context.Context, e *Event) error {
	participants, err := marshalParticipants(e.Participants)
	if err != nil {
		return fmt.Errorf("marshaling participants: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE events
		 SET participants = $3, participant_count = $4, status = $5, description = $6,
		     skill_level = $7, date_time = $8, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2
		 RETURNING version, updated_at`,
		e.ID, e.Version, participants, len(e.Participants), e.Status, e.Description,
		e.SkillLevel, e.DateTime,
	).Scan(&e.Version, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConflict
		}
		return fmt.Errorf("saving event: %w", err)
	}
	e.ParticipantCount = len(e.Participants)
	return nil
}
