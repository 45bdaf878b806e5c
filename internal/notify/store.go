package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists notifications.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BatchInsert writes batch in a single multi-row INSERT. It is a no-op when
// batch is empty.
func (s *Store) BatchInsert(ctx context.Context, batch []Notification) error {
	if len(batch) == 0 {
		return nil
	}

	const cols = 5
	args := make([]any, 0, len(batch)*cols)
	rows := make([]string, 0, len(batch))

	for i, n := range batch {
		base := i * cols
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))

		payload := n.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling payload for %s: %w", n.ID, err)
		}
		args = append(args, n.ID, n.RecipientID, n.Kind, payloadJSON, n.CreatedAt)
	}

	query := `INSERT INTO notifications (id, recipient_id, kind, payload, created_at)
		VALUES ` + strings.Join(rows, ", ")

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("batch inserting notifications: %w", err)
	}
	return nil
}

// ListForRecipient returns the most recent notifications for recipientID,
// newest first.
func (s *Store) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, recipient_id, kind, payload, created_at
		 FROM notifications WHERE recipient_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("unmarshaling payload: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
