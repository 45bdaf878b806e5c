package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alecgard/pitchside/internal/database/dbtest"
)

func TestStoreBatchInsertAndList(t *testing.T) {
	s := NewStore(dbtest.NewPool(t))
	ctx := context.Background()

	if err := s.BatchInsert(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	batch := []Notification{
		{ID: newID(base), RecipientID: "alice", Kind: "event.created", Payload: map[string]any{"eventId": "e1"}, CreatedAt: base},
		{ID: newID(base.Add(time.Second)), RecipientID: "alice", Kind: "event.expired", CreatedAt: base.Add(time.Second)},
		{ID: newID(base), RecipientID: "bob", Kind: "event.created", CreatedAt: base},
	}
	if err := s.BatchInsert(ctx, batch); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	got, err := s.ListForRecipient(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "event.expired" || got[1].Payload["eventId"] != "e1" {
		t.Errorf("unexpected notifications %+v", got)
	}
}
