package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchInserter persists a batch of notifications.
type BatchInserter interface {
	BatchInsert(ctx context.Context, batch []Notification) error
}

// Observer is told about every flush attempt.
type Observer interface {
	NotificationsFlushed(count int, err error)
}

type nopObserver struct{}

func (nopObserver) NotificationsFlushed(int, error) {}

// Outbox buffers notifications in memory and flushes them to the store when
// the buffer reaches batchSize or every flushInterval, whichever comes first.
// It is safe for concurrent use.
type Outbox struct {
	store         BatchInserter
	observer      Observer
	buffer        []Notification
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	now           func() time.Time
	done          chan struct{}
	stopOnce      sync.Once
}

// NewOutbox creates an Outbox writing to store.
func NewOutbox(store BatchInserter, batchSize int, flushInterval time.Duration) *Outbox {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Outbox{
		store:         store,
		observer:      nopObserver{},
		buffer:        make([]Notification, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		now:           time.Now,
		done:          make(chan struct{}),
	}
}

// SetObserver reports flushes to o.
func (o *Outbox) SetObserver(obs Observer) {
	if obs != nil {
		o.observer = obs
	}
}

// Start flushes buffered notifications on a timer. It blocks until Stop is
// called or the context is cancelled, flushing once more before returning.
func (o *Outbox) Start(ctx context.Context) {
	ticker := time.NewTicker(o.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.flush()
		case <-ctx.Done():
			o.flush()
			return
		case <-o.done:
			o.flush()
			return
		}
	}
}

// Send queues a notification for recipientID. It never blocks on storage
// and never reports delivery failures to the caller.
func (o *Outbox) Send(recipientID, kind string, payload map[string]any) {
	now := o.now().UTC()
	n := Notification{
		ID:          newID(now),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
		CreatedAt:   now,
	}

	o.mu.Lock()
	o.buffer = append(o.buffer, n)
	shouldFlush := len(o.buffer) >= o.batchSize
	o.mu.Unlock()

	if shouldFlush {
		go o.flush()
	}
}

// Pending returns the number of buffered notifications.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buffer)
}

// flush drains the buffer and writes it to the store. Errors are logged and
// the batch is dropped.
func (o *Outbox) flush() {
	o.mu.Lock()
	if len(o.buffer) == 0 {
		o.mu.Unlock()
		return
	}
	batch := o.buffer
	o.buffer = make([]Notification, 0, o.batchSize)
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := o.store.BatchInsert(ctx, batch)
	if err != nil {
		slog.Error("failed to flush notifications", "count", len(batch), "error", err)
	}
	o.observer.NotificationsFlushed(len(batch), err)
}

// Stop signals the background goroutine to exit and flushes whatever is
// still buffered before returning.
func (o *Outbox) Stop() {
	o.stopOnce.Do(func() {
		close(o.done)
		o.flush()
	})
}
