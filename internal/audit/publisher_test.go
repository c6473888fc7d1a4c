package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("fills id and timestamp", func(t *testing.T) {
		p := NewPublisher(4, slog.Default())
		require.NoError(t, p.Emit(ctx, Event{Action: ActionCertificateIssued}))

		event := <-p.Inbox()
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, ActionCertificateIssued, event.Action)
	})

	t.Run("preserves caller-set fields", func(t *testing.T) {
		p := NewPublisher(4, slog.Default())
		stamp := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, p.Emit(ctx, Event{ID: "evt-1", Timestamp: stamp}))

		event := <-p.Inbox()
		assert.Equal(t, "evt-1", event.ID)
		assert.Equal(t, stamp, event.Timestamp)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		p := NewPublisher(1, slog.Default())
		require.NoError(t, p.Emit(ctx, Event{ID: "kept"}))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = p.Emit(ctx, Event{ID: "dropped"})
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Emit blocked on a full buffer")
		}

		event := <-p.Inbox()
		assert.Equal(t, "kept", event.ID)
		select {
		case extra := <-p.Inbox():
			t.Fatalf("unexpected buffered event %q", extra.ID)
		default:
		}
	})
}

type flakySink struct {
	failFirst bool
	appended  chan Event
}

func (s *flakySink) Append(_ context.Context, event Event) error {
	if s.failFirst {
		s.failFirst = false
		return errors.New("kafka: broker unreachable")
	}
	s.appended <- event
	return nil
}

func TestWorker(t *testing.T) {
	t.Run("drains publisher into sink", func(t *testing.T) {
		p := NewPublisher(4, slog.Default())
		store := NewInMemoryStore()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- NewWorker(store, p.Inbox(), slog.Default()).Run(ctx) }()

		require.NoError(t, p.Emit(ctx, Event{Action: ActionCertificateVerified, Identifier: "2503-AB12CD-456789"}))
		require.Eventually(t, func() bool {
			return len(store.All()) == 1
		}, time.Second, 10*time.Millisecond)

		trail, err := store.ListByIdentifier(ctx, "2503-AB12CD-456789")
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, ActionCertificateVerified, trail[0].Action)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("sink failure does not stall the trail", func(t *testing.T) {
		p := NewPublisher(4, slog.Default())
		sink := &flakySink{failFirst: true, appended: make(chan Event, 4)}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() { _ = NewWorker(sink, p.Inbox(), slog.Default()).Run(ctx) }()

		require.NoError(t, p.Emit(ctx, Event{ID: "evt-1"}))
		require.NoError(t, p.Emit(ctx, Event{ID: "evt-2"}))

		select {
		case event := <-sink.appended:
			assert.Equal(t, "evt-2", event.ID)
		case <-time.After(time.Second):
			t.Fatal("worker stalled after a sink failure")
		}
	})
}
