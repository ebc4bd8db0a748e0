package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscus/pkg/domain"
)

type fakeSource struct {
	pending []Event
	marked  []uuid.UUID
}

func (f *fakeSource) Unpublished(_ context.Context, limit int) ([]Event, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return f.pending[:limit], nil
}

func (f *fakeSource) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	f.marked = append(f.marked, ids...)
	return nil
}

type fakeSink struct {
	published map[string][][]byte
	failAfter int
}

func (f *fakeSink) Publish(_ context.Context, key string, payload []byte) error {
	if f.failAfter == 0 {
		return errors.New("broker unavailable")
	}
	f.failAfter--
	if f.published == nil {
		f.published = map[string][][]byte{}
	}
	f.published[key] = append(f.published[key], payload)
	return nil
}

func testEvent(action string, entityID domain.EntityID) Event {
	return Event{
		ID:         uuid.New(),
		Action:     action,
		Actor:      domain.Caller("central-government"),
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func TestRelayDrain(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("publishes pending events keyed by entity", func(t *testing.T) {
		events := []Event{
			testEvent(ActionEntityRegistered, "ministry-of-health"),
			testEvent(ActionFundsIssued, "ministry-of-health"),
		}
		source := &fakeSource{pending: events}
		sink := &fakeSink{failAfter: len(events)}
		relay := NewRelay(source, sink, logger)

		require.NoError(t, relay.drain(context.Background()))
		require.Len(t, sink.published["ministry-of-health"], 2)
		assert.Equal(t, []uuid.UUID{events[0].ID, events[1].ID}, source.marked)

		var decoded Event
		require.NoError(t, json.Unmarshal(sink.published["ministry-of-health"][0], &decoded))
		assert.Equal(t, ActionEntityRegistered, decoded.Action)
	})

	t.Run("publish failure keeps delivered prefix marked", func(t *testing.T) {
		events := []Event{
			testEvent(ActionEntityRegistered, "ministry-of-health"),
			testEvent(ActionFundsIssued, "ministry-of-health"),
			testEvent(ActionRequestApproved, "ministry-of-health"),
		}
		source := &fakeSource{pending: events}
		sink := &fakeSink{failAfter: 1}
		relay := NewRelay(source, sink, logger)

		err := relay.drain(context.Background())
		require.Error(t, err)
		assert.Equal(t, []uuid.UUID{events[0].ID}, source.marked)
	})
}

func TestPublisherFillsDefaults(t *testing.T) {
	source := &captureStore{}
	publisher := NewPublisher(source)

	err := publisher.Emit(context.Background(), Event{
		Action:   ActionSpendingRecorded,
		Actor:    domain.Caller("central-government"),
		EntityID: "ministry-of-health",
	})
	require.NoError(t, err)
	require.Len(t, source.events, 1)
	assert.NotEqual(t, uuid.Nil, source.events[0].ID)
	assert.False(t, source.events[0].OccurredAt.IsZero())
}

type captureStore struct {
	events []Event
}

func (c *captureStore) Append(_ context.Context, event Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureStore) ListByEntity(_ context.Context, entityID domain.EntityID) ([]Event, error) {
	events := []Event{}
	for _, event := range c.events {
		if event.EntityID == entityID {
			events = append(events, event)
		}
	}
	return events, nil
}
