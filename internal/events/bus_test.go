package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-apotek/internal/events"
)

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(_ context.Context, _ events.Event) error {
	return errors.New("boom")
}

func TestEmitRecordsAndFansOut(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	capture := &captureNotifier{}
	bus := &events.Bus{
		Now:       func() time.Time { return now },
		Notifiers: []events.Notifier{capture},
	}

	aggregate := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicSaleCompleted, aggregate, map[string]any{"total": "34.50"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, ev.ID)
	require.Equal(t, events.TopicSaleCompleted, ev.Topic)
	require.Equal(t, aggregate, ev.AggregateID)
	require.Equal(t, now, ev.OccurredAt)

	require.Len(t, capture.events, 1)
	require.Equal(t, ev.ID, capture.events[0].ID)

	journal := bus.Journal()
	require.Len(t, journal, 1)
	require.Equal(t, ev.ID, journal[0].ID)
}

func TestEmitValidation(t *testing.T) {
	bus := &events.Bus{}
	_, err := bus.Emit(context.Background(), "", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicStockLow, uuid.Nil, nil)
	require.Error(t, err)
	require.Empty(t, bus.Journal())
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	capture := &captureNotifier{}
	bus := &events.Bus{
		Notifiers: []events.Notifier{failingNotifier{}, capture, nil},
	}
	_, err := bus.Emit(context.Background(), events.TopicStockOut, uuid.New(), nil)
	require.Error(t, err)

	// the failing notifier does not stop delivery to the others
	require.Len(t, capture.events, 1)
	require.Len(t, bus.Journal(), 1)
}

func TestDefaultTopicsNonEmpty(t *testing.T) {
	topics := events.DefaultTopics()
	require.NotEmpty(t, topics)
	seen := make(map[string]bool, len(topics))
	for _, topic := range topics {
		require.False(t, seen[topic], "duplicate topic %s", topic)
		seen[topic] = true
	}
}
