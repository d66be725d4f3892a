package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

type failingStore struct{}

func (failingStore) Append(context.Context, events.Event) (events.Event, error) {
	return events.Event{}, errors.New("disk full")
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &events.MemoryStore{}
	notifier := &captureNotifier{}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier, nil},
		Now:       func() time.Time { return fixed },
	}

	aggregate := uuid.New()
	event, err := bus.Emit(context.Background(), events.TopicCheckoutSettled, aggregate, map[string]any{"finalAmount": "229.43"})
	require.NoError(t, err)
	require.Equal(t, events.TopicCheckoutSettled, event.Topic)
	require.Equal(t, aggregate, event.AggregateID)
	require.Equal(t, fixed, event.OccurredAt)
	require.JSONEq(t, `{"finalAmount":"229.43"}`, string(event.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	stored := store.Events(events.TopicCheckoutSettled)
	require.Len(t, stored, 1)
	require.Empty(t, store.Events(events.TopicCheckoutAborted))
	require.Len(t, store.Events(""), 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stored[0].Payload, &decoded))
	require.Equal(t, "229.43", decoded["finalAmount"])
}

func TestEmitValidatesInput(t *testing.T) {
	store := &events.MemoryStore{}
	bus := &events.Bus{Store: store}

	_, err := bus.Emit(context.Background(), " ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicCheckoutAborted, uuid.Nil, nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicCheckoutAborted, uuid.New(), []byte("{not json"))
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicCheckoutAborted, uuid.New(), nil)
	require.Error(t, err)

	ev, err := bus.Emit(context.Background(), events.TopicCheckoutAborted, uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(ev.Payload))
}

func TestEmitPropagatesStoreAndNotifierErrors(t *testing.T) {
	_, err := (&events.Bus{Store: failingStore{}}).Emit(context.Background(), events.TopicCheckoutSettled, uuid.New(), nil)
	require.ErrorContains(t, err, "disk full")

	notifier := &captureNotifier{err: errors.New("boom")}
	bus := &events.Bus{Store: &events.MemoryStore{}, Notifiers: []events.Notifier{notifier}}
	ev, err := bus.Emit(context.Background(), events.TopicCheckoutSettled, uuid.New(), nil)
	require.ErrorContains(t, err, "boom")
	require.NotEqual(t, uuid.Nil, ev.ID)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := events.LogNotifier{Logger: zerolog.New(&buf)}
	ev := events.Event{ID: uuid.New(), Topic: events.TopicCheckoutAborted, AggregateID: uuid.New(), Payload: json.RawMessage(`{"state":"ABORTED"}`)}

	require.NoError(t, n.Notify(context.Background(), ev))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "checkout.aborted", entry["topic"])
	require.Equal(t, map[string]any{"state": "ABORTED"}, entry["payload"])
	require.Equal(t, "domain_event", entry["message"])
}

func TestDefaultTopics(t *testing.T) {
	require.ElementsMatch(t, []string{"checkout.settled", "checkout.aborted", "checkout.fulfillment_failed"}, events.DefaultTopics())
}
