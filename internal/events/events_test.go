package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var got []Event
	bus.Subscribe(BookingCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(BookingCanceled, func(e Event) error {
		t.Fatalf("unexpected %s", e.Type)
		return nil
	})

	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]int64{"id": 7}))
	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]int64{"id": 8}))
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, got[1].Decode(&payload))
	assert.Equal(t, int64(8), payload.ID)
}

func TestEventBus_HandlerErrorsAreJoined(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	calls := 0

	bus.Subscribe(BookingCanceled, func(Event) error { calls++; return boom })
	bus.Subscribe(BookingCanceled, func(Event) error { calls++; return nil })

	err := bus.Publish(Event{Type: BookingCanceled})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(Event{Type: "unknown"}))
	assert.Error(t, bus.PublishJSON(BookingCreated, make(chan int)))
}
