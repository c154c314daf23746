package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicOnly(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("company-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("company-b")
	defer cleanupB()

	hub.Publish("company-a", Event{Event: "payroll.run.created", Data: "run-1"})

	select {
	case ev := <-a:
		assert.Equal(t, "company-a", ev.Topic)
		assert.Equal(t, "payroll.run.created", ev.Event)
		assert.Equal(t, "run-1", ev.Data)
	default:
		t.Fatal("expected event for company-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for company-b: %+v", ev)
	default:
	}
}

func TestHub_CleanupClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("company-a")
	require.Equal(t, 1, hub.SubscriberCount("company-a"))

	cleanup()
	cleanup()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount("company-a"))

	hub.Publish("company-a", Event{Event: "ignored"})
}

func TestHub_FullBufferDropsEvents(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("company-a")
	defer cleanup()

	for i := 0; i < hub.buffer+5; i++ {
		hub.Publish("company-a", Event{Event: "tick", Data: i})
	}

	assert.Len(t, ch, hub.buffer)
	first := <-ch
	assert.Equal(t, 0, first.Data)
}
