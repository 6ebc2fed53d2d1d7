package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
)

func TestEventHub_BroadcastReachesAllClients(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	first, cancelFirst := hub.Subscribe("")
	second, cancelSecond := hub.Subscribe("")
	defer cancelFirst()
	defer cancelSecond()

	hub.Broadcast(dto.StreamEvent{Type: "ping", Message: "hello"})

	for _, ch := range []<-chan dto.StreamEvent{first, second} {
		select {
		case event := <-ch:
			require.Equal(t, "ping", event.Type)
			require.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("expected event was not delivered")
		}
	}
}

func TestEventHub_BroadcastWithZeroClientsIsNoOp(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	require.NotPanics(t, func() {
		hub.Broadcast(dto.StreamEvent{Type: "ping"})
	})
	require.Zero(t, hub.ClientCount())
}

func TestEventHub_BroadcastToTargetsKey(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	alice, cancelAlice := hub.Subscribe("alice")
	bob, cancelBob := hub.Subscribe("bob")
	defer cancelAlice()
	defer cancelBob()

	hub.BroadcastTo("alice", dto.StreamEvent{Type: "direct"})

	select {
	case event := <-alice:
		require.Equal(t, "direct", event.Type)
	case <-time.After(time.Second):
		t.Fatal("targeted client did not receive event")
	}

	select {
	case <-bob:
		t.Fatal("event leaked to another client")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventHub_SlowClientIsDropped(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	_, cancel := hub.Subscribe("")
	defer cancel()

	// Fill the buffer and push one past it; the client must be removed
	// instead of blocking the broadcaster.
	for i := 0; i < 32; i++ {
		hub.Broadcast(dto.StreamEvent{Type: "flood"})
	}

	require.Zero(t, hub.ClientCount())
}

func TestEventHub_CleanupIsIdempotent(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	_, cancel := hub.Subscribe("")
	require.Equal(t, 1, hub.ClientCount())

	cancel()
	require.NotPanics(t, cancel)
	require.Zero(t, hub.ClientCount())
}

func TestEventHub_ChannelClosedAfterCancel(t *testing.T) {
	hub := service.NewEventHub("test", testLogger())

	events, cancel := hub.Subscribe("")
	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}
