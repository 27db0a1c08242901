// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// The hub closed the send channel on unregister.
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub, _ := startHub(t)

	c1 := NewClient(hub, nil)
	c2 := NewClient(hub, nil)
	hub.Register <- c1
	hub.Register <- c2
	waitForClients(t, hub, 2)

	change := bus.SessionChange{SessionID: "s1", State: models.SessionActive, DangerScore: 40}
	hub.BroadcastSessionChange(change)

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			assert.Equal(t, MessageTypeSessionUpdate, msg.Type)
			got, ok := msg.Data.(bus.SessionChange)
			require.True(t, ok)
			assert.Equal(t, "s1", got.SessionID)
		case <-time.After(2 * time.Second):
			t.Fatalf("client %d did not receive broadcast", c.ID())
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	slow := NewClient(hub, nil)
	// Saturate the send buffer so the next fan-out cannot make progress.
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- Message{Type: MessageTypePing}
	}
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastKPISnapshot(&models.KPISnapshot{})
	waitForClients(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-client.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubEnqueueDropsWhenQueueFull(t *testing.T) {
	hub := NewHub() // not running: broadcasts accumulate in the queue

	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.BroadcastSummary(models.AttackSummary{})
	}
	// No panic and the queue holds exactly its capacity.
	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}

func TestClientIDsAreMonotonic(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	assert.Greater(t, b.ID(), a.ID())
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypeKPIUpdate, Data: map[string]int{"total_sessions": 3}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"kpi_update"`)
	assert.Contains(t, string(data), `"total_sessions":3`)
}

type fakeSnapshotSource struct{ snap *models.KPISnapshot }

func (f *fakeSnapshotSource) Snapshot() *models.KPISnapshot { return f.snap }
func (f *fakeSnapshotSource) Summary() models.AttackSummary {
	return models.AttackSummary{TotalAttacks: f.snap.TotalSessions}
}

func TestBroadcasterRelaysChangesAndDebouncedFrames(t *testing.T) {
	b := bus.New(16)
	defer b.Close()

	hub, _ := startHub(t)
	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	source := &fakeSnapshotSource{snap: &models.KPISnapshot{TotalSessions: 7}}
	bc := NewBroadcaster(hub, source, b.Subscriber(), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bc.Serve(ctx) }()

	// Give the subscription a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)
	err := bus.PublishSessionChange(b.Publisher(), bus.SessionChange{SessionID: "s9", Seq: 1, State: models.SessionActive})
	require.NoError(t, err)

	types := map[string]int{}
	deadline := time.After(3 * time.Second)
	for len(types) < 3 {
		select {
		case msg := <-client.send:
			types[msg.Type]++
		case <-deadline:
			t.Fatalf("missing frames, got %v", types)
		}
	}
	assert.GreaterOrEqual(t, types[MessageTypeSessionUpdate], 1)
	assert.GreaterOrEqual(t, types[MessageTypeKPIUpdate], 1)
	assert.GreaterOrEqual(t, types[MessageTypeSummaryUpdate], 1)
}

func TestBroadcasterDropsOutOfOrderChanges(t *testing.T) {
	b := bus.New(16)
	defer b.Close()

	hub, _ := startHub(t)
	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	bc := NewBroadcaster(hub, nil, b.Subscriber(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bc.Serve(ctx) }()

	// Publication happens outside the session lock, so a younger frame can
	// reach the bus first. Only the newer one may reach clients.
	time.Sleep(50 * time.Millisecond)
	newer := bus.SessionChange{SessionID: "s1", Seq: 2, State: models.SessionActive, DangerScore: 40}
	older := bus.SessionChange{SessionID: "s1", Seq: 1, State: models.SessionActive, DangerScore: 25}
	require.NoError(t, bus.PublishSessionChange(b.Publisher(), newer))
	require.NoError(t, bus.PublishSessionChange(b.Publisher(), older))
	require.NoError(t, bus.PublishSessionChange(b.Publisher(), bus.SessionChange{SessionID: "s2", Seq: 1, State: models.SessionActive}))

	var got []bus.SessionChange
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-client.send:
			require.Equal(t, MessageTypeSessionUpdate, msg.Type)
			got = append(got, msg.Data.(bus.SessionChange))
		case <-deadline:
			t.Fatalf("expected 2 frames, got %d", len(got))
		}
	}

	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, uint64(2), got[0].Seq)
	assert.Equal(t, 40, got[0].DangerScore)
	assert.Equal(t, "s2", got[1].SessionID)

	// The stale s1 frame was dropped, not delayed.
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected extra frame: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
