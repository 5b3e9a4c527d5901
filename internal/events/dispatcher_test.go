package events

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher(context.Background(), 16)
	t.Cleanup(d.Close)
	return d
}

func drain(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Drain(ctx))
}

func TestDispatcherRoutesByConnID(t *testing.T) {
	d := newTestDispatcher(t)

	var gotA, gotB []core.Event
	d.Subscribe(1, core.EventStreamAdded, func(ev core.Event) { gotA = append(gotA, ev) })
	d.Subscribe(2, core.EventStreamAdded, func(ev core.Event) { gotB = append(gotB, ev) })

	d.Publish(core.Event{Kind: core.EventStreamAdded, ConnID: 1, StreamID: "s1"})
	drain(t, d)

	require.Len(t, gotA, 1)
	assert.Equal(t, "s1", gotA[0].StreamID)
	assert.Empty(t, gotB)
}

func TestDispatcherRoutesByKind(t *testing.T) {
	d := newTestDispatcher(t)

	calls := 0
	d.Subscribe(1, core.EventSignalingStateChanged, func(core.Event) { calls++ })

	d.Publish(core.Event{Kind: core.EventICEGatheringChanged, ConnID: 1, ICEGatheringState: domain.ICEGatheringComplete})
	drain(t, d)

	assert.Zero(t, calls)
}

func TestDispatcherPreservesOrder(t *testing.T) {
	d := newTestDispatcher(t)

	var states []domain.SignalingState
	d.Subscribe(7, core.EventSignalingStateChanged, func(ev core.Event) {
		states = append(states, ev.SignalingState)
	})

	want := []domain.SignalingState{
		domain.SignalingHaveLocalOffer,
		domain.SignalingStable,
		domain.SignalingHaveRemoteOffer,
		domain.SignalingStable,
	}
	for _, s := range want {
		d.Publish(core.Event{Kind: core.EventSignalingStateChanged, ConnID: 7, SignalingState: s})
	}
	drain(t, d)

	assert.Equal(t, want, states)
}

func TestUnsubscribeStopsDeliveryAndReleases(t *testing.T) {
	d := newTestDispatcher(t)

	calls := 0
	sub := d.Subscribe(3, core.EventRenegotiationNeeded, func(core.Event) { calls++ })
	require.Equal(t, 1, d.SubscriptionCount())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Zero(t, d.SubscriptionCount())

	d.Publish(core.Event{Kind: core.EventRenegotiationNeeded, ConnID: 3})
	drain(t, d)
	assert.Zero(t, calls)
}

func TestUnsubscribeDuringDeliverySkipsLaterHandlers(t *testing.T) {
	d := newTestDispatcher(t)

	secondCalls := 0
	var second core.Subscription
	d.Subscribe(4, core.EventStreamAdded, func(core.Event) { second.Unsubscribe() })
	second = d.Subscribe(4, core.EventStreamAdded, func(core.Event) { secondCalls++ })

	d.Publish(core.Event{Kind: core.EventStreamAdded, ConnID: 4})
	drain(t, d)

	assert.Zero(t, secondCalls)
}

func TestPanickingSubscriberDoesNotStopLoop(t *testing.T) {
	d := newTestDispatcher(t)

	d.Subscribe(5, core.EventStreamAdded, func(core.Event) { panic("boom") })
	calls := 0
	d.Subscribe(5, core.EventRenegotiationNeeded, func(core.Event) { calls++ })

	d.Publish(core.Event{Kind: core.EventStreamAdded, ConnID: 5})
	d.Publish(core.Event{Kind: core.EventRenegotiationNeeded, ConnID: 5})
	drain(t, d)

	assert.Equal(t, 1, calls)
}

func TestPublishAfterCloseDoesNotBlock(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	d.Close()

	done := make(chan struct{})
	go func() {
		d.Publish(core.Event{Kind: core.EventStreamAdded, ConnID: 1})
		d.Publish(core.Event{Kind: core.EventStreamAdded, ConnID: 1})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after close")
	}
}
