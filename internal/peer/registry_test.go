package peer_test

import (
	"testing"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySnapshotOrderedByID(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, nil)
	b := h.create(t, nil)
	c := h.create(t, nil)
	b.Close()

	h.publish(t, core.Event{Kind: core.EventICEConnectionChanged, ConnID: c.ID(), ICEConnectionState: domain.ICEConnectionConnected})
	f := a.SetRemoteDescription(mustDesc(t, domain.SDPTypeOffer, "r"))
	h.engine.last(t, "setRemote").doneCB(nil)
	_, err := await(t, f)
	require.NoError(t, err)

	snap := h.registry.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ID(), snap[0].ID)
	assert.True(t, snap[0].HasRemote)
	assert.False(t, snap[0].HasLocal)
	assert.Equal(t, c.ID(), snap[1].ID)
	assert.Equal(t, domain.ICEConnectionConnected, snap[1].ICEConnectionState)
}

func TestRegistryEachMayClose(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.create(t, nil)
	}

	h.registry.Each(func(c *peer.Connection) { c.Close() })

	assert.Zero(t, h.registry.Len())
	assert.Zero(t, h.events.SubscriptionCount())
	assert.Equal(t, 3, h.engine.count("close"))
}
