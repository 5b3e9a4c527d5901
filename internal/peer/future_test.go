package peer_test

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureAwaitHonoursContext(t *testing.T) {
	h := newHarness(t)
	c := h.create(t, nil)

	f := c.CreateOffer(domain.MediaConstraints{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the request is still pending and completes later
	h.engine.last(t, "createOffer").descCB(domain.DescriptionInit{Type: "offer", SDP: "late"}, nil)
	desc, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, "late", desc.SDP())
}

func TestFutureThen(t *testing.T) {
	h := newHarness(t)
	c := h.create(t, nil)

	got := make(chan string, 1)
	c.CreateOffer(domain.MediaConstraints{}).Then(func(d domain.SessionDescription, err error) {
		assert.NoError(t, err)
		got <- d.SDP()
	})
	h.engine.last(t, "createOffer").descCB(domain.DescriptionInit{Type: "offer", SDP: "v=0"}, nil)

	select {
	case sdp := <-got:
		assert.Equal(t, "v=0", sdp)
	case <-time.After(2 * time.Second):
		t.Fatal("then callback not invoked")
	}
}

func TestFutureSettlesOnce(t *testing.T) {
	h := newHarness(t)
	c := h.create(t, nil)

	f := c.SetLocalDescription(mustDesc(t, domain.SDPTypeOffer, "o"))
	cb := h.engine.last(t, "setLocal").doneCB
	cb(nil)
	cb(assert.AnError)

	_, err := await(t, f)
	assert.NoError(t, err)
	<-f.Done()
}
