package peer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/events"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/stretchr/testify/require"
)

type engineCall struct {
	op          string
	id          domain.ConnID
	streamID    string
	constraints domain.MediaConstraints
	desc        domain.DescriptionInit
	cand        *domain.CandidateInit
	descCB      core.DescriptionCallback
	doneCB      core.DoneCallback
}

// fakeEngine records requests; tests complete them by hand.
type fakeEngine struct {
	mu      sync.Mutex
	initErr error
	calls   []engineCall
}

func (e *fakeEngine) record(c engineCall) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, c)
}

func (e *fakeEngine) Init(_ domain.Configuration, id domain.ConnID) error {
	e.record(engineCall{op: "init", id: id})
	return e.initErr
}

func (e *fakeEngine) AddStream(streamID string, id domain.ConnID) {
	e.record(engineCall{op: "addStream", id: id, streamID: streamID})
}

func (e *fakeEngine) RemoveStream(streamID string, id domain.ConnID) {
	e.record(engineCall{op: "removeStream", id: id, streamID: streamID})
}

func (e *fakeEngine) CreateOffer(id domain.ConnID, c domain.MediaConstraints, cb core.DescriptionCallback) {
	e.record(engineCall{op: "createOffer", id: id, constraints: c, descCB: cb})
}

func (e *fakeEngine) CreateAnswer(id domain.ConnID, c domain.MediaConstraints, cb core.DescriptionCallback) {
	e.record(engineCall{op: "createAnswer", id: id, constraints: c, descCB: cb})
}

func (e *fakeEngine) SetLocalDescription(d domain.DescriptionInit, id domain.ConnID, cb core.DoneCallback) {
	e.record(engineCall{op: "setLocal", id: id, desc: d, doneCB: cb})
}

func (e *fakeEngine) SetRemoteDescription(d domain.DescriptionInit, id domain.ConnID, cb core.DoneCallback) {
	e.record(engineCall{op: "setRemote", id: id, desc: d, doneCB: cb})
}

func (e *fakeEngine) AddICECandidate(c *domain.CandidateInit, id domain.ConnID, cb core.DoneCallback) {
	e.record(engineCall{op: "addCandidate", id: id, cand: c, doneCB: cb})
}

func (e *fakeEngine) Close(id domain.ConnID) {
	e.record(engineCall{op: "close", id: id})
}

// last returns the most recent call named op.
func (e *fakeEngine) last(t *testing.T, op string) engineCall {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.calls) - 1; i >= 0; i-- {
		if e.calls[i].op == op {
			return e.calls[i]
		}
	}
	t.Fatalf("no %s call recorded", op)
	return engineCall{}
}

func (e *fakeEngine) count(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

type harness struct {
	engine   *fakeEngine
	events   *events.Dispatcher
	registry *peer.Registry
	factory  *peer.Factory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		engine:   &fakeEngine{},
		events:   events.NewDispatcher(context.Background(), 32),
		registry: peer.NewRegistry(),
	}
	h.factory = &peer.Factory{Engine: h.engine, Events: h.events, Registry: h.registry}
	t.Cleanup(h.events.Close)
	return h
}

func (h *harness) create(t *testing.T, obs peer.Observer, opts ...peer.Option) *peer.Connection {
	t.Helper()
	c, err := h.factory.Create(domain.Configuration{}, obs, opts...)
	require.NoError(t, err)
	return c
}

func (h *harness) publish(t *testing.T, evs ...core.Event) {
	t.Helper()
	for _, ev := range evs {
		h.events.Publish(ev)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.events.Drain(ctx))
}

func await[T any](t *testing.T, f *peer.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return f.Await(ctx)
}

func mustDesc(t *testing.T, typ domain.SDPType, sdp string) domain.SessionDescription {
	t.Helper()
	d, err := domain.NewSessionDescription(typ, sdp)
	require.NoError(t, err)
	return d
}

// recorder collects notifications; safe for use from the dispatcher goroutine.
type recorder struct {
	peer.NopObserver

	mu         sync.Mutex
	negotiate  int
	signaling  []domain.SignalingState
	iceConn    []domain.ICEConnectionState
	gathering  []domain.ICEGatheringState
	streams    []domain.MediaStream
	candidates []*domain.ICECandidate
}

func (r *recorder) OnNegotiationNeeded(peer.NegotiationNeededEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.negotiate++
}

func (r *recorder) OnSignalingStateChange(e peer.SignalingStateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signaling = append(r.signaling, e.State)
}

func (r *recorder) OnICEConnectionStateChange(e peer.ICEConnectionStateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iceConn = append(r.iceConn, e.State)
}

func (r *recorder) OnICEGatheringStateChange(e peer.ICEGatheringStateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gathering = append(r.gathering, e.State)
}

func (r *recorder) OnAddStream(e peer.StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, e.Stream)
}

func (r *recorder) OnICECandidate(e peer.ICECandidateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, e.Candidate)
}
