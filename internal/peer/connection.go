// Package peer implements the negotiation state machine of a single peer
// connection on top of an asynchronous engine.
//
// Negotiation operations (CreateOffer, CreateAnswer, SetLocalDescription,
// SetRemoteDescription) must not overlap on one connection: the order of their
// completions is undefined. The package does not serialize them unless the
// connection was created WithExclusiveNegotiation.
package peer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Option func(*Connection)

// WithExclusiveNegotiation rejects a negotiation operation issued while
// another one is still in flight.
func WithExclusiveNegotiation() Option {
	return func(c *Connection) { c.exclusive = true }
}

// Factory creates connections bound to one engine and one event source.
type Factory struct {
	Engine   core.Engine
	Events   core.EventSource
	Registry *Registry
}

// Create allocates an id, subscribes the event bridge and asks the engine to
// initialize a native context.
func (f *Factory) Create(cfg domain.Configuration, obs Observer, opts ...Option) (*Connection, error) {
	id := f.Registry.allocate()
	c := &Connection{
		id:        id,
		engine:    f.Engine,
		reg:       f.Registry,
		logger:    log.With().Str("module", "peer").Uint64("conn_id", uint64(id)).Logger(),
		signaling: domain.SignalingStable,
		iceConn:   domain.ICEConnectionNew,
		iceGather: domain.ICEGatheringNew,
		observer:  obs,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Subscribe before Init so events emitted during initialization are kept.
	c.subscribe(f.Events)
	f.Registry.register(c)

	if err := f.Engine.Init(cfg, id); err != nil {
		c.release()
		f.Registry.unregister(id)
		c.logger.Error().Err(err).Msg("engine rejected configuration")
		return nil, &InitializationError{ID: id, Err: err}
	}
	c.logger.Info().Int("ice_servers", len(cfg.ICEServers)).Msg("connection created")
	return c, nil
}

// Connection is the negotiation state of one peer connection. State fields
// change only in engine completions and bridged events, both under mu.
type Connection struct {
	id        domain.ConnID
	engine    core.Engine
	reg       *Registry
	logger    zerolog.Logger
	exclusive bool

	mu            sync.Mutex
	closed        bool
	inFlight      bool
	signaling     domain.SignalingState
	iceConn       domain.ICEConnectionState
	iceGather     domain.ICEGatheringState
	local         *domain.SessionDescription
	remote        *domain.SessionDescription
	localStreams  []domain.MediaStream
	remoteStreams []domain.MediaStream
	observer      Observer
	subs          []core.Subscription
}

func (c *Connection) ID() domain.ConnID { return c.id }

func (c *Connection) SignalingState() domain.SignalingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signaling
}

func (c *Connection) ICEConnectionState() domain.ICEConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iceConn
}

func (c *Connection) ICEGatheringState() domain.ICEGatheringState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iceGather
}

// LocalDescription is nil until a SetLocalDescription succeeds.
func (c *Connection) LocalDescription() *domain.SessionDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local == nil {
		return nil
	}
	d := *c.local
	return &d
}

// RemoteDescription is nil until a SetRemoteDescription succeeds.
func (c *Connection) RemoteDescription() *domain.SessionDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return nil
	}
	d := *c.remote
	return &d
}

func (c *Connection) LocalStreams() []domain.MediaStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.localStreams)
}

func (c *Connection) RemoteStreams() []domain.MediaStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.remoteStreams)
}

func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SetObserver replaces the observer; nil detaches it.
func (c *Connection) SetObserver(obs Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.observer = obs
}

func (c *Connection) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ID:                 c.id,
		SignalingState:     c.signaling,
		ICEConnectionState: c.iceConn,
		ICEGatheringState:  c.iceGather,
		HasLocal:           c.local != nil,
		HasRemote:          c.remote != nil,
		RemoteStreams:      len(c.remoteStreams),
	}
}

// AddStream forwards the stream to the engine. Failures are not reported;
// the engine may later emit a renegotiation-needed event.
func (c *Connection) AddStream(s domain.MediaStream) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn().Str("stream_id", s.ID).Msg("add stream on closed connection ignored")
		return
	}
	if !containsStream(c.localStreams, s.ID) {
		c.localStreams = append(c.localStreams, s)
	}
	c.mu.Unlock()
	c.engine.AddStream(s.ID, c.id)
}

// RemoveStream forwards the removal to the engine without an outcome.
func (c *Connection) RemoveStream(s domain.MediaStream) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn().Str("stream_id", s.ID).Msg("remove stream on closed connection ignored")
		return
	}
	c.localStreams = slices.DeleteFunc(c.localStreams, func(m domain.MediaStream) bool { return m.ID == s.ID })
	c.mu.Unlock()
	c.engine.RemoveStream(s.ID, c.id)
}

// CreateOffer asks the engine for an offer. State is not touched.
func (c *Connection) CreateOffer(mc domain.MediaConstraints) *Future[domain.SessionDescription] {
	return c.createDescription(OpCreateOffer, mc, c.engine.CreateOffer)
}

// CreateAnswer asks the engine for an answer. Whether the connection holds a
// remote offer is left to the engine to judge.
func (c *Connection) CreateAnswer(mc domain.MediaConstraints) *Future[domain.SessionDescription] {
	return c.createDescription(OpCreateAnswer, mc, c.engine.CreateAnswer)
}

func (c *Connection) createDescription(
	op Op,
	mc domain.MediaConstraints,
	call func(domain.ConnID, domain.MediaConstraints, core.DescriptionCallback),
) *Future[domain.SessionDescription] {
	if err := c.begin(op); err != nil {
		return failedFuture[domain.SessionDescription](err)
	}
	f := newFuture[domain.SessionDescription]()
	call(c.id, mc, func(raw domain.DescriptionInit, err error) {
		if !c.finish() {
			c.logger.Debug().Str("op", string(op)).Msg("completion after close discarded")
			f.reject(ErrClosedConnection)
			return
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("op", string(op)).Msg("engine failure")
			f.reject(&NegotiationError{Op: op, ID: c.id, Err: err})
			return
		}
		desc, err := domain.DescriptionFromInit(raw)
		if err != nil {
			f.reject(&NegotiationError{Op: op, ID: c.id, Err: fmt.Errorf("malformed engine description: %w", err)})
			return
		}
		f.resolve(desc)
	})
	return f
}

// SetLocalDescription applies desc. LocalDescription changes only after the
// engine reports success; the signaling state follows a later engine event.
func (c *Connection) SetLocalDescription(desc domain.SessionDescription) *Future[struct{}] {
	return c.setDescription(OpSetLocalDescription, desc, c.engine.SetLocalDescription, func() { c.local = &desc })
}

// SetRemoteDescription applies desc received from the remote peer.
func (c *Connection) SetRemoteDescription(desc domain.SessionDescription) *Future[struct{}] {
	return c.setDescription(OpSetRemoteDescription, desc, c.engine.SetRemoteDescription, func() { c.remote = &desc })
}

func (c *Connection) setDescription(
	op Op,
	desc domain.SessionDescription,
	call func(domain.DescriptionInit, domain.ConnID, core.DoneCallback),
	apply func(),
) *Future[struct{}] {
	if err := c.begin(op); err != nil {
		return failedFuture[struct{}](err)
	}
	f := newFuture[struct{}]()
	call(desc.ToInit(), c.id, func(err error) {
		c.mu.Lock()
		c.inFlight = false
		if c.closed {
			c.mu.Unlock()
			f.reject(ErrClosedConnection)
			return
		}
		if err != nil {
			c.mu.Unlock()
			c.logger.Warn().Err(err).Str("op", string(op)).Str("sdp_type", string(desc.Type())).Msg("engine failure")
			f.reject(&NegotiationError{Op: op, ID: c.id, Err: err})
			return
		}
		apply()
		c.mu.Unlock()
		c.logger.Debug().Str("op", string(op)).Str("sdp_type", string(desc.Type())).Msg("description applied")
		f.resolve(struct{}{})
	})
	return f
}

// AddICECandidate forwards a remote candidate. A nil candidate signals
// end-of-candidates and is forwarded as such.
func (c *Connection) AddICECandidate(cand *domain.ICECandidate) *Future[struct{}] {
	c.mu.Lock()
	closed := c.closed || c.signaling == domain.SignalingClosed
	c.mu.Unlock()
	if closed {
		return failedFuture[struct{}](ErrClosedConnection)
	}

	var wire *domain.CandidateInit
	if cand != nil {
		in := cand.ToInit()
		wire = &in
	}
	f := newFuture[struct{}]()
	c.engine.AddICECandidate(wire, c.id, func(err error) {
		if c.Closed() {
			f.reject(ErrClosedConnection)
			return
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("engine rejected candidate")
			f.reject(&CandidateError{ID: c.id, Err: err})
			return
		}
		f.resolve(struct{}{})
	})
	return f
}

// Close asks the engine to tear down the native context and detaches the
// connection from the event stream. Every call forwards a teardown request.
// A notification already being delivered when Close runs may still complete.
func (c *Connection) Close() {
	c.mu.Lock()
	first := !c.closed
	c.closed = true
	c.signaling = domain.SignalingClosed
	c.iceConn = domain.ICEConnectionClosed
	c.observer = nil
	c.mu.Unlock()

	c.release()
	if first {
		c.reg.unregister(c.id)
		c.logger.Info().Msg("connection closed")
	}
	c.engine.Close(c.id)
}

func (c *Connection) begin(op Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.signaling == domain.SignalingClosed {
		return ErrClosedConnection
	}
	if c.exclusive && c.inFlight {
		return ErrOperationInProgress
	}
	c.inFlight = true
	c.logger.Debug().Str("op", string(op)).Msg("request issued")
	return nil
}

// finish clears the in-flight mark and reports whether the connection is open.
func (c *Connection) finish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	return !c.closed
}

func containsStream(list []domain.MediaStream, id string) bool {
	return slices.ContainsFunc(list, func(m domain.MediaStream) bool { return m.ID == id })
}
