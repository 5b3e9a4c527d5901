// Package rtc implements core.Engine on top of pion/webrtc.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 64

var ErrEngineShutdown = errors.New("engine shut down")

type Options struct {
	// UDPPortMin and UDPPortMax bound the ephemeral ICE ports; zero means any.
	UDPPortMin         uint16
	UDPPortMax         uint16
	// LoopbackCandidates gathers host candidates on loopback interfaces.
	LoopbackCandidates bool
	// QueueSize bounds pending requests per connection.
	QueueSize          int
}

// Engine owns one pion PeerConnection per connection id and publishes pion
// callbacks as core events.
type Engine struct {
	api       *webrtc.API
	events    core.EventSource
	streams   *Catalog
	queueSize int
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.RWMutex
	conns map[domain.ConnID]*session
}

func NewEngine(events core.EventSource, opts Options) (*Engine, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, ir); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if opts.UDPPortMin != 0 || opts.UDPPortMax != 0 {
		if err := se.SetEphemeralUDPPortRange(opts.UDPPortMin, opts.UDPPortMax); err != nil {
			return nil, fmt.Errorf("udp port range: %w", err)
		}
	}
	se.SetIncludeLoopbackCandidate(opts.LoopbackCandidates)

	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		api:       webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(ir), webrtc.WithSettingEngine(se)),
		events:    events,
		streams:   NewCatalog(),
		queueSize: opts.QueueSize,
		logger:    log.With().Str("module", "rtc").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(map[domain.ConnID]*session),
	}, nil
}

func (e *Engine) Streams() *Catalog { return e.streams }

// RegisterLocalStream makes a stream available to AddStream.
func (e *Engine) RegisterLocalStream(streamID string, kinds ...webrtc.RTPCodecType) (string, error) {
	return e.streams.Register(streamID, kinds...)
}

func (e *Engine) Init(cfg domain.Configuration, id domain.ConnID) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return ErrEngineShutdown
	}
	if _, ok := e.conns[id]; ok {
		return fmt.Errorf("connection %d already initialized", id)
	}
	pc, err := e.api.NewPeerConnection(toPion(cfg))
	if err != nil {
		return fmt.Errorf("new peer connection: %w", err)
	}
	e.conns[id] = newSession(e.ctx, id, pc, e)
	e.logger.Debug().Uint64("conn_id", uint64(id)).Msg("native context created")
	return nil
}

func (e *Engine) session(id domain.ConnID) (*session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.conns[id]
	return s, ok
}

func unknownConn(id domain.ConnID) error {
	return &core.EngineError{Payload: fmt.Sprintf("unknown connection %d", id)}
}

func engineErr(err error) error {
	return &core.EngineError{Payload: err.Error()}
}

func (e *Engine) AddStream(streamID string, id domain.ConnID) {
	s, ok := e.session(id)
	if !ok {
		e.logger.Warn().Uint64("conn_id", uint64(id)).Msg("add stream on unknown connection")
		return
	}
	s.enqueue(job{name: "addStream", run: func() { s.addStream(streamID) }, abort: s.dropped(streamID)})
}

func (e *Engine) RemoveStream(streamID string, id domain.ConnID) {
	s, ok := e.session(id)
	if !ok {
		e.logger.Warn().Uint64("conn_id", uint64(id)).Msg("remove stream on unknown connection")
		return
	}
	s.enqueue(job{name: "removeStream", run: func() { s.removeStream(streamID) }, abort: s.dropped(streamID)})
}

func (e *Engine) CreateOffer(id domain.ConnID, mc domain.MediaConstraints, cb core.DescriptionCallback) {
	e.describe("createOffer", id, cb, func(s *session) (webrtc.SessionDescription, error) {
		s.ensureReceivers(mc)
		return s.pc.CreateOffer(&webrtc.OfferOptions{
			OfferAnswerOptions: webrtc.OfferAnswerOptions{VoiceActivityDetection: mc.VoiceActivityDetection},
			ICERestart:         mc.ICERestart,
		})
	})
}

func (e *Engine) CreateAnswer(id domain.ConnID, mc domain.MediaConstraints, cb core.DescriptionCallback) {
	e.describe("createAnswer", id, cb, func(s *session) (webrtc.SessionDescription, error) {
		return s.pc.CreateAnswer(&webrtc.AnswerOptions{
			OfferAnswerOptions: webrtc.OfferAnswerOptions{VoiceActivityDetection: mc.VoiceActivityDetection},
		})
	})
}

func (e *Engine) describe(name string, id domain.ConnID, cb core.DescriptionCallback, fn func(*session) (webrtc.SessionDescription, error)) {
	s, ok := e.session(id)
	if !ok {
		go cb(domain.DescriptionInit{}, unknownConn(id))
		return
	}
	s.enqueue(job{
		name: name,
		run: func() {
			sd, err := fn(s)
			if err != nil {
				cb(domain.DescriptionInit{}, engineErr(err))
				return
			}
			cb(domain.DescriptionInit{Type: sd.Type.String(), SDP: sd.SDP}, nil)
		},
		abort: func(err error) { cb(domain.DescriptionInit{}, engineErr(err)) },
	})
}

func (e *Engine) SetLocalDescription(desc domain.DescriptionInit, id domain.ConnID, cb core.DoneCallback) {
	e.do("setLocalDescription", id, cb, func(s *session) error {
		return s.pc.SetLocalDescription(fromInit(desc))
	})
}

func (e *Engine) SetRemoteDescription(desc domain.DescriptionInit, id domain.ConnID, cb core.DoneCallback) {
	e.do("setRemoteDescription", id, cb, func(s *session) error {
		return s.pc.SetRemoteDescription(fromInit(desc))
	})
}

func (e *Engine) AddICECandidate(cand *domain.CandidateInit, id domain.ConnID, cb core.DoneCallback) {
	in := webrtc.ICECandidateInit{}
	if cand != nil {
		in = webrtc.ICECandidateInit{
			Candidate:        cand.Candidate,
			SDPMid:           cand.SDPMid,
			SDPMLineIndex:    cand.SDPMLineIndex,
			UsernameFragment: cand.UsernameFragment,
		}
	}
	e.do("addICECandidate", id, cb, func(s *session) error {
		return s.pc.AddICECandidate(in)
	})
}

func (e *Engine) do(name string, id domain.ConnID, cb core.DoneCallback, fn func(*session) error) {
	s, ok := e.session(id)
	if !ok {
		go cb(unknownConn(id))
		return
	}
	s.enqueue(job{
		name: name,
		run: func() {
			if err := fn(s); err != nil {
				cb(engineErr(err))
				return
			}
			cb(nil)
		},
		abort: func(err error) { cb(engineErr(err)) },
	})
}

// Close tears the native context down in the background. Unknown ids are
// ignored so a repeated teardown request is harmless.
func (e *Engine) Close(id domain.ConnID) {
	e.mu.Lock()
	s, ok := e.conns[id]
	delete(e.conns, id)
	e.mu.Unlock()
	if !ok {
		e.logger.Debug().Uint64("conn_id", uint64(id)).Msg("close on unknown connection")
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		s.teardown()
	}()
}

// TrackStats reports relayed remote tracks of one connection.
func (e *Engine) TrackStats(id domain.ConnID) []TrackStats {
	s, ok := e.session(id)
	if !ok {
		return nil
	}
	return s.stats()
}

// Shutdown closes every native context and waits for teardown.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.cancel()
	ids := make([]domain.ConnID, 0, len(e.conns))
	for id := range e.conns {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Close(id)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Info().Int("closed", len(ids)).Msg("engine shut down")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toPion(cfg domain.Configuration) webrtc.Configuration {
	out := webrtc.Configuration{}
	for _, s := range cfg.ICEServers {
		out.ICEServers = append(out.ICEServers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	if cfg.ICETransportPolicy == "relay" {
		out.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}
	switch cfg.BundlePolicy {
	case "balanced":
		out.BundlePolicy = webrtc.BundlePolicyBalanced
	case "max-compat":
		out.BundlePolicy = webrtc.BundlePolicyMaxCompat
	case "max-bundle":
		out.BundlePolicy = webrtc.BundlePolicyMaxBundle
	}
	return out
}

func fromInit(d domain.DescriptionInit) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.NewSDPType(d.Type), SDP: d.SDP}
}
