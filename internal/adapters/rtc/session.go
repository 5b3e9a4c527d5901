package rtc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

var (
	errSessionClosed = errors.New("native context closed")
	errQueueFull     = errors.New("request queue full")
)

type job struct {
	name  string
	run   func()
	abort func(error)
}

// session is the native context behind one connection id. Requests run one
// at a time on the worker goroutine in issue order.
type session struct {
	id      domain.ConnID
	pc      *webrtc.PeerConnection
	events  core.EventSource
	streams *Catalog
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan job
	done   chan struct{}

	qmu     sync.Mutex
	stopped bool

	mu      sync.Mutex
	senders map[string][]*webrtc.RTPSender
	relays  []*Relay
}

func newSession(parent context.Context, id domain.ConnID, pc *webrtc.PeerConnection, e *Engine) *session {
	ctx, cancel := context.WithCancel(parent)
	s := &session{
		id:      id,
		pc:      pc,
		events:  e.events,
		streams: e.streams,
		logger:  e.logger.With().Uint64("conn_id", uint64(id)).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan job, e.queueSize),
		done:    make(chan struct{}),
		senders: make(map[string][]*webrtc.RTPSender),
	}
	s.bind()
	go s.loop()
	return s
}

func (s *session) publish(ev core.Event) {
	ev.ConnID = s.id
	s.events.Publish(ev)
}

func (s *session) bind() {
	s.pc.OnNegotiationNeeded(func() {
		s.publish(core.Event{Kind: core.EventRenegotiationNeeded})
	})

	s.pc.OnSignalingStateChange(func(st webrtc.SignalingState) {
		s.logger.Debug().Str("signaling_state", st.String()).Msg("signaling state")
		s.publish(core.Event{Kind: core.EventSignalingStateChanged, SignalingState: domain.SignalingState(st.String())})
	})

	s.pc.OnICEConnectionStateChange(func(st webrtc.ICEConnectionState) {
		s.logger.Info().Str("ice_state", st.String()).Msg("ICE state")
		s.publish(core.Event{Kind: core.EventICEConnectionChanged, ICEConnectionState: domain.ICEConnectionState(st.String())})
	})

	s.pc.OnICEGatheringStateChange(func(st webrtc.ICEGatheringState) {
		s.logger.Debug().Str("gathering_state", st.String()).Msg("gathering state")
		s.publish(core.Event{Kind: core.EventICEGatheringChanged, ICEGatheringState: domain.ICEGatheringState(st.String())})
	})

	s.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			s.publish(core.Event{Kind: core.EventICECandidateGathered})
			return
		}
		in := cand.ToJSON()
		s.publish(core.Event{Kind: core.EventICECandidateGathered, Candidate: &domain.CandidateInit{
			Candidate:        in.Candidate,
			SDPMid:           in.SDPMid,
			SDPMLineIndex:    in.SDPMLineIndex,
			UsernameFragment: in.UsernameFragment,
		}})
	})

	s.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		s.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		s.startRelay(track)
		s.publish(core.Event{Kind: core.EventStreamAdded, StreamID: track.StreamID()})
	})
}

func (s *session) startRelay(track *webrtc.TrackRemote) {
	r, err := newRelay(s.id, track)
	if err != nil {
		s.logger.Error().Err(err).Str("track_id", track.ID()).Msg("relay setup failed")
		return
	}
	s.mu.Lock()
	s.relays = append(s.relays, r)
	s.mu.Unlock()
	s.streams.add(r.Out)

	logger := s.logger.With().Str("component", "relay").Str("track_id", track.ID()).Logger()
	r.start(s.ctx, s.pc, &logger, func() { s.streams.remove(r.Out) })
}

func (s *session) stats() []TrackStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrackStats, 0, len(s.relays))
	for _, r := range s.relays {
		out = append(out, r.Stats())
	}
	return out
}

// enqueue never blocks: a full queue fails the request instead.
func (s *session) enqueue(j job) {
	if err := s.push(j); err != nil {
		j.abort(err)
	}
}

func (s *session) push(j job) error {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if s.stopped || s.ctx.Err() != nil {
		return errSessionClosed
	}
	select {
	case s.jobs <- j:
		return nil
	default:
		s.logger.Warn().Str("job", j.name).Int("queued", len(s.jobs)).Msg("request queue full")
		return errQueueFull
	}
}

func (s *session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.abortPending()
			return
		case j := <-s.jobs:
			s.logger.Debug().Str("job", j.name).Msg("run")
			j.run()
		}
	}
}

func (s *session) abortPending() {
	for {
		select {
		case j := <-s.jobs:
			j.abort(errSessionClosed)
		default:
			return
		}
	}
}

// dropped logs a stream request that never reached the native connection.
func (s *session) dropped(streamID string) func(error) {
	return func(err error) {
		s.logger.Warn().Err(err).Str("stream_id", streamID).Msg("stream request dropped")
	}
}

func (s *session) addStream(streamID string) {
	tracks := s.streams.Tracks(streamID)
	if len(tracks) == 0 {
		s.logger.Warn().Str("stream_id", streamID).Msg("unknown local stream")
		return
	}
	s.mu.Lock()
	_, sending := s.senders[streamID]
	s.mu.Unlock()
	if sending {
		return
	}

	senders := make([]*webrtc.RTPSender, 0, len(tracks))
	for _, t := range tracks {
		sender, err := s.pc.AddTrack(t)
		if err != nil {
			s.logger.Error().Err(err).Str("stream_id", streamID).Msg("add track failed")
			continue
		}
		go drainRTCP(sender, &s.logger)
		senders = append(senders, sender)
	}
	s.mu.Lock()
	s.senders[streamID] = senders
	s.mu.Unlock()
}

func (s *session) removeStream(streamID string) {
	s.mu.Lock()
	senders := s.senders[streamID]
	delete(s.senders, streamID)
	s.mu.Unlock()
	for _, sender := range senders {
		if err := s.pc.RemoveTrack(sender); err != nil {
			s.logger.Error().Err(err).Str("stream_id", streamID).Msg("remove track failed")
		}
	}
}

// ensureReceivers adds recv-only transceivers requested by the constraints.
func (s *session) ensureReceivers(mc domain.MediaConstraints) {
	want := map[webrtc.RTPCodecType]bool{
		webrtc.RTPCodecTypeAudio: mc.OfferToReceiveAudio,
		webrtc.RTPCodecTypeVideo: mc.OfferToReceiveVideo,
	}
	for _, tr := range s.pc.GetTransceivers() {
		delete(want, tr.Kind())
	}
	for kind, ok := range want {
		if !ok {
			continue
		}
		_, err := s.pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly})
		if err != nil {
			s.logger.Error().Err(err).Str("kind", kind.String()).Msg("add transceiver failed")
		}
	}
}

// teardown stops the worker, closes the native connection and drops relayed
// tracks from the catalogue.
func (s *session) teardown() {
	s.qmu.Lock()
	s.stopped = true
	s.qmu.Unlock()
	s.cancel()
	<-s.done
	s.abortPending()
	if err := s.pc.Close(); err != nil {
		s.logger.Error().Err(err).Msg("close error")
	} else {
		s.logger.Info().Msg("closed")
	}

	s.mu.Lock()
	relays := s.relays
	s.relays = nil
	s.mu.Unlock()
	for _, r := range relays {
		r.stop()
		s.streams.remove(r.Out)
		select {
		case <-r.done:
		case <-time.After(time.Second):
			s.logger.Warn().Str("track_id", r.Src.ID()).Msg("relay did not stop in time")
		}
	}
}
