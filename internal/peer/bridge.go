package peer

import (
	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
)

// subscribe registers one handler per event category on src.
func (c *Connection) subscribe(src core.EventSource) {
	subs := make([]core.Subscription, 0, len(core.AllEventKinds))
	for _, kind := range core.AllEventKinds {
		subs = append(subs, src.Subscribe(c.id, kind, c.handleEvent))
	}
	c.mu.Lock()
	c.subs = subs
	c.mu.Unlock()
}

// release drops every subscription. Safe to call more than once.
func (c *Connection) release() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

// handleEvent applies one engine event and notifies the observer outside the
// lock. Events for other ids and events after close are discarded.
func (c *Connection) handleEvent(ev core.Event) {
	if ev.ConnID != c.id {
		c.logger.Debug().Uint64("event_conn_id", uint64(ev.ConnID)).Str("kind", ev.Kind.String()).Msg("foreign event discarded")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().Str("kind", ev.Kind.String()).Msg("event after close discarded")
		return
	}
	notify, ok := c.apply(ev)
	obs := c.observer
	c.mu.Unlock()

	if !ok || obs == nil {
		return
	}
	notify(obs)
}

// apply must be called with mu held.
func (c *Connection) apply(ev core.Event) (func(Observer), bool) {
	switch ev.Kind {
	case core.EventRenegotiationNeeded:
		e := NegotiationNeededEvent{Target: c}
		return func(o Observer) { o.OnNegotiationNeeded(e) }, true

	case core.EventICEConnectionChanged:
		s, err := domain.ParseICEConnectionState(string(ev.ICEConnectionState))
		if err != nil {
			c.logger.Warn().Err(err).Msg("bad ice connection event")
			return nil, false
		}
		c.iceConn = s
		e := ICEConnectionStateEvent{Target: c, State: s}
		return func(o Observer) { o.OnICEConnectionStateChange(e) }, true

	case core.EventSignalingStateChanged:
		s, err := domain.ParseSignalingState(string(ev.SignalingState))
		if err != nil {
			c.logger.Warn().Err(err).Msg("bad signaling event")
			return nil, false
		}
		c.signaling = s
		e := SignalingStateEvent{Target: c, State: s}
		return func(o Observer) { o.OnSignalingStateChange(e) }, true

	case core.EventStreamAdded:
		if ev.StreamID == "" {
			c.logger.Warn().Msg("stream event without id")
			return nil, false
		}
		s := domain.MediaStream{ID: ev.StreamID}
		if !containsStream(c.remoteStreams, s.ID) {
			c.remoteStreams = append(c.remoteStreams, s)
		}
		e := StreamEvent{Target: c, Stream: s}
		return func(o Observer) { o.OnAddStream(e) }, true

	case core.EventICECandidateGathered:
		e := ICECandidateEvent{Target: c}
		if ev.Candidate != nil {
			cand, err := domain.NewICECandidate(*ev.Candidate)
			if err != nil {
				c.logger.Warn().Err(err).Msg("bad candidate event")
				return nil, false
			}
			e.Candidate = &cand
		}
		return func(o Observer) { o.OnICECandidate(e) }, true

	case core.EventICEGatheringChanged:
		s, err := domain.ParseICEGatheringState(string(ev.ICEGatheringState))
		if err != nil {
			c.logger.Warn().Err(err).Msg("bad ice gathering event")
			return nil, false
		}
		c.iceGather = s
		e := ICEGatheringStateEvent{Target: c, State: s}
		return func(o Observer) { o.OnICEGatheringStateChange(e) }, true
	}
	c.logger.Warn().Str("kind", ev.Kind.String()).Msg("unknown event kind")
	return nil, false
}
