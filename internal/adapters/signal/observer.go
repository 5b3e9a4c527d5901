package signal

import (
	"context"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
)

// observer pushes connection notifications to the socket.
type observer struct {
	s *session
}

func (o *observer) OnNegotiationNeeded(peer.NegotiationNeededEvent) {
	o.s.enqueue(func(ctx context.Context) { o.s.renegotiate(ctx) })
}

func (o *observer) OnSignalingStateChange(e peer.SignalingStateEvent) {
	o.s.sendJSON(outbound{Type: msgState, Kind: stateSignaling, State: string(e.State)})
	if e.State == domain.SignalingStable && o.s.pendingRenegotiation.CompareAndSwap(true, false) {
		o.s.enqueue(func(ctx context.Context) { o.s.renegotiate(ctx) })
	}
}

func (o *observer) OnICEConnectionStateChange(e peer.ICEConnectionStateEvent) {
	o.s.sendJSON(outbound{Type: msgState, Kind: stateICE, State: string(e.State)})
}

func (o *observer) OnICEGatheringStateChange(e peer.ICEGatheringStateEvent) {
	o.s.sendJSON(outbound{Type: msgState, Kind: stateGathering, State: string(e.State)})
}

func (o *observer) OnAddStream(e peer.StreamEvent) {
	o.s.sendJSON(outbound{Type: msgStream, StreamID: e.Stream.ID})
}

func (o *observer) OnICECandidate(e peer.ICECandidateEvent) {
	msg := outbound{Type: msgCandidate}
	if e.Candidate == nil {
		end := ""
		msg.Candidate = &end
		o.s.sendJSON(msg)
		return
	}
	in := e.Candidate.ToInit()
	msg.Candidate = &in.Candidate
	msg.SDPMid = in.SDPMid
	msg.SDPMLineIndex = in.SDPMLineIndex
	msg.UsernameFragment = in.UsernameFragment
	o.s.sendJSON(msg)
}
