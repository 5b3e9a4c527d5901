package peer

import "github.com/dkeye/rtcpeer/internal/domain"

//go:generate mockgen -source=observer.go -destination=mocks/observer_mock.go -package=mocks

type NegotiationNeededEvent struct {
	Target *Connection
}

type ICEConnectionStateEvent struct {
	Target *Connection
	State  domain.ICEConnectionState
}

type SignalingStateEvent struct {
	Target *Connection
	State  domain.SignalingState
}

type StreamEvent struct {
	Target *Connection
	Stream domain.MediaStream
}

// ICECandidateEvent with a nil Candidate marks the end of gathering.
type ICECandidateEvent struct {
	Target    *Connection
	Candidate *domain.ICECandidate
}

type ICEGatheringStateEvent struct {
	Target *Connection
	State  domain.ICEGatheringState
}

// Observer receives connection notifications on the dispatcher goroutine.
// Embed NopObserver to implement only the handlers you need.
type Observer interface {
	OnNegotiationNeeded(NegotiationNeededEvent)
	OnICEConnectionStateChange(ICEConnectionStateEvent)
	OnSignalingStateChange(SignalingStateEvent)
	OnAddStream(StreamEvent)
	OnICECandidate(ICECandidateEvent)
	OnICEGatheringStateChange(ICEGatheringStateEvent)
}

type NopObserver struct{}

func (NopObserver) OnNegotiationNeeded(NegotiationNeededEvent)         {}
func (NopObserver) OnICEConnectionStateChange(ICEConnectionStateEvent) {}
func (NopObserver) OnSignalingStateChange(SignalingStateEvent)         {}
func (NopObserver) OnAddStream(StreamEvent)                            {}
func (NopObserver) OnICECandidate(ICECandidateEvent)                   {}
func (NopObserver) OnICEGatheringStateChange(ICEGatheringStateEvent)   {}

// ObserverFuncs adapts optional callbacks; nil fields are skipped.
type ObserverFuncs struct {
	NegotiationNeeded        func(NegotiationNeededEvent)
	ICEConnectionStateChange func(ICEConnectionStateEvent)
	SignalingStateChange     func(SignalingStateEvent)
	AddStream                func(StreamEvent)
	ICECandidate             func(ICECandidateEvent)
	ICEGatheringStateChange  func(ICEGatheringStateEvent)
}

func (o ObserverFuncs) OnNegotiationNeeded(ev NegotiationNeededEvent) {
	if o.NegotiationNeeded != nil {
		o.NegotiationNeeded(ev)
	}
}

func (o ObserverFuncs) OnICEConnectionStateChange(ev ICEConnectionStateEvent) {
	if o.ICEConnectionStateChange != nil {
		o.ICEConnectionStateChange(ev)
	}
}

func (o ObserverFuncs) OnSignalingStateChange(ev SignalingStateEvent) {
	if o.SignalingStateChange != nil {
		o.SignalingStateChange(ev)
	}
}

func (o ObserverFuncs) OnAddStream(ev StreamEvent) {
	if o.AddStream != nil {
		o.AddStream(ev)
	}
}

func (o ObserverFuncs) OnICECandidate(ev ICECandidateEvent) {
	if o.ICECandidate != nil {
		o.ICECandidate(ev)
	}
}

func (o ObserverFuncs) OnICEGatheringStateChange(ev ICEGatheringStateEvent) {
	if o.ICEGatheringStateChange != nil {
		o.ICEGatheringStateChange(ev)
	}
}
