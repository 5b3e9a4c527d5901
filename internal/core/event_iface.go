package core

import (
	"fmt"

	"github.com/dkeye/rtcpeer/internal/domain"
)

type EventKind uint8

const (
	EventRenegotiationNeeded EventKind = iota + 1
	EventICEConnectionChanged
	EventSignalingStateChanged
	EventStreamAdded
	EventICECandidateGathered
	EventICEGatheringChanged
)

// AllEventKinds lists every category a connection subscribes to.
var AllEventKinds = []EventKind{
	EventRenegotiationNeeded,
	EventICEConnectionChanged,
	EventSignalingStateChanged,
	EventStreamAdded,
	EventICECandidateGathered,
	EventICEGatheringChanged,
}

func (k EventKind) String() string {
	switch k {
	case EventRenegotiationNeeded:
		return "renegotiationNeeded"
	case EventICEConnectionChanged:
		return "iceConnectionChanged"
	case EventSignalingStateChanged:
		return "signalingStateChanged"
	case EventStreamAdded:
		return "streamAdded"
	case EventICECandidateGathered:
		return "iceCandidateGathered"
	case EventICEGatheringChanged:
		return "iceGatheringChanged"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is one push notification from the engine. ConnID demultiplexes the
// shared stream; only the field matching Kind is meaningful.
type Event struct {
	Kind   EventKind
	ConnID domain.ConnID

	SignalingState     domain.SignalingState
	ICEConnectionState domain.ICEConnectionState
	ICEGatheringState  domain.ICEGatheringState
	StreamID           string
	Candidate          *domain.CandidateInit
}

// Subscription is released exactly once by its owner; further calls are no-ops.
type Subscription interface {
	Unsubscribe()
}

// EventSource is the process-wide asynchronous notification source.
type EventSource interface {
	Subscribe(id domain.ConnID, kind EventKind, fn func(Event)) Subscription
	Publish(ev Event)
}
