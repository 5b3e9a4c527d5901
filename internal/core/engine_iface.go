package core

import "github.com/dkeye/rtcpeer/internal/domain"

// DescriptionCallback receives either a description or an engine error.
type DescriptionCallback func(domain.DescriptionInit, error)

// DoneCallback receives nil on success.
type DoneCallback func(error)

// Engine is the request side of the native media/transport engine.
// Every call returns immediately; callbacks fire later on an engine goroutine.
// A call that never completes is allowed: the core imposes no timeout.
type Engine interface {
	// Init creates the native context for id. A rejected configuration is
	// reported synchronously.
	Init(cfg domain.Configuration, id domain.ConnID) error
	// AddStream and RemoveStream have no error channel.
	AddStream(streamID string, id domain.ConnID)
	RemoveStream(streamID string, id domain.ConnID)
	CreateOffer(id domain.ConnID, c domain.MediaConstraints, cb DescriptionCallback)
	CreateAnswer(id domain.ConnID, c domain.MediaConstraints, cb DescriptionCallback)
	SetLocalDescription(desc domain.DescriptionInit, id domain.ConnID, cb DoneCallback)
	SetRemoteDescription(desc domain.DescriptionInit, id domain.ConnID, cb DoneCallback)
	// AddICECandidate forwards nil as end-of-candidates.
	AddICECandidate(cand *domain.CandidateInit, id domain.ConnID, cb DoneCallback)
	Close(id domain.ConnID)
}

// EngineError carries an opaque failure payload reported by the engine.
type EngineError struct {
	Payload string
}

func (e *EngineError) Error() string { return "engine: " + e.Payload }
