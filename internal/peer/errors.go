package peer

import (
	"errors"
	"fmt"

	"github.com/dkeye/rtcpeer/internal/domain"
)

var (
	ErrClosedConnection    = errors.New("peer connection closed")
	ErrOperationInProgress = errors.New("negotiation operation already in progress")
)

type Op string

const (
	OpCreateOffer          Op = "createOffer"
	OpCreateAnswer         Op = "createAnswer"
	OpSetLocalDescription  Op = "setLocalDescription"
	OpSetRemoteDescription Op = "setRemoteDescription"
	OpAddICECandidate      Op = "addIceCandidate"
)

// InitializationError means the engine rejected the configuration.
type InitializationError struct {
	ID  domain.ConnID
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("init connection %d: %v", e.ID, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// NegotiationError wraps the engine's opaque failure for an offer/answer or
// set-description request.
type NegotiationError struct {
	Op  Op
	ID  domain.ConnID
	Err error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("%s on connection %d: %v", e.Op, e.ID, e.Err)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

type CandidateError struct {
	ID  domain.ConnID
	Err error
}

func (e *CandidateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("add ice candidate on connection %d: rejected", e.ID)
	}
	return fmt.Sprintf("add ice candidate on connection %d: %v", e.ID, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }
