package signal

import "github.com/dkeye/rtcpeer/internal/domain"

// inbound is every message a remote peer may send. Only the fields of the
// given type are read.
type inbound struct {
	Type string `json:"type"`

	SDP string `json:"sdp,omitempty"`

	Candidate        string  `json:"candidate,omitempty"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`

	StreamID string `json:"streamId,omitempty"`

	Constraints domain.MediaConstraints `json:"constraints"`
}

type outbound struct {
	Type string `json:"type"`

	ConnID *domain.ConnID `json:"connId,omitempty"`
	SDP    string         `json:"sdp,omitempty"`

	Candidate        *string `json:"candidate,omitempty"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`

	Kind     string `json:"kind,omitempty"`
	State    string `json:"state,omitempty"`
	StreamID string `json:"streamId,omitempty"`

	Op    string `json:"op,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	msgOffer        = "offer"
	msgAnswer       = "answer"
	msgCandidate    = "candidate"
	msgPing         = "ping"
	msgPong         = "pong"
	msgBye          = "bye"
	msgAddStream    = "addStream"
	msgRemoveStream = "removeStream"
	msgWelcome      = "welcome"
	msgState        = "state"
	msgStream       = "stream"
	msgError        = "error"

	stateSignaling = "signaling"
	stateICE       = "ice"
	stateGathering = "gathering"
)

// candidateInit returns nil for an empty candidate line, meaning end-of-candidates.
func (m inbound) candidateInit() *domain.CandidateInit {
	if m.Candidate == "" {
		return nil
	}
	return &domain.CandidateInit{
		Candidate:        m.Candidate,
		SDPMid:           m.SDPMid,
		SDPMLineIndex:    m.SDPMLineIndex,
		UsernameFragment: m.UsernameFragment,
	}
}
