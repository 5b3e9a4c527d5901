package domain

import "errors"

var ErrEmptyCandidate = errors.New("candidate line empty")

// CandidateInit is the wire form of an ICE candidate. Optional fields are
// pointers so an absent value survives a round trip through the engine.
type CandidateInit struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// ICECandidate is an immutable candidate value. The candidate line is opaque.
type ICECandidate struct {
	init CandidateInit
}

func NewICECandidate(in CandidateInit) (ICECandidate, error) {
	if in.Candidate == "" {
		return ICECandidate{}, ErrEmptyCandidate
	}
	return ICECandidate{init: cloneInit(in)}, nil
}

func (c ICECandidate) Candidate() string { return c.init.Candidate }

func (c ICECandidate) SDPMid() (string, bool) {
	if c.init.SDPMid == nil {
		return "", false
	}
	return *c.init.SDPMid, true
}

func (c ICECandidate) SDPMLineIndex() (uint16, bool) {
	if c.init.SDPMLineIndex == nil {
		return 0, false
	}
	return *c.init.SDPMLineIndex, true
}

func (c ICECandidate) UsernameFragment() (string, bool) {
	if c.init.UsernameFragment == nil {
		return "", false
	}
	return *c.init.UsernameFragment, true
}

func (c ICECandidate) ToInit() CandidateInit { return cloneInit(c.init) }

func cloneInit(in CandidateInit) CandidateInit {
	out := CandidateInit{Candidate: in.Candidate}
	if in.SDPMid != nil {
		v := *in.SDPMid
		out.SDPMid = &v
	}
	if in.SDPMLineIndex != nil {
		v := *in.SDPMLineIndex
		out.SDPMLineIndex = &v
	}
	if in.UsernameFragment != nil {
		v := *in.UsernameFragment
		out.UsernameFragment = &v
	}
	return out
}
