// Package domain contains value objects without logic, just negotiation meta-data
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSDPType   = errors.New("unknown sdp type")
	ErrEmptyDescription = errors.New("session description body empty")
)

type SDPType string

const (
	SDPTypeOffer    SDPType = "offer"
	SDPTypeAnswer   SDPType = "answer"
	SDPTypePranswer SDPType = "pranswer"
	SDPTypeRollback SDPType = "rollback"
)

func ParseSDPType(raw string) (SDPType, error) {
	switch t := SDPType(raw); t {
	case SDPTypeOffer, SDPTypeAnswer, SDPTypePranswer, SDPTypeRollback:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSDPType, raw)
}

// DescriptionInit is the wire form exchanged verbatim with the engine.
type DescriptionInit struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// SessionDescription is immutable once constructed; fields are reachable only
// through accessors.
type SessionDescription struct {
	typ SDPType
	sdp string
}

// NewSessionDescription validates the type. A rollback may carry no body.
func NewSessionDescription(typ SDPType, sdp string) (SessionDescription, error) {
	if _, err := ParseSDPType(string(typ)); err != nil {
		return SessionDescription{}, err
	}
	if sdp == "" && typ != SDPTypeRollback {
		return SessionDescription{}, ErrEmptyDescription
	}
	return SessionDescription{typ: typ, sdp: sdp}, nil
}

// DescriptionFromInit wraps a raw engine payload.
func DescriptionFromInit(in DescriptionInit) (SessionDescription, error) {
	typ, err := ParseSDPType(in.Type)
	if err != nil {
		return SessionDescription{}, err
	}
	return NewSessionDescription(typ, in.SDP)
}

func (d SessionDescription) Type() SDPType { return d.typ }
func (d SessionDescription) SDP() string   { return d.sdp }

func (d SessionDescription) ToInit() DescriptionInit {
	return DescriptionInit{Type: string(d.typ), SDP: d.sdp}
}

func (d SessionDescription) Equal(o SessionDescription) bool {
	return d.typ == o.typ && d.sdp == o.sdp
}
