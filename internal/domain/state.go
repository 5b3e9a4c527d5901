package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownState = errors.New("unknown state")

type SignalingState string

const (
	SignalingStable             SignalingState = "stable"
	SignalingHaveLocalOffer     SignalingState = "have-local-offer"
	SignalingHaveRemoteOffer    SignalingState = "have-remote-offer"
	SignalingHaveLocalPranswer  SignalingState = "have-local-pranswer"
	SignalingHaveRemotePranswer SignalingState = "have-remote-pranswer"
	SignalingClosed             SignalingState = "closed"
)

func ParseSignalingState(raw string) (SignalingState, error) {
	switch s := SignalingState(raw); s {
	case SignalingStable, SignalingHaveLocalOffer, SignalingHaveRemoteOffer,
		SignalingHaveLocalPranswer, SignalingHaveRemotePranswer, SignalingClosed:
		return s, nil
	}
	return "", fmt.Errorf("%w: signaling %q", ErrUnknownState, raw)
}

type ICEConnectionState string

const (
	ICEConnectionNew          ICEConnectionState = "new"
	ICEConnectionChecking     ICEConnectionState = "checking"
	ICEConnectionConnected    ICEConnectionState = "connected"
	ICEConnectionCompleted    ICEConnectionState = "completed"
	ICEConnectionFailed       ICEConnectionState = "failed"
	ICEConnectionDisconnected ICEConnectionState = "disconnected"
	ICEConnectionClosed       ICEConnectionState = "closed"
)

func ParseICEConnectionState(raw string) (ICEConnectionState, error) {
	switch s := ICEConnectionState(raw); s {
	case ICEConnectionNew, ICEConnectionChecking, ICEConnectionConnected, ICEConnectionCompleted,
		ICEConnectionFailed, ICEConnectionDisconnected, ICEConnectionClosed:
		return s, nil
	}
	return "", fmt.Errorf("%w: ice connection %q", ErrUnknownState, raw)
}

type ICEGatheringState string

const (
	ICEGatheringNew       ICEGatheringState = "new"
	ICEGatheringGathering ICEGatheringState = "gathering"
	ICEGatheringComplete  ICEGatheringState = "complete"
)

func ParseICEGatheringState(raw string) (ICEGatheringState, error) {
	switch s := ICEGatheringState(raw); s {
	case ICEGatheringNew, ICEGatheringGathering, ICEGatheringComplete:
		return s, nil
	}
	return "", fmt.Errorf("%w: ice gathering %q", ErrUnknownState, raw)
}
