package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidPolicy = errors.New("invalid policy")

// ConnID is process-unique and stable for the connection's lifetime.
type ConnID uint64

func (id ConnID) String() string { return strconv.FormatUint(uint64(id), 10) }

func ParseConnID(raw string) (ConnID, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse conn id %q: %w", raw, err)
	}
	return ConnID(v), nil
}

type ICEServer struct {
	URLs       []string `json:"urls" mapstructure:"urls"`
	Username   string   `json:"username,omitempty" mapstructure:"username"`
	Credential string   `json:"credential,omitempty" mapstructure:"credential"`
}

// Configuration is handed to the engine untouched apart from Validate.
// Empty policies mean "engine default".
type Configuration struct {
	ICEServers         []ICEServer `json:"iceServers,omitempty"`
	ICETransportPolicy string      `json:"iceTransportPolicy,omitempty"`
	BundlePolicy       string      `json:"bundlePolicy,omitempty"`
}

func (c Configuration) Validate() error {
	switch c.ICETransportPolicy {
	case "", "all", "relay":
	default:
		return fmt.Errorf("%w: ice transport %q", ErrInvalidPolicy, c.ICETransportPolicy)
	}
	switch c.BundlePolicy {
	case "", "balanced", "max-compat", "max-bundle":
	default:
		return fmt.Errorf("%w: bundle %q", ErrInvalidPolicy, c.BundlePolicy)
	}
	return nil
}

// MediaConstraints are forwarded to the engine as-is.
type MediaConstraints struct {
	OfferToReceiveAudio    bool `json:"offerToReceiveAudio,omitempty"`
	OfferToReceiveVideo    bool `json:"offerToReceiveVideo,omitempty"`
	ICERestart             bool `json:"iceRestart,omitempty"`
	VoiceActivityDetection bool `json:"voiceActivityDetection,omitempty"`
}

// MediaStream is a reference to a stream owned by the engine.
type MediaStream struct {
	ID string `json:"id"`
}
