package rtc

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

var ErrUnsupportedKind = errors.New("unsupported track kind")

// Catalog holds local streams that connections may send with AddStream.
// Remote tracks relayed from other connections land here too, under
// "<conn id>:<remote stream id>" until their source ends.
type Catalog struct {
	mu      sync.RWMutex
	streams map[string][]*webrtc.TrackLocalStaticRTP
}

func NewCatalog() *Catalog {
	return &Catalog{streams: make(map[string][]*webrtc.TrackLocalStaticRTP)}
}

// Register creates one static RTP track per kind. An empty streamID gets a
// generated one.
func (c *Catalog) Register(streamID string, kinds ...webrtc.RTPCodecType) (string, error) {
	if streamID == "" {
		streamID = uuid.NewString()
	}
	tracks := make([]*webrtc.TrackLocalStaticRTP, 0, len(kinds))
	for _, kind := range kinds {
		capability, err := defaultCapability(kind)
		if err != nil {
			return "", err
		}
		t, err := webrtc.NewTrackLocalStaticRTP(capability, uuid.NewString(), streamID)
		if err != nil {
			return "", fmt.Errorf("new %s track: %w", kind, err)
		}
		tracks = append(tracks, t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[streamID] = append(c.streams[streamID], tracks...)
	return streamID, nil
}

func (c *Catalog) add(t *webrtc.TrackLocalStaticRTP) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[t.StreamID()] = append(c.streams[t.StreamID()], t)
}

func (c *Catalog) remove(t *webrtc.TrackLocalStaticRTP) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := slices.DeleteFunc(c.streams[t.StreamID()], func(cur *webrtc.TrackLocalStaticRTP) bool { return cur == t })
	if len(list) == 0 {
		delete(c.streams, t.StreamID())
		return
	}
	c.streams[t.StreamID()] = list
}

// Unregister drops a stream. Connections already sending it keep their senders.
func (c *Catalog) Unregister(streamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.streams, streamID)
}

func (c *Catalog) Tracks(streamID string) []*webrtc.TrackLocalStaticRTP {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.streams[streamID])
}

func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.streams))
	for id := range c.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func defaultCapability(kind webrtc.RTPCodecType) (webrtc.RTPCodecCapability, error) {
	switch kind {
	case webrtc.RTPCodecTypeAudio:
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}, nil
	case webrtc.RTPCodecTypeVideo:
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}, nil
	}
	return webrtc.RTPCodecCapability{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}
