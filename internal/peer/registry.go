package peer

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry allocates connection ids and maps them to live connections.
// Ids are never reused for the life of the process.
type Registry struct {
	next atomic.Uint64

	mu    sync.RWMutex
	conns map[domain.ConnID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*Connection)}
}

func (r *Registry) allocate() domain.ConnID {
	return domain.ConnID(r.next.Add(1) - 1)
}

func (r *Registry) register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
	log.Debug().Str("module", "peer.registry").Uint64("conn_id", uint64(c.id)).Msg("registered")
}

func (r *Registry) unregister(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Debug().Str("module", "peer.registry").Uint64("conn_id", uint64(id)).Msg("unregistered")
}

func (r *Registry) Get(id domain.ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Info is a read-only view for APIs.
type Info struct {
	ID                 domain.ConnID             `json:"id"`
	SignalingState     domain.SignalingState     `json:"signalingState"`
	ICEConnectionState domain.ICEConnectionState `json:"iceConnectionState"`
	ICEGatheringState  domain.ICEGatheringState  `json:"iceGatheringState"`
	HasLocal           bool                      `json:"hasLocalDescription"`
	HasRemote          bool                      `json:"hasRemoteDescription"`
	RemoteStreams      int                       `json:"remoteStreams"`
}

// Snapshot lists live connections ordered by id.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Each calls fn for every live connection; fn may close the connection.
func (r *Registry) Each(fn func(*Connection)) {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		fn(c)
	}
}
