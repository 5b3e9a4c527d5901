package app

import (
	"context"
	"sync"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/rs/zerolog/log"
)

// Binding is one session-to-connection entry.
type Binding struct {
	Conn   *peer.Connection
	Cancel context.CancelFunc
}

// Bindings maps client sessions to the connection they drive.
type Bindings struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Binding
	owners   map[domain.ConnID]core.SessionID
}

func NewBindings() *Bindings {
	return &Bindings{
		sessions: make(map[core.SessionID]*Binding),
		owners:   make(map[domain.ConnID]core.SessionID),
	}
}

// Bind returns the previous binding of sid, if any.
func (b *Bindings) Bind(sid core.SessionID, conn *peer.Connection, cancel context.CancelFunc) (*Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := b.sessions[sid]
	if ok {
		delete(b.owners, old.Conn.ID())
	}
	b.sessions[sid] = &Binding{Conn: conn, Cancel: cancel}
	b.owners[conn.ID()] = sid
	log.Info().Str("module", "app.bindings").Str("sid", string(sid)).Uint64("conn_id", uint64(conn.ID())).Msg("bound session")
	return old, ok
}

func (b *Bindings) Get(sid core.SessionID) (*peer.Connection, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if e, ok := b.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (b *Bindings) Owner(id domain.ConnID) (core.SessionID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sid, ok := b.owners[id]
	return sid, ok
}

// Unbind removes sid only while it still points at conn.
func (b *Bindings) Unbind(sid core.SessionID, conn *peer.Connection) (*Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.sessions[sid]
	if !ok || (conn != nil && e.Conn != conn) {
		return nil, false
	}
	delete(b.sessions, sid)
	delete(b.owners, e.Conn.ID())
	log.Info().Str("module", "app.bindings").Str("sid", string(sid)).Msg("unbind session")
	return e, true
}

func (b *Bindings) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

func (b *Bindings) all() []core.SessionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.SessionID, 0, len(b.sessions))
	for sid := range b.sessions {
		out = append(out, sid)
	}
	return out
}
