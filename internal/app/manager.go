// Package app binds client sessions to peer connections.
package app

import (
	"context"
	"errors"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/rs/zerolog/log"
)

var ErrNoConnection = errors.New("no such connection")

type Manager struct {
	Factory  *peer.Factory
	Bindings *Bindings
	Config   domain.Configuration
	Options  []peer.Option
}

func NewManager(f *peer.Factory, cfg domain.Configuration, opts ...peer.Option) *Manager {
	return &Manager{Factory: f, Bindings: NewBindings(), Config: cfg, Options: opts}
}

// Open creates a connection for sid. A connection previously bound to sid is
// closed and its cancel func invoked.
func (m *Manager) Open(sid core.SessionID, obs peer.Observer, cancel context.CancelFunc) (*peer.Connection, error) {
	conn, err := m.Factory.Create(m.Config, obs, m.Options...)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("sid", string(sid)).Msg("open connection")
		return nil, err
	}
	if old, ok := m.Bindings.Bind(sid, conn, cancel); ok {
		log.Info().Str("module", "app").Str("sid", string(sid)).Uint64("conn_id", uint64(old.Conn.ID())).Msg("replacing connection")
		release(old)
	}
	return conn, nil
}

func (m *Manager) Connection(sid core.SessionID) (*peer.Connection, bool) {
	return m.Bindings.Get(sid)
}

func (m *Manager) Lookup(id domain.ConnID) (*peer.Connection, bool) {
	return m.Factory.Registry.Get(id)
}

// Release closes the connection of sid if it is still conn. A nil conn
// matches whatever is bound.
func (m *Manager) Release(sid core.SessionID, conn *peer.Connection) bool {
	e, ok := m.Bindings.Unbind(sid, conn)
	if !ok {
		return false
	}
	release(e)
	return true
}

// CloseConnection closes a connection by id, including its session binding.
func (m *Manager) CloseConnection(id domain.ConnID) error {
	conn, ok := m.Factory.Registry.Get(id)
	if !ok {
		return ErrNoConnection
	}
	if sid, ok := m.Bindings.Owner(id); ok && m.Release(sid, conn) {
		return nil
	}
	conn.Close()
	return nil
}

func (m *Manager) Connections() []peer.Info {
	return m.Factory.Registry.Snapshot()
}

// CloseAll closes every bound and unbound connection.
func (m *Manager) CloseAll() {
	for _, sid := range m.Bindings.all() {
		m.Release(sid, nil)
	}
	m.Factory.Registry.Each(func(c *peer.Connection) { c.Close() })
	log.Info().Str("module", "app").Msg("all connections closed")
}

func release(e *Binding) {
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
}
