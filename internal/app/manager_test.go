package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/events"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine accepts every request and never completes asynchronous ones.
type stubEngine struct {
	mu      sync.Mutex
	initErr error
	closed  []domain.ConnID
}

func (e *stubEngine) Init(domain.Configuration, domain.ConnID) error                                { return e.initErr }
func (e *stubEngine) AddStream(string, domain.ConnID)                                               {}
func (e *stubEngine) RemoveStream(string, domain.ConnID)                                            {}
func (e *stubEngine) CreateOffer(domain.ConnID, domain.MediaConstraints, core.DescriptionCallback)  {}
func (e *stubEngine) CreateAnswer(domain.ConnID, domain.MediaConstraints, core.DescriptionCallback) {}
func (e *stubEngine) SetLocalDescription(domain.DescriptionInit, domain.ConnID, core.DoneCallback)  {}
func (e *stubEngine) SetRemoteDescription(domain.DescriptionInit, domain.ConnID, core.DoneCallback) {}
func (e *stubEngine) AddICECandidate(*domain.CandidateInit, domain.ConnID, core.DoneCallback)       {}

func (e *stubEngine) Close(id domain.ConnID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = append(e.closed, id)
}

func (e *stubEngine) closedIDs() []domain.ConnID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.ConnID(nil), e.closed...)
}

func newTestManager(t *testing.T) (*Manager, *stubEngine) {
	t.Helper()
	eng := &stubEngine{}
	d := events.NewDispatcher(context.Background(), 16)
	t.Cleanup(d.Close)
	f := &peer.Factory{Engine: eng, Events: d, Registry: peer.NewRegistry()}
	return NewManager(f, domain.Configuration{}), eng
}

func TestOpenBindsSession(t *testing.T) {
	m, _ := newTestManager(t)

	conn, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)

	got, ok := m.Connection("sid-1")
	require.True(t, ok)
	assert.Same(t, conn, got)
	owner, ok := m.Bindings.Owner(conn.ID())
	require.True(t, ok)
	assert.Equal(t, core.SessionID("sid-1"), owner)
	assert.Len(t, m.Connections(), 1)
}

func TestOpenReplacesPreviousConnection(t *testing.T) {
	m, eng := newTestManager(t)
	canceled := false

	first, err := m.Open("sid-1", nil, func() { canceled = true })
	require.NoError(t, err)
	second, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)

	assert.True(t, canceled)
	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.Equal(t, []domain.ConnID{first.ID()}, eng.closedIDs())
	_, ok := m.Bindings.Owner(first.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, m.Bindings.Len())
}

func TestOpenPropagatesInitFailure(t *testing.T) {
	m, eng := newTestManager(t)
	eng.initErr = errors.New("rejected")

	_, err := m.Open("sid-1", nil, nil)
	var initErr *peer.InitializationError
	require.ErrorAs(t, err, &initErr)
	_, ok := m.Connection("sid-1")
	assert.False(t, ok)
}

func TestReleaseIgnoresStaleConnection(t *testing.T) {
	m, _ := newTestManager(t)
	first, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)
	second, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)

	assert.False(t, m.Release("sid-1", first))
	assert.False(t, second.Closed())

	assert.True(t, m.Release("sid-1", second))
	assert.True(t, second.Closed())
	assert.Empty(t, m.Connections())
}

func TestCloseConnectionByID(t *testing.T) {
	m, _ := newTestManager(t)
	canceled := false
	conn, err := m.Open("sid-1", nil, func() { canceled = true })
	require.NoError(t, err)

	require.NoError(t, m.CloseConnection(conn.ID()))
	assert.True(t, conn.Closed())
	assert.True(t, canceled)
	assert.Zero(t, m.Bindings.Len())

	assert.ErrorIs(t, m.CloseConnection(conn.ID()), ErrNoConnection)
}

func TestCloseAll(t *testing.T) {
	m, eng := newTestManager(t)
	_, err := m.Open("a", nil, nil)
	require.NoError(t, err)
	_, err = m.Open("b", nil, nil)
	require.NoError(t, err)
	unbound, err := m.Factory.Create(domain.Configuration{}, nil)
	require.NoError(t, err)

	m.CloseAll()

	assert.Empty(t, m.Connections())
	assert.True(t, unbound.Closed())
	assert.Len(t, eng.closedIDs(), 3)
}
