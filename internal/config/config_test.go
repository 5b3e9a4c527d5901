package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 256, cfg.EventQueueSize)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
mode: debug
port: 9000
log_level: debug
ping_period: 10s
ice_transport_policy: relay
bundle_policy: max-bundle
exclusive_negotiation: true
ice_servers:
  - urls: ["turn:turn.example.org:3478"]
    username: alice
    credential: secret
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.PingPeriod)
	assert.True(t, cfg.ExclusiveNegotiation)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, domain.Configuration{
		ICEServers:         []domain.ICEServer{{URLs: []string{"turn:turn.example.org:3478"}, Username: "alice", Credential: "secret"}},
		ICETransportPolicy: "relay",
		BundlePolicy:       "max-bundle",
	}, cfg.PeerConfiguration())
}

func TestLoadFileRejectsBadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle_policy: sometimes\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}
