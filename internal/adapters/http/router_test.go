package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/rtcpeer/internal/adapters/rtc"
	"github.com/dkeye/rtcpeer/internal/app"
	"github.com/dkeye/rtcpeer/internal/config"
	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/events"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleEngine struct{}

func (idleEngine) Init(domain.Configuration, domain.ConnID) error                                { return nil }
func (idleEngine) AddStream(string, domain.ConnID)                                               {}
func (idleEngine) RemoveStream(string, domain.ConnID)                                            {}
func (idleEngine) CreateOffer(domain.ConnID, domain.MediaConstraints, core.DescriptionCallback)  {}
func (idleEngine) CreateAnswer(domain.ConnID, domain.MediaConstraints, core.DescriptionCallback) {}
func (idleEngine) SetLocalDescription(domain.DescriptionInit, domain.ConnID, core.DoneCallback)  {}
func (idleEngine) SetRemoteDescription(domain.DescriptionInit, domain.ConnID, core.DoneCallback) {}
func (idleEngine) AddICECandidate(*domain.CandidateInit, domain.ConnID, core.DoneCallback)       {}
func (idleEngine) Close(domain.ConnID)                                                           {}

type fixedTracks []rtc.TrackStats

func (f fixedTracks) TrackStats(domain.ConnID) []rtc.TrackStats { return f }

func newTestRouter(t *testing.T) (*gin.Engine, *app.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := events.NewDispatcher(context.Background(), 16)
	t.Cleanup(d.Close)
	m := app.NewManager(&peer.Factory{Engine: idleEngine{}, Events: d, Registry: peer.NewRegistry()}, domain.Configuration{})
	cfg := &config.Config{Mode: "test", StaticPath: t.TempDir(), Secret: "test-secret"}
	tracks := fixedTracks{{StreamID: "s", TrackID: "t", Kind: "audio", Packets: 3}}
	return SetupRouter(context.Background(), cfg, m, tracks), m
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthzSetsClientToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0}`, w.Body.String())

	var names []string
	for _, c := range w.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "ct")
	assert.Contains(t, names, "RTCPeerSessions")
}

func TestClientTokenIsStable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("s", cookie.NewStore([]byte("secret"))))
	r.Use(ClientTokenMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("client_token")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "ct", Value: "known-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "known-token", w.Body.String())
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, "ct", c.Name, "existing token must not be reissued")
	}
}

func TestListAndInspectConnections(t *testing.T) {
	r, m := newTestRouter(t)
	conn, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)
	conn.AddStream(domain.MediaStream{ID: "cam"})

	w := do(r, http.MethodGet, "/api/connections")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Connections []peer.Info `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Connections, 1)
	assert.Equal(t, domain.SignalingStable, list.Connections[0].SignalingState)

	w = do(r, http.MethodGet, "/api/connections/"+conn.ID().String())
	require.Equal(t, http.StatusOK, w.Code)
	var detail connectionDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "sid-1", detail.Owner)
	assert.Equal(t, []domain.MediaStream{{ID: "cam"}}, detail.LocalStreams)
	require.Len(t, detail.Tracks, 1)
	assert.Equal(t, uint64(3), detail.Tracks[0].Packets)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/connections/abc").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/connections/999").Code)
}

func TestDeleteConnection(t *testing.T) {
	r, m := newTestRouter(t)
	conn, err := m.Open("sid-1", nil, nil)
	require.NoError(t, err)

	w := do(r, http.MethodDelete, "/api/connections/"+conn.ID().String())
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, conn.Closed())
	assert.Empty(t, m.Connections())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/connections/"+conn.ID().String()).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/api/connections/-5").Code)
}
