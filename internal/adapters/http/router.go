package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/rtcpeer/internal/adapters/rtc"
	"github.com/dkeye/rtcpeer/internal/adapters/signal"
	"github.com/dkeye/rtcpeer/internal/app"
	"github.com/dkeye/rtcpeer/internal/config"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	clientTokenCookie = "ct"
	clientTokenKey    = "client_token"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable token, kept both in a
// plain cookie and in the signed session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := c.Cookie(clientTokenCookie)
		if token == "" {
			if v, ok := sess.Get(clientTokenKey).(string); ok {
				token = v
			}
		}
		if token == "" {
			token = genClientToken()
			c.SetCookie(clientTokenCookie, token, 3600*24*7, "/", "", false, true)
		}
		if sess.Get(clientTokenKey) != token {
			sess.Set(clientTokenKey, token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// TrackSource reports relayed track statistics; nil disables the field.
type TrackSource interface {
	TrackStats(id domain.ConnID) []rtc.TrackStats
}

type connectionDetail struct {
	Connection    peer.Info            `json:"connection"`
	Owner         string               `json:"owner,omitempty"`
	LocalStreams  []domain.MediaStream `json:"localStreams"`
	RemoteStreams []domain.MediaStream `json:"remoteStreams"`
	Tracks        []rtc.TrackStats     `json:"tracks,omitempty"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, m *app.Manager, tracks TrackSource) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RTCPeerSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": len(m.Connections())})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(m, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendQueue:  cfg.SendQueue,
	})

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString(clientTokenKey)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	api.GET("/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"connections": m.Connections()})
	})

	api.GET("/connections/:id", func(c *gin.Context) {
		id, err := domain.ParseConnID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		conn, ok := m.Lookup(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": app.ErrNoConnection.Error()})
			return
		}
		detail := connectionDetail{
			Connection:    conn.Info(),
			LocalStreams:  conn.LocalStreams(),
			RemoteStreams: conn.RemoteStreams(),
		}
		if sid, ok := m.Bindings.Owner(id); ok {
			detail.Owner = string(sid)
		}
		if tracks != nil {
			detail.Tracks = tracks.TrackStats(id)
		}
		c.JSON(http.StatusOK, detail)
	})

	api.DELETE("/connections/:id", func(c *gin.Context) {
		id, err := domain.ParseConnID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := m.CloseConnection(id); err != nil {
			if errors.Is(err, app.ErrNoConnection) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	return r
}
