// Package signal lets a remote peer drive one connection over a WebSocket.
package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dkeye/rtcpeer/internal/app"
	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/dkeye/rtcpeer/internal/peer"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit   int64
	PingPeriod  time.Duration
	SendQueue   int
	// OfferLimit caps remote offers per OfferWindow and session.
	OfferLimit  int
	OfferWindow time.Duration
}

type SignalWSController struct {
	Manager *app.Manager
	Limiter *RateLimiter
	opts    Options
}

func NewSignalWSController(m *app.Manager, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.OfferLimit <= 0 {
		opts.OfferLimit = 10
	}
	if opts.OfferWindow <= 0 {
		opts.OfferWindow = 10 * time.Second
	}
	return &SignalWSController{
		Manager: m,
		Limiter: NewRateLimiter(opts.OfferLimit, opts.OfferWindow),
		opts:    opts,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is the per-socket state. Negotiation steps run one at a time on
// the negotiate goroutine.
type session struct {
	ctl    *SignalWSController
	sid    core.SessionID
	ws     *WsSignalConn
	conn   *peer.Connection
	tasks  chan func(context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	// pendingRenegotiation is set when an offer was wanted outside stable.
	pendingRenegotiation atomic.Bool
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		ctl:    ctl,
		sid:    sid,
		ws:     newWsSignalConn(ws, ctl.opts.SendQueue),
		tasks:  make(chan func(context.Context), ctl.opts.SendQueue),
		ctx:    ctx,
		cancel: cancel,
		logger: log.With().Str("module", "signal").Str("sid", string(sid)).Logger(),
	}

	conn, err := ctl.Manager.Open(sid, &observer{s: s}, s.stop)
	if err != nil {
		_ = ws.WriteJSON(outbound{Type: msgError, Op: "open", Error: err.Error()})
		s.stop()
		return
	}
	s.conn = conn
	id := conn.ID()
	s.logger.Info().Uint64("conn_id", uint64(id)).Msg("connection opened")
	s.sendJSON(outbound{Type: msgWelcome, ConnID: &id})

	go s.writePump()
	go s.negotiate()
	go s.readPump()
}

// stop ends every pump of the socket. Safe to call more than once.
func (s *session) stop() {
	s.cancel()
	s.ws.Close()
}

func (s *session) sendJSON(v outbound) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("sendJSON marshal")
		return
	}
	if err := s.ws.TrySend(b); err != nil {
		s.logger.Warn().Err(err).Str("type", v.Type).Msg("sendJSON dropped")
	}
}

func (s *session) sendError(op string, err error) {
	s.sendJSON(outbound{Type: msgError, Op: op, Error: err.Error()})
}

func (s *session) sendDescription(d domain.SessionDescription) {
	s.sendJSON(outbound{Type: string(d.Type()), SDP: d.SDP()})
}
