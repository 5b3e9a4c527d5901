package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

func (s *session) writePump() {
	ticker := time.NewTicker(s.ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info().Msg("writePump ctx done")
			return
		case data, ok := <-s.ws.send:
			if !ok {
				s.logger.Debug().Msg("writePump channel closed")
				return
			}
			if err := s.ws.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := s.ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Error().Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := s.ws.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Warn().Err(err).Msg("writePump ping error")
				return
			}
		}
	}
}

func (s *session) readPump() {
	defer func() {
		s.logger.Info().Msg("readPump closing")
		s.stop()
		s.ctl.Manager.Release(s.sid, s.conn)
		s.ctl.Limiter.Forget(s.sid)
	}()

	pongWait := s.ctl.opts.PingPeriod * 10 / 9
	s.ws.conn.SetReadLimit(s.ctl.opts.ReadLimit)
	_ = s.ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.conn.SetPongHandler(func(string) error {
		return s.ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info().Msg("readPump ctx done")
			return
		default:
			_, data, err := s.ws.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Error().Err(err).Msg("readPump read error")
				}
				return
			}
			_ = s.ws.conn.SetReadDeadline(time.Now().Add(pongWait))
			s.handleSignal(data)
		}
	}
}

func (s *session) handleSignal(data []byte) {
	var m inbound
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Error().Err(err).Msg("bad json")
		s.sendJSON(outbound{Type: msgError, Error: "bad_payload"})
		return
	}

	switch m.Type {
	case msgPing:
		s.sendJSON(outbound{Type: msgPong})
	case msgBye:
		s.logger.Info().Msg("bye")
		s.stop()
	case msgOffer:
		if !s.ctl.Limiter.Allow(s.sid) {
			s.sendJSON(outbound{Type: msgError, Op: msgOffer, Error: "rate_limited"})
			return
		}
		s.enqueue(func(ctx context.Context) { s.handleOffer(ctx, m) })
	case msgAnswer:
		s.enqueue(func(ctx context.Context) { s.handleAnswer(ctx, m) })
	case msgCandidate:
		s.enqueue(func(ctx context.Context) { s.handleCandidate(ctx, m) })
	case msgAddStream:
		s.handleAddStream(m)
	case msgRemoveStream:
		s.handleRemoveStream(m)
	default:
		s.logger.Warn().Str("type", m.Type).Msg("unknown signal")
	}
}

func (s *session) enqueue(task func(context.Context)) {
	select {
	case s.tasks <- task:
	case <-s.ctx.Done():
	default:
		s.logger.Warn().Msg("negotiation queue full")
		s.sendJSON(outbound{Type: msgError, Error: ErrBackpressure.Error()})
	}
}

func (s *session) negotiate() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.tasks:
			task(s.ctx)
		}
	}
}
