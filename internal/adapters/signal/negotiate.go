package signal

import (
	"context"

	"github.com/dkeye/rtcpeer/internal/domain"
)

// handleOffer answers a remote offer: apply it, create an answer, apply the
// answer locally and send it back.
func (s *session) handleOffer(ctx context.Context, m inbound) {
	offer, err := domain.NewSessionDescription(domain.SDPTypeOffer, m.SDP)
	if err != nil {
		s.sendError(msgOffer, err)
		return
	}
	if _, err := s.conn.SetRemoteDescription(offer).Await(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("apply remote offer")
		s.sendError(msgOffer, err)
		return
	}
	answer, err := s.conn.CreateAnswer(m.Constraints).Await(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("create answer")
		s.sendError(msgOffer, err)
		return
	}
	if _, err := s.conn.SetLocalDescription(answer).Await(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("apply local answer")
		s.sendError(msgOffer, err)
		return
	}
	s.sendDescription(answer)
}

func (s *session) handleAnswer(ctx context.Context, m inbound) {
	answer, err := domain.NewSessionDescription(domain.SDPTypeAnswer, m.SDP)
	if err != nil {
		s.sendError(msgAnswer, err)
		return
	}
	if _, err := s.conn.SetRemoteDescription(answer).Await(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("apply remote answer")
		s.sendError(msgAnswer, err)
	}
}

func (s *session) handleCandidate(ctx context.Context, m inbound) {
	var cand *domain.ICECandidate
	if in := m.candidateInit(); in != nil {
		c, err := domain.NewICECandidate(*in)
		if err != nil {
			s.sendError(msgCandidate, err)
			return
		}
		cand = &c
	}
	if _, err := s.conn.AddICECandidate(cand).Await(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("add ice candidate")
		s.sendError(msgCandidate, err)
	}
}

// renegotiate sends a fresh offer when the connection asks for one. While an
// offer/answer exchange is under way it is deferred until signaling returns
// to stable.
func (s *session) renegotiate(ctx context.Context) {
	if st := s.conn.SignalingState(); st != domain.SignalingStable {
		s.pendingRenegotiation.Store(true)
		// stable may have landed between the read and the store
		if s.conn.SignalingState() != domain.SignalingStable || !s.pendingRenegotiation.CompareAndSwap(true, false) {
			s.logger.Debug().Str("signaling_state", string(st)).Msg("renegotiation deferred")
			return
		}
	}
	s.pendingRenegotiation.Store(false)
	offer, err := s.conn.CreateOffer(domain.MediaConstraints{}).Await(ctx)
	if err != nil {
		s.sendError("renegotiate", err)
		return
	}
	if _, err := s.conn.SetLocalDescription(offer).Await(ctx); err != nil {
		s.sendError("renegotiate", err)
		return
	}
	s.sendDescription(offer)
}

func (s *session) handleAddStream(m inbound) {
	if m.StreamID == "" {
		s.sendJSON(outbound{Type: msgError, Op: msgAddStream, Error: "empty stream id"})
		return
	}
	s.conn.AddStream(domain.MediaStream{ID: m.StreamID})
}

func (s *session) handleRemoveStream(m inbound) {
	if m.StreamID == "" {
		s.sendJSON(outbound{Type: msgError, Op: msgRemoveStream, Error: "empty stream id"})
		return
	}
	s.conn.RemoveStream(domain.MediaStream{ID: m.StreamID})
}
