package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

const keyframeInterval = 3 * time.Second

// TrackStats counts RTP traffic received on one remote track.
// RelayStreamID is the catalogue stream other connections pass to AddStream.
type TrackStats struct {
	StreamID      string `json:"streamId"`
	RelayStreamID string `json:"relayStreamId"`
	TrackID       string `json:"trackId"`
	Kind          string `json:"kind"`
	SSRC          uint32 `json:"ssrc"`
	Packets       uint64 `json:"packets"`
	Bytes         uint64 `json:"bytes"`
	LastSequence  uint16 `json:"lastSequence"`
}

type rtpSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// relayStreamID scopes a remote stream id to the connection it arrived on,
// so peers announcing the same msid stay apart in the catalogue.
func relayStreamID(id domain.ConnID, remote string) string {
	return fmt.Sprintf("%d:%s", id, remote)
}

// Relay drains a remote track and republishes it as a local track in the
// catalogue so other connections can send it.
type Relay struct {
	Src *webrtc.TrackRemote
	Out *webrtc.TrackLocalStaticRTP

	mu    sync.Mutex
	stats TrackStats

	cancel context.CancelFunc
	done   chan struct{}
}

func newRelay(id domain.ConnID, src *webrtc.TrackRemote) (*Relay, error) {
	out, err := webrtc.NewTrackLocalStaticRTP(src.Codec().RTPCodecCapability, src.ID(), relayStreamID(id, src.StreamID()))
	if err != nil {
		return nil, err
	}
	return &Relay{
		Src: src,
		Out: out,
		stats: TrackStats{
			StreamID:      src.StreamID(),
			RelayStreamID: out.StreamID(),
			TrackID:       src.ID(),
			Kind:          src.Kind().String(),
			SSRC:          uint32(src.SSRC()),
		},
		done: make(chan struct{}),
	}, nil
}

// start runs the read loop and, for video, periodic keyframe requests.
// onExit runs once the loop has stopped reading.
func (r *Relay) start(ctx context.Context, pc *webrtc.PeerConnection, logger *zerolog.Logger, onExit func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	if r.Src.Kind() == webrtc.RTPCodecTypeVideo {
		go r.requestKeyframes(ctx, pc, logger)
	}
	go r.loop(ctx, r.Src, logger, onExit)
}

func (r *Relay) loop(ctx context.Context, src rtpSource, logger *zerolog.Logger, onExit func()) {
	defer close(r.done)
	defer onExit()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("relay ctx done")
			return
		default:
		}
		pkt, _, err := src.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info().Msg("remote track ended")
			} else {
				logger.Error().Err(err).Msg("relay read RTP error, stopping")
			}
			return
		}
		r.count(pkt)
		if err := r.Out.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			logger.Warn().Err(err).Msg("relay write RTP error")
		}
	}
}

func (r *Relay) count(pkt *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Packets++
	r.stats.Bytes += uint64(pkt.MarshalSize())
	r.stats.LastSequence = pkt.SequenceNumber
	r.stats.SSRC = pkt.SSRC
}

func (r *Relay) requestKeyframes(ctx context.Context, pc *webrtc.PeerConnection, logger *zerolog.Logger) {
	t := time.NewTicker(keyframeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pli := &rtcp.PictureLossIndication{MediaSSRC: uint32(r.Src.SSRC())}
			if err := pc.WriteRTCP([]rtcp.Packet{pli}); err != nil {
				logger.Debug().Err(err).Msg("keyframe request failed")
				return
			}
		}
	}
}

func (r *Relay) Stats() TrackStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Relay) stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// drainRTCP consumes sender reports so interceptors keep running.
func drainRTCP(sender *webrtc.RTPSender, logger *zerolog.Logger) {
	for {
		pkts, _, err := sender.ReadRTCP()
		if err != nil {
			return
		}
		for _, p := range pkts {
			if _, ok := p.(*rtcp.PictureLossIndication); ok {
				logger.Debug().Msg("remote requested keyframe")
			}
		}
	}
}
