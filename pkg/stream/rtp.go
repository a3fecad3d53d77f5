package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
)

// PayloadTypeL16 is the dynamic RTP payload type used for L16 audio.
const PayloadTypeL16 = 96

// RTPSender sends a Source as L16 RTP packets over UDP. Samples are
// big-endian per RFC 3551; the RTP clock is the output sample rate.
type RTPSender struct {
	conn   net.Conn
	source *Source
	frame  time.Duration
	logger *slog.Logger

	ssrc      uint32
	seq       uint16
	timestamp uint32
	sent      uint64
}

// NewRTPSender dials addr (host:port) over UDP. The source must use the L16
// encoding.
func NewRTPSender(addr string, source *Source, frame time.Duration, logger *slog.Logger) (*RTPSender, error) {
	if source.Format().Encoding != pcm.L16 {
		return nil, fmt.Errorf("stream: rtp needs L16, got %v", source.Format().Encoding)
	}
	if frame <= 0 {
		frame = DefaultFrameDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("stream: dial rtp %s: %w", addr, err)
	}
	// Random initial values per RFC 3550.
	return &RTPSender{
		conn:      conn,
		source:    source,
		frame:     frame,
		logger:    logger,
		ssrc:      rand.Uint32(),
		seq:       uint16(rand.UintN(math.MaxUint16 + 1)),
		timestamp: rand.Uint32(),
	}, nil
}

// SSRC returns the synchronization source identifier.
func (r *RTPSender) SSRC() uint32 {
	return r.ssrc
}

// Packet builds the next packet without sending it.
func (r *RTPSender) Packet() (*rtp.Packet, error) {
	samples, err := r.source.Frame()
	if err != nil {
		return nil, err
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         r.sent == 0,
			PayloadType:    PayloadTypeL16,
			SequenceNumber: r.seq,
			Timestamp:      r.timestamp,
			SSRC:           r.ssrc,
		},
		Payload: encodeL16BE(samples),
	}
	r.seq++
	r.timestamp += uint32(r.source.FrameSamples())
	r.sent++
	return pkt, nil
}

// Run sends one packet per frame duration until ctx is done.
func (r *RTPSender) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()
	r.logger.Info("stream: rtp sending", "to", r.conn.RemoteAddr().String(), "ssrc", r.ssrc, "format", r.source.Format())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stream: rtp stopped", "packets", r.sent)
			return ctx.Err()
		case <-ticker.C:
			pkt, err := r.Packet()
			if err != nil {
				return err
			}
			data, err := pkt.Marshal()
			if err != nil {
				return err
			}
			if _, err := r.conn.Write(data); err != nil {
				return fmt.Errorf("stream: rtp write: %w", err)
			}
		}
	}
}

// Close closes the UDP socket.
func (r *RTPSender) Close() error {
	return r.conn.Close()
}

func encodeL16BE(samples []float32) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.BigEndian.AppendUint16(out, uint16(int16(math.Round(float64(pcm.Clamp(s))*32767))))
	}
	return out
}
