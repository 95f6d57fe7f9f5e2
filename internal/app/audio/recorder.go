package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FrameWriter consumes inbound RTP frames. *oggwriter.OggWriter satisfies it.
type FrameWriter interface {
	WriteRTP(pkt *rtp.Packet) error
	Close() error
}

type discardWriter struct{}

func (discardWriter) WriteRTP(*rtp.Packet) error { return nil }
func (discardWriter) Close() error               { return nil }

// Discard accepts and drops every frame.
var Discard FrameWriter = discardWriter{}

// Recorder drains a bound sink into a FrameWriter.
// With an empty Dir every track goes to Discard.
type Recorder struct {
	Dir string
}

// WriterFor picks where a track's frames go: <Dir>/<sid>.ogg for Opus, Discard otherwise.
func (r Recorder) WriterFor(sid core.SessionID, track core.RemoteTrack) (FrameWriter, error) {
	if r.Dir == "" || track == nil {
		return Discard, nil
	}
	codec := track.Codec()
	if !strings.EqualFold(codec.MimeType, webrtc.MimeTypeOpus) {
		return Discard, nil
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, err
	}
	return oggwriter.New(filepath.Join(r.Dir, string(sid)+".ogg"), codec.ClockRate, codec.Channels)
}

// Run records the sink's track until ctx is done or the track ends.
func (r Recorder) Run(ctx context.Context, sid core.SessionID, sink *Sink) {
	logger := log.With().
		Str("module", "app.audio").
		Str("sid", string(sid)).
		Logger()

	w, err := r.WriterFor(sid, sink.Track())
	if err != nil {
		logger.Error().Err(err).Msg("recorder writer")
		return
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error().Err(err).Msg("recorder close")
		}
	}()

	n, err := Pump(ctx, sink, w, &logger)
	if err != nil {
		logger.Error().Err(err).Int("frames", n).Msg("recorder stopped")
		return
	}
	logger.Info().Int("frames", n).Msg("recorder finished")
}

// Pump reads frames from sink and writes them to w. A track that ends or a
// cancelled ctx is a clean stop; a write failure is returned.
func Pump(ctx context.Context, sink *Sink, w FrameWriter, logger *zerolog.Logger) (int, error) {
	n := 0
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("recorder ctx done")
			return n, nil
		default:
		}
		pkt, err := sink.NextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || ctx.Err() != nil {
				return n, nil
			}
			return n, err
		}
		if err := w.WriteRTP(pkt); err != nil {
			return n, err
		}
		n++
	}
}
