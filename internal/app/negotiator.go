package app

import (
	"context"
	"fmt"

	"github.com/dkeye/audioingest/internal/app/audio"
	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/domain"
	"github.com/dkeye/audioingest/internal/metrics"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Negotiator turns a remote offer into a registered session and a local answer.
type Negotiator struct {
	Engine   core.MediaEngine
	Registry *Registry
	Observer *Observer
	// Recorder drains bound audio tracks; nil leaves frames for other consumers.
	Recorder *audio.Recorder
	Metrics  *metrics.Metrics
	// BaseCtx parents every session context. Defaults to context.Background.
	BaseCtx context.Context
}

// Negotiate validates offer, creates and registers one session, and returns its answer.
// A session whose negotiation fails stays registered until it reports failed or
// the process shuts down.
func (n *Negotiator) Negotiate(ctx context.Context, offer domain.SessionDescription) (domain.SessionDescription, error) {
	if err := ValidateOffer(offer); err != nil {
		n.Metrics.Negotiation(metrics.ResultInvalid)
		log.Warn().Err(err).Str("module", "app.negotiator").Msg("rejected offer")
		return domain.SessionDescription{}, err
	}

	sid := core.SessionID(uuid.NewString())
	logger := log.With().Str("module", "app.negotiator").Str("sid", string(sid)).Logger()

	conn, err := n.Engine.NewConnection(sid)
	if err != nil {
		n.Metrics.Negotiation(metrics.ResultFailed)
		logger.Error().Err(err).Msg("webrtc new pc")
		return domain.SessionDescription{}, fmt.Errorf("%w: %w", domain.ErrNegotiation, err)
	}

	base := n.BaseCtx
	if base == nil {
		base = context.Background()
	}
	sess := NewSession(base, sid, conn)
	n.Registry.Add(sess)
	n.BindMediaHandlers(sess)

	if err := conn.Start(sess.Context()); err != nil {
		n.Metrics.Negotiation(metrics.ResultFailed)
		logger.Error().Err(err).Msg("webrtc start")
		return domain.SessionDescription{}, fmt.Errorf("%w: %w", domain.ErrNegotiation, err)
	}

	answer, err := conn.ApplyOfferAndCreateAnswer(ctx, webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer.SDP,
	})
	if err != nil {
		n.Metrics.Negotiation(metrics.ResultFailed)
		logger.Error().Err(err).Msg("webrtc apply offer")
		return domain.SessionDescription{}, fmt.Errorf("%w: %w", domain.ErrNegotiation, err)
	}
	if answer == nil || answer.SDP == "" {
		n.Metrics.Negotiation(metrics.ResultFailed)
		logger.Error().Msg("webrtc empty answer")
		return domain.SessionDescription{}, fmt.Errorf("%w: empty local description", domain.ErrNegotiation)
	}

	n.Metrics.Negotiation(metrics.ResultOK)
	logger.Info().Int("answer_len", len(answer.SDP)).Msg("negotiated")
	return domain.SessionDescription{SDP: answer.SDP, Type: answer.Type.String()}, nil
}

func (n *Negotiator) BindMediaHandlers(sess *Session) {
	sid := sess.ID
	sess.Conn.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if n.Observer != nil {
			n.Observer.OnStateChange(sid, s)
		}
	})
	sess.Conn.OnTrack(func(trackCtx context.Context, track core.RemoteTrack) {
		n.OnTrack(trackCtx, sess, track)
	})
}

// OnTrack binds the first inbound audio track into the session sink. Other tracks are ignored.
func (n *Negotiator) OnTrack(ctx context.Context, sess *Session, track core.RemoteTrack) {
	logger := log.With().
		Str("module", "app.negotiator").
		Str("sid", string(sess.ID)).
		Str("kind", track.Kind().String()).
		Str("track_id", track.ID()).
		Logger()

	if track.Kind() != webrtc.RTPCodecTypeAudio {
		n.Metrics.AudioTrack(metrics.TrackIgnored)
		logger.Info().Msg("ignoring non-audio track")
		return
	}
	if !sess.Sink.BindTrack(track) {
		n.Metrics.AudioTrack(metrics.TrackIgnored)
		logger.Info().Msg("audio track already bound, ignoring")
		return
	}
	n.Metrics.AudioTrack(metrics.TrackBound)
	logger.Info().Msg("audio track bound")

	if n.Recorder != nil {
		go n.Recorder.Run(ctx, sess.ID, sess.Sink)
	}
}
