package app

import (
	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Observer reacts to connection state notifications. Only the failed state
// has a registry side effect.
type Observer struct {
	Registry *Registry
	Metrics  *metrics.Metrics
}

func (o *Observer) OnStateChange(sid core.SessionID, state webrtc.PeerConnectionState) {
	log.Info().Str("module", "app.observer").Str("sid", string(sid)).Str("peer_connection_state", state.String()).Msg("Peer state")
	if state != webrtc.PeerConnectionStateFailed {
		return
	}
	o.CloseFailed(sid)
}

// CloseFailed closes sid and removes it from the registry.
// It reports false when the session was already gone.
func (o *Observer) CloseFailed(sid core.SessionID) bool {
	sess, ok := o.Registry.Take(sid)
	if !ok {
		return false
	}
	err := sess.Close()
	o.Metrics.Closed(metrics.ReasonFailed, err)
	if err != nil {
		log.Error().Err(err).Str("module", "app.observer").Str("sid", string(sid)).Msg("close failed session")
	} else {
		log.Info().Str("module", "app.observer").Str("sid", string(sid)).Msg("closed failed session")
	}
	return true
}
