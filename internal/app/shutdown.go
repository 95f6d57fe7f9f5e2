package app

import (
	"context"

	"github.com/dkeye/audioingest/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Shutdown drains the registry and closes every session concurrently.
// All closes run to completion; their failures come back joined.
func Shutdown(ctx context.Context, reg *Registry, m *metrics.Metrics) error {
	sessions := reg.Drain()
	log.Info().Str("module", "app.shutdown").Int("sessions", len(sessions)).Msg("closing sessions")

	p := pool.New().WithErrors().WithContext(ctx)
	for _, sess := range sessions {
		p.Go(func(context.Context) error {
			err := sess.Close()
			m.Closed(metrics.ReasonShutdown, err)
			if err != nil {
				log.Error().Err(err).Str("module", "app.shutdown").Str("sid", string(sess.ID)).Msg("close error")
				return err
			}
			log.Info().Str("module", "app.shutdown").Str("sid", string(sess.ID)).Msg("closed")
			return nil
		})
	}
	err := p.Wait()
	if err != nil {
		log.Warn().Err(err).Str("module", "app.shutdown").Msg("shutdown finished with close errors")
	}
	return err
}
