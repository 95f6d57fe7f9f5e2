package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/audioingest/internal/adapters/http"
	"github.com/dkeye/audioingest/internal/adapters/rtc"
	"github.com/dkeye/audioingest/internal/app"
	"github.com/dkeye/audioingest/internal/app/audio"
	"github.com/dkeye/audioingest/internal/config"
	"github.com/dkeye/audioingest/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	engine, err := rtc.NewEngine(rtc.EngineConfig{
		STUNServers:   cfg.STUNServers,
		UDPPortMin:    cfg.UDPPortMin,
		UDPPortMax:    cfg.UDPPortMax,
		PublicIPs:     cfg.PublicIPs,
		LoggerFactory: rtc.LoggerFactory{Base: log.Logger},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build webrtc engine")
	}
	if cfg.RecordDir != "" {
		if err := os.MkdirAll(cfg.RecordDir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.RecordDir).Msg("failed to create record dir")
		}
	}

	reg := app.NewRegistry(m)
	neg := &app.Negotiator{
		Engine:   engine,
		Registry: reg,
		Observer: &app.Observer{Registry: reg, Metrics: m},
		Recorder: &audio.Recorder{Dir: cfg.RecordDir},
		Metrics:  m,
		BaseCtx:  ctx,
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router.SetupRouter(cfg, neg, reg, promReg),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Msg("audioingest server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			errs = append(errs, err)
		}
		if err := app.Shutdown(shutdownCtx, reg, m); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
