package http

import (
	"slices"

	"github.com/dkeye/audioingest/internal/app"
	"github.com/dkeye/audioingest/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

func SetupRouter(cfg *config.Config, neg Negotiator, reg *app.Registry, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	h := &Handler{
		Negotiator:       neg,
		Registry:         reg,
		NegotiateTimeout: cfg.NegotiateTimeout,
	}

	offer := []gin.HandlerFunc{h.Offer}
	if cfg.OfferRateLimit > 0 {
		offer = append([]gin.HandlerFunc{NewOfferRateLimiter(cfg.OfferRateLimit, cfg.OfferRateInterval).Middleware()}, offer...)
	}
	r.POST("/offer", offer...)
	r.GET("/healthz", h.Health)
	r.GET("/sessions", h.Sessions)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	log.Info().Str("module", "adapters.http").Strs("cors_origins", cfg.CORSOrigins).Msg("router setup")
	return r
}
