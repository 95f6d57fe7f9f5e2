package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/dkeye/audioingest/internal/app"
	"github.com/dkeye/audioingest/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Negotiator interface {
	Negotiate(ctx context.Context, offer domain.SessionDescription) (domain.SessionDescription, error)
}

type Handler struct {
	Negotiator       Negotiator
	Registry         *app.Registry
	NegotiateTimeout time.Duration
}

// Offer handles POST /offer: {"sdp","type"} in, the answer out.
func (h *Handler) Offer(c *gin.Context) {
	var req domain.SessionDescription
	if err := c.ShouldBindJSON(&req); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInvalidOffer, err)
		log.Warn().Err(err).Str("module", "adapters.http").Msg("bad offer payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.NegotiateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.NegotiateTimeout)
		defer cancel()
	}

	answer, err := h.Negotiator.Negotiate(ctx, req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, answer)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOffer):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sessions lists registered sessions, oldest first.
func (h *Handler) Sessions(c *gin.Context) {
	snap := h.Registry.Snapshot()
	out := make([]domain.SessionInfo, 0, len(snap))
	for _, s := range snap {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}
