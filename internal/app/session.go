package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/audioingest/internal/app/audio"
	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/domain"
)

// Session is one registered peer connection handle and its audio sink.
type Session struct {
	ID        core.SessionID
	Conn      core.MediaConnection
	Sink      *audio.Sink
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

func NewSession(parent context.Context, sid core.SessionID, conn core.MediaConnection) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:        sid,
		Conn:      conn,
		Sink:      audio.NewSink(),
		CreatedAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Context is cancelled when the session is closed.
func (s *Session) Context() context.Context { return s.ctx }

// Close releases the connection. Only the first call reaches the engine;
// later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if err := s.Conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("%w: session %s: %w", domain.ErrClose, s.ID, err)
		}
		s.closed.Store(true)
	})
	return s.closeErr
}

func (s *Session) Closed() bool { return s.closed.Load() }

func (s *Session) Info() domain.SessionInfo {
	state := "closed"
	if !s.Closed() {
		state = s.Conn.ConnectionState().String()
	}
	return domain.SessionInfo{
		ID:         string(s.ID),
		State:      state,
		CreatedAt:  s.CreatedAt,
		AudioBound: s.Sink.IsBound(),
	}
}
