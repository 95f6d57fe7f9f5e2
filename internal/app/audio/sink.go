// Package audio holds the inbound audio side of a session: the sink that a remote
// track is bound into, and the recorder that drains it.
package audio

import (
	"context"
	"sync"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/domain"
	"github.com/pion/rtp"
)

// Sink is the seam between track arrival (pushed by the engine) and frame retrieval (pulled by consumers).
type Sink struct {
	mu    sync.RWMutex
	track core.RemoteTrack
	bound chan struct{}
}

func NewSink() *Sink {
	return &Sink{bound: make(chan struct{})}
}

// BindTrack sets the inbound track. Only the first call wins; it reports whether t was bound.
func (s *Sink) BindTrack(t core.RemoteTrack) bool {
	if t == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track != nil {
		return false
	}
	s.track = t
	close(s.bound)
	return true
}

func (s *Sink) Track() core.RemoteTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track
}

func (s *Sink) IsBound() bool {
	return s.Track() != nil
}

// Bound is closed once a track has been bound.
func (s *Sink) Bound() <-chan struct{} {
	return s.bound
}

// NextFrame blocks until the bound track yields an RTP packet.
// Without a bound track it fails immediately with domain.ErrNoTrackBound.
func (s *Sink) NextFrame() (*rtp.Packet, error) {
	t := s.Track()
	if t == nil {
		return nil, domain.ErrNoTrackBound
	}
	pkt, _, err := t.ReadRTP()
	if err != nil {
		return nil, err
	}
	return pkt, nil
}

// WaitFrame waits for a track to be bound, then behaves like NextFrame.
func (s *Sink) WaitFrame(ctx context.Context) (*rtp.Packet, error) {
	select {
	case <-s.bound:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.NextFrame()
}
