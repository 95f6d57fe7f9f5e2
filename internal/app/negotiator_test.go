package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/core/mocks"
	"github.com/dkeye/audioingest/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNegotiateReturnsAnswer(t *testing.T) {
	h := newHarness(t)
	h.expectEngine(h.newConn(nil))

	answer, err := h.neg.Negotiate(context.Background(), validOffer())
	require.NoError(t, err)

	assert.Equal(t, domain.SDPTypeAnswer, answer.Type)
	assert.NotEmpty(t, answer.SDP)
	assert.Equal(t, 1, h.registry.Len())
}

func TestNegotiateTwiceRegistersTwoSessions(t *testing.T) {
	h := newHarness(t)
	first, second := h.newConn(nil), h.newConn(nil)
	h.expectEngine(first, second)

	_, err := h.neg.Negotiate(context.Background(), validOffer())
	require.NoError(t, err)
	_, err = h.neg.Negotiate(context.Background(), validOffer())
	require.NoError(t, err)

	require.Equal(t, 2, h.registry.Len())
	assert.NotEqual(t, first.session(t, h.registry).ID, second.session(t, h.registry).ID)
}

func TestNegotiateRejectsInvalidOffer(t *testing.T) {
	cases := map[string]domain.SessionDescription{
		"missing sdp":   {Type: domain.SDPTypeOffer},
		"blank sdp":     {SDP: "  \r\n", Type: domain.SDPTypeOffer},
		"answer type":   {SDP: testOfferSDP, Type: domain.SDPTypeAnswer},
		"missing type":  {SDP: testOfferSDP},
		"malformed sdp": {SDP: "hello world", Type: domain.SDPTypeOffer},
	}
	for name, offer := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.neg.Negotiate(context.Background(), offer)
			require.ErrorIs(t, err, domain.ErrInvalidOffer)
			assert.Zero(t, h.registry.Len())
		})
	}
}

func TestNegotiateEngineFailureRegistersNothing(t *testing.T) {
	h := newHarness(t)
	h.engine.EXPECT().NewConnection(gomock.Any()).Return(nil, errors.New("no sockets"))

	_, err := h.neg.Negotiate(context.Background(), validOffer())
	require.ErrorIs(t, err, domain.ErrNegotiation)
	assert.Zero(t, h.registry.Len())
}

func TestNegotiateAnswerFailureKeepsSessionRegistered(t *testing.T) {
	h := newHarness(t)
	h.expectEngine(h.newConn(context.DeadlineExceeded))

	_, err := h.neg.Negotiate(context.Background(), validOffer())
	require.ErrorIs(t, err, domain.ErrNegotiation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, h.registry.Len())
}

func TestNegotiateStartFailure(t *testing.T) {
	h := newHarness(t)
	conn := mocks.NewMockMediaConnection(h.ctrl)
	conn.EXPECT().OnConnectionStateChange(gomock.Any())
	conn.EXPECT().OnTrack(gomock.Any())
	conn.EXPECT().Start(gomock.Any()).Return(errors.New("start"))
	h.engine.EXPECT().NewConnection(gomock.Any()).Return(conn, nil)

	_, err := h.neg.Negotiate(context.Background(), validOffer())
	require.ErrorIs(t, err, domain.ErrNegotiation)
	assert.Equal(t, 1, h.registry.Len())
}

func TestNegotiateConcurrent(t *testing.T) {
	const n = 16
	h := newHarness(t)
	probes := make([]*connProbe, n)
	for i := range probes {
		probes[i] = h.newConn(nil)
	}
	h.expectEngine(probes...)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.neg.Negotiate(context.Background(), validOffer())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, n, h.registry.Len())
	seen := make(map[core.SessionID]bool, n)
	for _, s := range h.registry.Snapshot() {
		assert.False(t, seen[s.ID], "duplicate session %s", s.ID)
		seen[s.ID] = true
	}
}

func newTrack(ctrl *gomock.Controller, id string, kind webrtc.RTPCodecType) *mocks.MockRemoteTrack {
	tr := mocks.NewMockRemoteTrack(ctrl)
	tr.EXPECT().ID().Return(id).AnyTimes()
	tr.EXPECT().Kind().Return(kind).AnyTimes()
	return tr
}

func TestOnTrackBindsFirstAudioTrack(t *testing.T) {
	h := newHarness(t)
	probe := h.newConn(nil)
	h.expectEngine(probe)

	_, err := h.neg.Negotiate(context.Background(), validOffer())
	require.NoError(t, err)
	sess := probe.session(t, h.registry)

	probe.track(context.Background(), newTrack(h.ctrl, "video-1", webrtc.RTPCodecTypeVideo))
	assert.False(t, sess.Sink.IsBound())

	probe.track(context.Background(), newTrack(h.ctrl, "audio-1", webrtc.RTPCodecTypeAudio))
	probe.track(context.Background(), newTrack(h.ctrl, "audio-2", webrtc.RTPCodecTypeAudio))

	require.True(t, sess.Sink.IsBound())
	assert.Equal(t, "audio-1", sess.Sink.Track().ID())
}
