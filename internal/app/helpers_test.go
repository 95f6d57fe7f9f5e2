package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/core/mocks"
	"github.com/dkeye/audioingest/internal/domain"
	"github.com/dkeye/audioingest/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/mock/gomock"
)

const testOfferSDP = "v=0\r\n" +
	"o=- 4215775240449105457 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"a=group:BUNDLE 0\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:0\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n" +
	"a=sendonly\r\n"

func validOffer() domain.SessionDescription {
	return domain.SessionDescription{SDP: testOfferSDP, Type: domain.SDPTypeOffer}
}

type harness struct {
	ctrl     *gomock.Controller
	engine   *mocks.MockMediaEngine
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
	registry *Registry
	neg      *Negotiator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	reg := NewRegistry(m)
	engine := mocks.NewMockMediaEngine(ctrl)
	return &harness{
		ctrl:     ctrl,
		engine:   engine,
		promReg:  promReg,
		metrics:  m,
		registry: reg,
		neg: &Negotiator{
			Engine:   engine,
			Registry: reg,
			Observer: &Observer{Registry: reg, Metrics: m},
			Metrics:  m,
		},
	}
}

// connProbe is a mocked connection that captures the handlers the negotiator installs.
type connProbe struct {
	conn *mocks.MockMediaConnection

	mu      sync.Mutex
	sid     core.SessionID
	onState func(webrtc.PeerConnectionState)
	onTrack func(context.Context, core.RemoteTrack)
}

func (p *connProbe) state(s webrtc.PeerConnectionState) {
	p.mu.Lock()
	fn := p.onState
	p.mu.Unlock()
	fn(s)
}

func (p *connProbe) track(ctx context.Context, tr core.RemoteTrack) {
	p.mu.Lock()
	fn := p.onTrack
	p.mu.Unlock()
	fn(ctx, tr)
}

func (p *connProbe) session(t *testing.T, reg *Registry) *Session {
	t.Helper()
	p.mu.Lock()
	sid := p.sid
	p.mu.Unlock()
	sess, ok := reg.Get(sid)
	if !ok {
		t.Fatalf("session %s not registered", sid)
	}
	return sess
}

func (h *harness) newConn(answerErr error) *connProbe {
	p := &connProbe{conn: mocks.NewMockMediaConnection(h.ctrl)}
	p.conn.EXPECT().OnConnectionStateChange(gomock.Any()).Do(func(fn func(webrtc.PeerConnectionState)) {
		p.mu.Lock()
		p.onState = fn
		p.mu.Unlock()
	})
	p.conn.EXPECT().OnTrack(gomock.Any()).Do(func(fn func(context.Context, core.RemoteTrack)) {
		p.mu.Lock()
		p.onTrack = fn
		p.mu.Unlock()
	})
	p.conn.EXPECT().Start(gomock.Any()).Return(nil)
	if answerErr != nil {
		p.conn.EXPECT().ApplyOfferAndCreateAnswer(gomock.Any(), gomock.Any()).Return(nil, answerErr)
	} else {
		p.conn.EXPECT().ApplyOfferAndCreateAnswer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
				if offer.Type != webrtc.SDPTypeOffer {
					return nil, errors.New("not an offer")
				}
				return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0\r\ns=answer\r\n"}, nil
			})
	}
	return p
}

// expectEngine makes the engine hand out probes in order.
func (h *harness) expectEngine(probes ...*connProbe) {
	queue := make(chan *connProbe, len(probes))
	for _, p := range probes {
		queue <- p
	}
	h.engine.EXPECT().NewConnection(gomock.Any()).
		DoAndReturn(func(sid core.SessionID) (core.MediaConnection, error) {
			p := <-queue
			p.mu.Lock()
			p.sid = sid
			p.mu.Unlock()
			return p.conn, nil
		}).
		Times(len(probes))
}
