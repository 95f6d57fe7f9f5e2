package rtc

import (
	"fmt"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

type EngineConfig struct {
	STUNServers []string
	UDPPortMin  uint16
	UDPPortMax  uint16
	PublicIPs   []string
	// LoggerFactory receives pion's internal logs. Nil keeps pion's default logger.
	LoggerFactory logging.LoggerFactory
}

// Engine builds peer connections from a single pion API.
type Engine struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

func DefaultWebRTCConfig(stunServers []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	if len(stunServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: stunServers}}
	}
	return cfg
}

func NewEngine(ec EngineConfig) (*Engine, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, ir); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if ec.LoggerFactory != nil {
		se.LoggerFactory = ec.LoggerFactory
	}
	if ec.UDPPortMax != 0 {
		if err := se.SetEphemeralUDPPortRange(ec.UDPPortMin, ec.UDPPortMax); err != nil {
			return nil, fmt.Errorf("udp port range: %w", err)
		}
	}
	if len(ec.PublicIPs) > 0 {
		se.SetNAT1To1IPs(ec.PublicIPs, webrtc.ICECandidateTypeHost)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(ir),
		webrtc.WithSettingEngine(se),
	)
	return &Engine{api: api, cfg: DefaultWebRTCConfig(ec.STUNServers)}, nil
}

func (e *Engine) NewConnection(sid core.SessionID) (core.MediaConnection, error) {
	return NewWebRTCConnection(e.api, e.cfg, sid)
}
