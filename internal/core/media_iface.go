package core

//go:generate mockgen -source=media_iface.go -destination=mocks/media_mock.go -package=mocks

import (
	"context"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// MediaEngine creates peer connections. ICE, DTLS, SRTP and RTP live behind it.
type MediaEngine interface {
	NewConnection(sid SessionID) (MediaConnection, error)
}

type MediaConnection interface {
	// Start installs the engine callbacks and binds track contexts to ctx.
	// Handlers must be set before Start.
	Start(ctx context.Context) error
	// ApplyOfferAndCreateAnswer applies the remote offer, then creates and commits the local answer.
	ApplyOfferAndCreateAnswer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	ConnectionState() webrtc.PeerConnectionState
	// OnConnectionStateChange sets a callback for peer connection state notifications.
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track RemoteTrack))
	// Close releases all transport resources.
	Close() error
}

// RemoteTrack is the inbound side of a media track. *webrtc.TrackRemote satisfies it.
type RemoteTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
	Codec() webrtc.RTPCodecParameters
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}
