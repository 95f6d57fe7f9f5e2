// Package domain contains entity without logic, just meta-data
package domain

import "time"

const (
	SDPTypeOffer    = "offer"
	SDPTypeAnswer   = "answer"
	SDPTypePranswer = "pranswer"
	SDPTypeRollback = "rollback"
)

// SessionDescription is the offer/answer payload exchanged with the remote peer.
type SessionDescription struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// SessionInfo is a read-only view of a registered session for APIs (no transport fields).
type SessionInfo struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	AudioBound bool      `json:"audio_bound"`
}
