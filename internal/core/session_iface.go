package core

// SessionID identifies one peer connection handle for its whole lifetime.
type SessionID string
