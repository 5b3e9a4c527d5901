package core

// SessionID identifies a browser client (cookie token), not a peer connection.
type SessionID string
