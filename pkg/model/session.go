package model

// SessionStatus enumerates the client session lifecycle. The client holds
// at most one session value and transitions only on backend-confirmed
// start/stop, so there is no optimistic intermediate state.
type SessionStatus string

const (
	StatusIdle   SessionStatus = "IDLE"
	StatusActive SessionStatus = "ACTIVE"
	StatusEnded  SessionStatus = "ENDED"
)

// Session is a tagged value with three shapes: Idle (no fields),
// Active (SessionID + StartedAt), Ended (SessionID). Consumers switch on
// Status exhaustively; fields outside the active shape are zero.
type Session struct {
	Status    SessionStatus `json:"status"`
	SessionID string        `json:"sessionId,omitempty"`
	StartedAt int64         `json:"startedAt,omitempty"`
}

// IdleSession returns the idle session value.
func IdleSession() Session {
	return Session{Status: StatusIdle}
}

// ActiveSession returns an active session confirmed by the backend.
// startedAt is the backend's epoch-millisecond timestamp.
func ActiveSession(sessionID string, startedAt int64) Session {
	return Session{Status: StatusActive, SessionID: sessionID, StartedAt: startedAt}
}

// EndedSession returns an ended session awaiting recap dismissal.
func EndedSession(sessionID string) Session {
	return Session{Status: StatusEnded, SessionID: sessionID}
}
