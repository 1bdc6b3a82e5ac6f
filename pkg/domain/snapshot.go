package domain

// Snapshot captures the resumable part of a flow session: where the cursor
// is and what every variable holds. Snapshots are only taken outside shadow
// operations, so the values are always committed state.
type Snapshot struct {
	// SessionID identifies the session in a StateStore.
	SessionID string `json:"session_id"`

	// Cursor is the node the player is positioned on.
	Cursor Ref `json:"cursor"`

	// Variables maps full variable names to their committed values
	// (bool, int64 or string).
	Variables map[string]any `json:"variables"`
}

// NewSnapshot returns an empty snapshot for a session.
func NewSnapshot(sessionID string) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Variables: make(map[string]any),
	}
}

// Clone returns an independent copy, so stores can hand out snapshots
// without aliasing the variables map.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		out.Variables[k] = v
	}
	return &out
}
