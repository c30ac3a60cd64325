package domain

import "time"

// FrameSnapshot is the serializable view of one stack frame.
type FrameSnapshot struct {
	Flow  string `json:"flow"`
	State string `json:"state"`
}

// Snapshot is a JSON-serializable view of a session, used for persistence
// checkpoints and for the call API.
type Snapshot struct {
	SessionID string                    `json:"session_id"`
	UserID    string                    `json:"user_id,omitempty"`
	Status    SessionStatus             `json:"status"`
	Reason    EndReason                 `json:"reason,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Stack     []FrameSnapshot           `json:"stack,omitempty"`
	Data      map[string]any            `json:"data,omitempty"`
	Vars      map[string]map[string]any `json:"vars,omitempty"`
	History   []string                  `json:"history,omitempty"`
	Steps     int                       `json:"steps"`
	StartedAt time.Time                 `json:"started_at"`
	EndedAt   *time.Time                `json:"ended_at,omitempty"`
}

// Current returns the qualified id ("flow/state") of the innermost active vertex.
func (s *Snapshot) Current() string {
	if len(s.Stack) == 0 {
		return ""
	}
	top := s.Stack[len(s.Stack)-1]
	return top.Flow + "/" + top.State
}

// Terminated reports whether the snapshot describes a finished session.
func (s *Snapshot) Terminated() bool {
	return s.Status != StatusActive
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID: s.ID,
		UserID:    s.UserID,
		Status:    s.Status,
		Reason:    s.Reason,
		Data:      s.Data(),
		History:   append([]string(nil), s.History...),
		Steps:     s.Steps,
		StartedAt: s.StartedAt,
	}
	if s.Err != nil {
		snap.Error = s.Err.Error()
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		snap.EndedAt = &ended
	}
	for _, f := range s.stack {
		fs := FrameSnapshot{}
		if f.Graph != nil {
			fs.Flow = f.Graph.Name()
		} else if f.Flow != nil {
			fs.Flow = f.Flow.Name()
		}
		if f.Current != nil {
			fs.State = f.Current.ID()
		}
		snap.Stack = append(snap.Stack, fs)
	}
	if len(s.vars) > 0 {
		snap.Vars = make(map[string]map[string]any, len(s.vars))
		for owner, scope := range s.vars {
			cp := make(map[string]any, len(scope))
			for k, v := range scope {
				cp[k] = v
			}
			snap.Vars[owner] = cp
		}
	}
	return snap
}
