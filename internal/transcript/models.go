package transcript

import "time"

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleCallee    Role = "callee"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAssistant, RoleCallee, RoleSystem:
		return true
	default:
		return false
	}
}

// Entry is one timestamped utterance or system note of a call.
//
// Entries are append-only: never mutated, never deleted. For a given call_id,
// insertion order reconstructs the call narrative. At most one entry carries a
// non-empty Outcome, and it is the final entry of the call.
type Entry struct {
	ID        string    `json:"id,omitempty"`
	CallID    string    `json:"call_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   string    `json:"outcome,omitempty"`
}
