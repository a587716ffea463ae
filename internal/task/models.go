package task

import "time"

// CallTask is a requested outbound call: who to call, why, and with which
// voice profile. Planning data (script, talking points, fallback conditions)
// is immutable after creation; only Status changes, and only through the
// execution engine or an explicit status update.
type CallTask struct {
	ID          string `json:"id"`
	TargetPhone string `json:"target_phone"`
	Intent      string `json:"intent"`

	Script             string   `json:"script,omitempty"`
	TalkingPoints      []string `json:"talking_points,omitempty"`
	FallbackConditions []string `json:"fallback_conditions,omitempty"`

	VoiceModelID    string `json:"voice_model_id"`
	ConsentRequired bool   `json:"consent_required"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// NewCallTask carries the caller-supplied fields of a task; id, status and
// created_at are assigned by the repository.
type NewCallTask struct {
	TargetPhone        string   `json:"target_phone"`
	Intent             string   `json:"intent"`
	Script             string   `json:"script,omitempty"`
	TalkingPoints      []string `json:"talking_points,omitempty"`
	FallbackConditions []string `json:"fallback_conditions,omitempty"`
	VoiceModelID       string   `json:"voice_model_id"`
	ConsentRequired    bool     `json:"consent_required"`
}
