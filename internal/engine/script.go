package engine

import (
	"fmt"

	"novacall/internal/task"
	"novacall/internal/transcript"
)

type scriptLine struct {
	role transcript.Role
	text string
}

// scriptFor produces the fixed utterance sequence for the simulated call:
// dial announcement, optional consent disclaimer, greeting, simulated callee
// acknowledgment, statement of intent, then any talking points.
func scriptFor(t task.CallTask) []scriptLine {
	lines := []scriptLine{
		{
			role: transcript.RoleSystem,
			text: fmt.Sprintf("Dialing %s using voice model %s.", t.TargetPhone, t.VoiceModelID),
		},
	}

	if t.ConsentRequired {
		lines = append(lines, scriptLine{
			role: transcript.RoleAssistant,
			text: "This call may be recorded for quality purposes.",
		})
	}

	lines = append(lines,
		scriptLine{
			role: transcript.RoleAssistant,
			text: "Hello! This is an automated assistant calling on behalf of the account holder.",
		},
		scriptLine{
			role: transcript.RoleCallee,
			text: "Hi, how can I help you?",
		},
		scriptLine{
			role: transcript.RoleAssistant,
			text: fmt.Sprintf("I'm calling to %s.", t.Intent),
		},
	)

	for _, point := range t.TalkingPoints {
		lines = append(lines, scriptLine{role: transcript.RoleAssistant, text: point})
	}

	return lines
}
