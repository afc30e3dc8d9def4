package events

import "time"

const (
	TypeSpecGenerated        = "SPEC_GENERATED"
	TypeSpecSaved            = "SPEC_SAVED"
	TypeSessionStatusChanged = "SESSION_STATUS_CHANGED"
)

func NewSpecGenerated(analysisID string, warnings int) BaseEvent {
	return BaseEvent{
		Type: TypeSpecGenerated,
		Data: map[string]interface{}{
			"analysis_id": analysisID,
			"warnings":    warnings,
		},
		OccurredAt: time.Now(),
	}
}

func NewSpecSaved(analysisID, path string) BaseEvent {
	return BaseEvent{
		Type: TypeSpecSaved,
		Data: map[string]interface{}{
			"analysis_id": analysisID,
			"path":        path,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionStatusChanged(analysisID, state string, unresolved []string) BaseEvent {
	return BaseEvent{
		Type: TypeSessionStatusChanged,
		Data: map[string]interface{}{
			"analysis_id": analysisID,
			"state":       state,
			"unresolved":  unresolved,
		},
		OccurredAt: time.Now(),
	}
}
