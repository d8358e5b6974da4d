package usecase

import "github.com/satriahrh/nova/domain/entities"

// EventType tags a controller event pushed to the avatar UI.
type EventType string

const (
	EventState      EventType = "state"
	EventRecognized EventType = "recognized"
	EventReply      EventType = "reply"
	EventSummary    EventType = "summary"
	EventError      EventType = "error"
)

// Event is a status update for the control surface: state changes,
// recognized text, reply text, pause summaries, and surfaced errors.
type Event struct {
	Type  EventType             `json:"type"`
	State entities.SessionState `json:"state,omitempty"`
	Text  string                `json:"text,omitempty"`
	Error string                `json:"error,omitempty"`
	Kind  entities.FaultKind    `json:"kind,omitempty"`
}
