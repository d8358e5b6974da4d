package entities

import "strings"

// SessionState is the listen controller's arbitration state. It is owned
// exclusively by the controller's run loop; no other goroutine mutates it.
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionListening  SessionState = "listening"
	SessionProcessing SessionState = "processing"
	SessionSpeaking   SessionState = "speaking"
	SessionPaused     SessionState = "paused"
)

// DeviceSelection names the microphone and speaker to use. Empty IDs select
// the host defaults. Mutations are picked up at the start of the next cycle,
// never mid-cycle.
type DeviceSelection struct {
	MicrophoneID string `json:"microphone_id"`
	SpeakerID    string `json:"speaker_id"`
}

var (
	stopKeywords = map[string]bool{"stop": true, "stop nova": true}
	byeKeywords  = map[string]bool{"bye": true, "bye nova": true}
)

// IsPauseKeyword reports whether the recognized text, case-insensitively,
// is one of the fixed commands that suspend the auto-listen loop.
func IsPauseKeyword(text string) bool {
	key := normalizeKeyword(text)
	return stopKeywords[key] || byeKeywords[key]
}

// ClosingReply picks the spoken acknowledgement for a pause command. The
// "bye" family reads as a goodbye, the "stop" family as going quiet.
func ClosingReply(text string) string {
	if byeKeywords[normalizeKeyword(text)] {
		return "Bye for now! Wave me over when you want to chat again."
	}
	return "Okay, I'll stay quiet. Tap the mic button when you want me listening again."
}

func normalizeKeyword(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
