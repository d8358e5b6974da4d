package repositories

import "context"

// SpeechRecognizer abstracts speech recognition services.
type SpeechRecognizer interface {
	// Recognize converts a captured utterance to text. An empty string with a
	// nil error means the service heard no speech; service failures are
	// returned as recognition faults, never as empty text.
	Recognize(ctx context.Context, audio []byte, config AudioConfig) (string, error)
}

// AudioConfig describes captured audio handed to recognition.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}
