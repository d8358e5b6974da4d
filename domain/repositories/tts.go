package repositories

import "context"

// AudioFormat describes a stream of 16-bit little-endian PCM.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// Synthesis is an in-flight text-to-speech conversion. Chunks closes when the
// audio is exhausted.
type Synthesis struct {
	Format AudioFormat
	Chunks <-chan []byte
}

// SpeechSynthesizer converts text to a PCM stream without blocking the caller
// beyond the first chunk.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (*Synthesis, error)
}
