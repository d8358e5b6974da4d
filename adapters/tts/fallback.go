package tts

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// FallbackSynthesizer wraps a primary network synthesizer with a local
// offline engine. When the primary fails, or reports success but its stream
// closes without a single audio chunk, the same text is retried through the
// fallback engine exactly once.
type FallbackSynthesizer struct {
	primary  repositories.SpeechSynthesizer
	fallback repositories.SpeechSynthesizer
	logger   *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*FallbackSynthesizer)(nil)

func NewFallbackSynthesizer(primary, fallback repositories.SpeechSynthesizer, logger *zap.Logger) *FallbackSynthesizer {
	return &FallbackSynthesizer{primary: primary, fallback: fallback, logger: logger}
}

func (f *FallbackSynthesizer) Synthesize(ctx context.Context, text string) (*repositories.Synthesis, error) {
	primary, err := f.primary.Synthesize(ctx, text)
	if err != nil {
		f.logger.Warn("Primary synthesis failed, retrying with fallback engine", zap.Error(err))
		return f.synthesizeFallback(ctx, text)
	}

	// The decision between primary and fallback has to be made before any
	// audio is handed to the caller, so wait for the first chunk here.
	first, ok := <-primary.Chunks
	if !ok {
		f.logger.Warn("Primary synthesis produced no audio, retrying with fallback engine")
		return f.synthesizeFallback(ctx, text)
	}

	out := make(chan []byte, 10)
	go func() {
		defer close(out)
		out <- first
		for chunk := range primary.Chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &repositories.Synthesis{Format: primary.Format, Chunks: out}, nil
}

func (f *FallbackSynthesizer) synthesizeFallback(ctx context.Context, text string) (*repositories.Synthesis, error) {
	synthesis, err := f.fallback.Synthesize(ctx, text)
	if err != nil {
		return nil, entities.Faultf(entities.FaultSynthesis, "both synthesis engines failed: %v", err)
	}
	return synthesis, nil
}
