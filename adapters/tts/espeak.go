package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"os/exec"

	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

const espeakChunkSize = 4096

// EspeakSynthesizer is the local, offline fallback engine. It shells out to
// espeak-ng, decodes the WAV it emits, and streams the PCM.
type EspeakSynthesizer struct {
	binary string
	voice  string
	logger *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*EspeakSynthesizer)(nil)

func NewEspeakSynthesizer(logger *zap.Logger) *EspeakSynthesizer {
	return &EspeakSynthesizer{
		binary: "espeak-ng",
		voice:  "en",
		logger: logger,
	}
}

func (e *EspeakSynthesizer) Synthesize(ctx context.Context, text string) (*repositories.Synthesis, error) {
	cmd := exec.CommandContext(ctx, e.binary, "--stdout", "-v", e.voice, text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, entities.Faultf(entities.FaultSynthesis, "espeak-ng failed: %v: %s", err, stderr.String())
	}

	samples, format, err := decodeWAV(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, entities.Faultf(entities.FaultSynthesis, "espeak-ng produced no audio")
	}

	e.logger.Info("Offline synthesis completed",
		zap.Int("bytes", len(samples)),
		zap.Int("sampleRate", format.SampleRate))

	audioChan := make(chan []byte, 10)
	go func() {
		defer close(audioChan)
		for off := 0; off < len(samples); off += espeakChunkSize {
			end := off + espeakChunkSize
			if end > len(samples) {
				end = len(samples)
			}
			select {
			case audioChan <- samples[off:end]:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &repositories.Synthesis{Format: format, Chunks: audioChan}, nil
}

// decodeWAV extracts 16-bit little-endian PCM from a WAV payload.
func decodeWAV(data []byte) ([]byte, repositories.AudioFormat, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, repositories.AudioFormat{}, entities.Faultf(entities.FaultSynthesis, "decode wav: %v", err)
	}

	pcm := make([]byte, 0, len(buf.Data)*2)
	var scratch [2]byte
	for _, sample := range buf.Data {
		binary.LittleEndian.PutUint16(scratch[:], uint16(int16(sample)))
		pcm = append(pcm, scratch[0], scratch[1])
	}

	format := repositories.AudioFormat{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}
	return pcm, format, nil
}
