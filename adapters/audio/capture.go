package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

const (
	// CaptureSampleRate is the recognition sample rate; captured WAV is
	// LINEAR16 mono at this rate.
	CaptureSampleRate = 16000
	// CaptureEncoding names the encoding handed to recognition.
	CaptureEncoding = "LINEAR16"

	frameSize = 8196

	// End-of-utterance fires only on this much continuous silence after
	// speech, so long utterances are never truncated.
	trailingSilence = 2 * time.Second

	// Give up when nothing resembling speech arrives within this window.
	noSpeechTimeout = 8 * time.Second

	fluxRatio = 1.75
)

// Capturer records one utterance at a time from the selected microphone.
type Capturer struct {
	fs     afero.Fs
	logger *zap.Logger
}

var _ repositories.UtteranceCapturer = (*Capturer)(nil)

// NewCapturer creates a capturer. The filesystem only holds scratch WAV
// files; a memory filesystem is fine.
func NewCapturer(fs afero.Fs, logger *zap.Logger) *Capturer {
	return &Capturer{fs: fs, logger: logger}
}

// Capture opens the selected microphone and records until the trailing
// silence heuristic ends the utterance, or the no-speech window expires.
// The device selection is resolved fresh on every call so settings changes
// apply on the next cycle.
func (c *Capturer) Capture(ctx context.Context, devices entities.DeviceSelection) (*repositories.Utterance, error) {
	input, err := resolveInputDevice(devices.MicrophoneID)
	if err != nil {
		return nil, err
	}

	in := make([]int16, frameSize)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   input,
			Channels: 1,
			Latency:  input.DefaultLowInputLatency,
		},
		SampleRate:      CaptureSampleRate,
		FramesPerBuffer: frameSize,
	}, in)
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, fmt.Errorf("open microphone %q: %w", input.Name, err))
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}
	defer stream.Stop()

	waveFilename := fmt.Sprintf("utterance_%d.wav", time.Now().UnixNano())
	waveFile, err := c.fs.Create(waveFilename)
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}
	defer c.fs.Remove(waveFilename)

	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    CaptureSampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}

	var (
		heardSomething bool
		quiet          bool
		quietStart     time.Time
		lastFlux       float64
	)

	detector := newVAD(frameSize)
	preRoll := newRingBuffer(frameSize * 2)
	started := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			waveWriter.Close()
			return nil, err
		}

		if err := stream.Read(); err != nil {
			waveWriter.Close()
			return nil, entities.NewFault(entities.FaultDevice, err)
		}

		if !heardSomething {
			preRoll.Add(in)
			if time.Since(started) > noSpeechTimeout {
				waveWriter.Close()
				return &repositories.Utterance{SpeechDetected: false}, nil
			}
		} else {
			if _, err := waveWriter.WriteSample16(in); err != nil {
				waveWriter.Close()
				return nil, entities.NewFault(entities.FaultDevice, err)
			}
		}

		flux := detector.Flux(in)
		if lastFlux == 0 {
			lastFlux = flux
			continue
		}

		if heardSomething {
			if flux*fluxRatio <= lastFlux {
				if !quiet {
					quietStart = time.Now()
				} else if time.Since(quietStart) > trailingSilence {
					break
				}
				quiet = true
			} else {
				quiet = false
				lastFlux = flux
			}
		} else {
			if flux >= lastFlux*fluxRatio {
				heardSomething = true
				// flush the pre-speech buffer so the onset is kept
				if _, err := waveWriter.WriteSample16(preRoll.Read()); err != nil {
					waveWriter.Close()
					return nil, entities.NewFault(entities.FaultDevice, err)
				}
			}
			lastFlux = flux
		}
	}

	if err := waveWriter.Close(); err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}

	data, err := afero.ReadFile(c.fs, waveFilename)
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}

	duration := time.Since(started)
	c.logger.Debug("Captured utterance",
		zap.Int("bytes", len(data)),
		zap.Duration("duration", duration))

	return &repositories.Utterance{
		WAV:            data,
		Duration:       duration,
		SpeechDetected: true,
	}, nil
}
