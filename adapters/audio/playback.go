package audio

import (
	"context"
	"encoding/binary"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

const playbackFrames = 1024

// Player plays synthesized PCM through the selected speaker.
type Player struct {
	logger *zap.Logger
}

var _ repositories.AudioPlayer = (*Player)(nil)

func NewPlayer(logger *zap.Logger) *Player {
	return &Player{logger: logger}
}

// Play drains the synthesis stream into the speaker device and returns once
// the stream closes or ctx is cancelled. Audio already handed to the device
// is allowed to finish.
func (p *Player) Play(ctx context.Context, devices entities.DeviceSelection, synthesis *repositories.Synthesis) error {
	output, err := resolveOutputDevice(devices.SpeakerID)
	if err != nil {
		return err
	}

	channels := synthesis.Format.Channels
	if channels == 0 {
		channels = 1
	}

	out := make([]int16, playbackFrames*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   output,
			Channels: channels,
			Latency:  output.DefaultLowOutputLatency,
		},
		SampleRate:      float64(synthesis.Format.SampleRate),
		FramesPerBuffer: playbackFrames,
	}, out)
	if err != nil {
		return entities.NewFault(entities.FaultDevice, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return entities.NewFault(entities.FaultDevice, err)
	}
	defer stream.Stop()

	var pending []int16
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-synthesis.Chunks:
			if !ok {
				return p.flush(stream, out, pending)
			}
			pending = append(pending, decodePCM(chunk)...)
			for len(pending) >= len(out) {
				copy(out, pending[:len(out)])
				pending = pending[len(out):]
				if err := stream.Write(); err != nil {
					return entities.NewFault(entities.FaultDevice, err)
				}
			}
		}
	}
}

// flush pads the final partial frame with silence and writes it out.
func (p *Player) flush(stream *portaudio.Stream, out []int16, pending []int16) error {
	if len(pending) == 0 {
		return nil
	}
	for i := range out {
		if i < len(pending) {
			out[i] = pending[i]
		} else {
			out[i] = 0
		}
	}
	if err := stream.Write(); err != nil {
		return entities.NewFault(entities.FaultDevice, err)
	}
	return nil
}

func decodePCM(chunk []byte) []int16 {
	samples := make([]int16, 0, len(chunk)/2)
	for i := 0; i+1 < len(chunk); i += 2 {
		samples = append(samples, int16(binary.LittleEndian.Uint16(chunk[i:i+2])))
	}
	return samples
}
