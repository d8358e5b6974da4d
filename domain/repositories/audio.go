package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/nova/domain/entities"
)

// Utterance is one captured stretch of microphone audio, ended by trailing
// silence.
type Utterance struct {
	WAV            []byte
	Duration       time.Duration
	SpeechDetected bool
}

// UtteranceCapturer records from the selected microphone until the
// end-of-utterance heuristic fires.
type UtteranceCapturer interface {
	Capture(ctx context.Context, devices entities.DeviceSelection) (*Utterance, error)
}

// AudioPlayer plays a PCM stream through the selected speaker. It returns
// once the stream is drained or ctx is cancelled.
type AudioPlayer interface {
	Play(ctx context.Context, devices entities.DeviceSelection, synthesis *Synthesis) error
}

// AudioDevice describes a host audio endpoint for the settings surface.
type AudioDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsInput  bool   `json:"is_input"`
	IsOutput bool   `json:"is_output"`
}

// DeviceLister enumerates host audio devices.
type DeviceLister interface {
	ListDevices() ([]AudioDevice, error)
}
