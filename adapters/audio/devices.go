package audio

import (
	"github.com/gordonklaus/portaudio"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// Initialize starts the host audio subsystem. Call Terminate on shutdown.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return entities.NewFault(entities.FaultDevice, err)
	}
	return nil
}

// Terminate releases the host audio subsystem.
func Terminate() error {
	return portaudio.Terminate()
}

// Lister enumerates host audio devices for the settings surface.
type Lister struct{}

var _ repositories.DeviceLister = Lister{}

func (Lister) ListDevices() ([]repositories.AudioDevice, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}

	devices := make([]repositories.AudioDevice, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, repositories.AudioDevice{
			ID:       info.Name,
			Name:     info.Name,
			IsInput:  info.MaxInputChannels > 0,
			IsOutput: info.MaxOutputChannels > 0,
		})
	}
	return devices, nil
}

func resolveInputDevice(id string) (*portaudio.DeviceInfo, error) {
	if id == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, entities.NewFault(entities.FaultDevice, err)
		}
		return info, nil
	}
	return findDevice(id, true)
}

func resolveOutputDevice(id string) (*portaudio.DeviceInfo, error) {
	if id == "" {
		info, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, entities.NewFault(entities.FaultDevice, err)
		}
		return info, nil
	}
	return findDevice(id, false)
}

func findDevice(id string, input bool) (*portaudio.DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, entities.NewFault(entities.FaultDevice, err)
	}
	for _, info := range infos {
		if info.Name != id {
			continue
		}
		if input && info.MaxInputChannels == 0 {
			continue
		}
		if !input && info.MaxOutputChannels == 0 {
			continue
		}
		return info, nil
	}
	return nil, entities.Faultf(entities.FaultDevice, "audio device not found: %s", id)
}
