package audio

import "github.com/mjibson/go-dsp/fft"

// vad detects voice activity through spectral flux between consecutive
// frames. Speech onsets show up as a sharp rise in flux relative to the
// ambient baseline; trailing silence as a drop below it.
type vad struct {
	frameSize    int
	lastSpectrum []float64
}

func newVAD(frameSize int) *vad {
	return &vad{frameSize: frameSize}
}

// Flux returns the positive spectral difference between this frame and the
// previous one.
func (v *vad) Flux(samples []int16) float64 {
	frame := make([]float64, len(samples))
	for i, s := range samples {
		frame[i] = float64(s) / 32768.0
	}

	spectrum := fft.FFTReal(frame)
	magnitudes := make([]float64, len(spectrum)/2)
	for i := range magnitudes {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		magnitudes[i] = re*re + im*im
	}

	if v.lastSpectrum == nil {
		v.lastSpectrum = magnitudes
		return 0
	}

	var flux float64
	for i, m := range magnitudes {
		if d := m - v.lastSpectrum[i]; d > 0 {
			flux += d
		}
	}
	v.lastSpectrum = magnitudes
	return flux
}
