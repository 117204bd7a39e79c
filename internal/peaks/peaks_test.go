package peaks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/media-luna/fftrack/internal/spectrogram"
)

func spectrum(frameIndex int, mags []float64) spectrogram.Spectrum {
	return spectrogram.Spectrum{FrameIndex: frameIndex, Magnitudes: mags}
}

func TestPickFindsIsolatedSpike(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01, 0.01, 0.01}
	spectra := []spectrogram.Spectrum{
		spectrum(0, flat),
		spectrum(1, []float64{0.01, 0.01, 9.0, 0.01, 0.01}),
		spectrum(2, flat),
	}
	cfg := Config{NeighborhoodTime: 1, NeighborhoodFreq: 1, Alpha: 2.0, AbsFloor: 1e-6}

	result := Pick(spectra, cfg)

	assert.Len(t, result, 1)
	assert.Equal(t, Peak{T: 1, F: 2}, result[0])
}

func TestPickIsDeterministic(t *testing.T) {
	spectra := make([]spectrogram.Spectrum, 20)
	for i := range spectra {
		mags := make([]float64, 16)
		for f := range mags {
			mags[f] = float64((i*7+f*3)%11) * 0.1
		}
		spectra[i] = spectrum(i, mags)
	}
	cfg := Config{NeighborhoodTime: 2, NeighborhoodFreq: 2, Alpha: 1.5, AbsFloor: 1e-6}

	a := Pick(spectra, cfg)
	b := Pick(spectra, cfg)
	assert.Equal(t, a, b)
}

func TestPickOutputOrdering(t *testing.T) {
	spectra := make([]spectrogram.Spectrum, 10)
	for i := range spectra {
		mags := make([]float64, 8)
		for f := range mags {
			mags[f] = float64((i+f)%5) + 1
		}
		spectra[i] = spectrum(i, mags)
	}
	cfg := Config{NeighborhoodTime: 1, NeighborhoodFreq: 1, Alpha: 1.2, AbsFloor: 1e-6}

	result := Pick(spectra, cfg)
	for i := 1; i < len(result); i++ {
		prev, cur := result[i-1], result[i]
		if prev.T == cur.T {
			assert.LessOrEqual(t, prev.F, cur.F)
		} else {
			assert.Less(t, prev.T, cur.T)
		}
	}
}

func TestAdjustForDensityIsDeterministic(t *testing.T) {
	spectra := make([]spectrogram.Spectrum, 100)
	for i := range spectra {
		mags := make([]float64, 32)
		for f := range mags {
			mags[f] = float64((i*13+f*5)%29) * 0.1
		}
		spectra[i] = spectrum(i, mags)
	}
	cfg := Config{
		NeighborhoodTime: 2, NeighborhoodFreq: 2,
		Alpha: 2.0, AbsFloor: 1e-6,
		TargetDensity: 5, HopSize: 2048, SampleRate: 11025,
	}

	result := Pick(spectra, cfg)
	// Deterministic: same config, same input, same output.
	assert.Equal(t, result, Pick(spectra, cfg))
}

func TestPickEmptyInput(t *testing.T) {
	assert.Nil(t, Pick(nil, Config{}))
}
