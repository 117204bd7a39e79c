package spectrogram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-luna/fftrack/internal/audio"
)

func TestComputeBinCountDropsDC(t *testing.T) {
	const window = 64
	samples := make([]float64, window)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / float64(window))
	}

	spectra := Compute([]audio.Frame{{Index: 0, Samples: samples}})
	require.Len(t, spectra, 1)
	assert.Len(t, spectra[0].Magnitudes, window/2)
}

func TestComputeFindsDominantFrequency(t *testing.T) {
	const window = 256
	const sampleRate = 11025
	const targetHz = 1000.0

	samples := make([]float64, window)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * targetHz * float64(i) / sampleRate)
	}

	spectra := Compute([]audio.Frame{{Index: 0, Samples: samples}})
	mags := spectra[0].Magnitudes

	peakBin, peakVal := 0, -1.0
	for i, m := range mags {
		if m > peakVal {
			peakBin, peakVal = i, m
		}
	}

	// Bin i (after dropping DC) corresponds to frequency (i+1)*sampleRate/window.
	expectedBin := int(targetHz*window/sampleRate) - 1
	assert.InDelta(t, expectedBin, peakBin, 1)
}

func TestComputeEmptyInput(t *testing.T) {
	assert.Nil(t, Compute(nil))
}
