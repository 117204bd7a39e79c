// Package spectrogram is the windowed-FFT stage (spec §4.B): Hann window,
// real FFT, magnitude, DC bin dropped. No normalization; deterministic and
// side-effect-free.
package spectrogram

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/media-luna/fftrack/internal/audio"
)

// Spectrum is one frame's magnitude spectrum, bins [1, W/2] (DC dropped),
// in increasing frequency order.
type Spectrum struct {
	FrameIndex int
	Magnitudes []float64
}

// hannWindow returns a Hann window of length n: 0.5(1 - cos(2πi/(n-1))).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Compute produces the spectrogram for a sequence of frames, in frame
// order. The window length must equal every frame's sample count.
func Compute(frames []audio.Frame) []Spectrum {
	if len(frames) == 0 {
		return nil
	}

	window := hannWindow(len(frames[0].Samples))
	spectra := make([]Spectrum, len(frames))

	for i, frame := range frames {
		windowed := make([]float64, len(frame.Samples))
		for j, s := range frame.Samples {
			windowed[j] = s * window[j]
		}

		complexSpectrum := fft.FFTReal(windowed)
		// Keep bins [1, W/2]: drop DC (index 0) and the mirrored upper half.
		half := len(complexSpectrum) / 2
		mags := make([]float64, half)
		for bin := 1; bin <= half; bin++ {
			mags[bin-1] = cmplx.Abs(complexSpectrum[bin])
		}

		spectra[i] = Spectrum{FrameIndex: frame.Index, Magnitudes: mags}
	}

	return spectra
}
