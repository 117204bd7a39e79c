package audio

import (
	"github.com/faiface/beep"

	"github.com/media-luna/fftrack/internal/ferrors"
)

// resampleQuality is beep's interpolation order for its windowed-sinc
// resampler. Quality 4 gives >60dB stopband attenuation (beep's documented
// behavior for quality>=3), satisfying spec §4.A's filter requirement.
// This choice is part of the fingerprint schema: changing it changes the
// PCM the downstream stages see and requires bumping SchemaVersion.
const resampleQuality = 4

// monoStreamer adapts a plain []float64 mono slice to beep.Streamer so it
// can be run through beep.Resample, which operates on beep.Streamer.
type monoStreamer struct {
	samples []float64
	pos     int
}

func (m *monoStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if m.pos >= len(m.samples) {
		return 0, false
	}
	for n = 0; n < len(samples) && m.pos < len(m.samples); n++ {
		v := m.samples[m.pos]
		samples[n][0] = v
		samples[n][1] = v
		m.pos++
	}
	return n, true
}

func (m *monoStreamer) Err() error { return nil }

// Resample converts mono PCM at fsIn to mono PCM at fsOut using a
// band-limited resampler (beep.Resample, quality 4) with deterministic
// output given (fsIn, fsOut). Indexes built with different fsIn/fsOut pairs,
// or a different resampleQuality, are not interoperable (spec §9 Open
// Questions).
func Resample(samples []float64, fsIn, fsOut int) []float64 {
	if fsIn == fsOut {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	src := &monoStreamer{samples: samples}
	resampled := beep.Resample(resampleQuality, beep.SampleRate(fsIn), beep.SampleRate(fsOut), src)

	const chunk = 4096
	buf := make([][2]float64, chunk)
	out := make([]float64, 0, len(samples)*fsOut/fsIn+chunk)
	for {
		n, ok := resampled.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}
		if !ok {
			break
		}
	}
	return out
}

// Prepare decodes, downmixes, and resamples an audio file to the canonical
// rate in one call, the shape the rest of the core consumes.
func Prepare(path string, canonicalRate int) ([]float64, error) {
	pcm, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	if pcm.SampleRate <= 0 {
		return nil, ferrors.New(ferrors.InvalidAudio, "%q declares non-positive sample rate", path)
	}
	return Resample(pcm.Samples, pcm.SampleRate, canonicalRate), nil
}
