package audio

import "github.com/media-luna/fftrack/internal/ferrors"

// Frame is one window of W real samples at the canonical rate. Not
// persisted; transient per spec §3.
type Frame struct {
	Index   int // frame index, in units of hop H (spec §3 invariant 4)
	Samples []float64
}

// Framer slices a mono sample stream into fixed-size overlapping frames
// (window W, hop H). The final partial frame, if any, is discarded (spec
// §4.A).
func Framer(samples []float64, window, hop int) ([]Frame, error) {
	if window <= 0 || hop <= 0 {
		return nil, ferrors.New(ferrors.Internal, "window and hop must be positive")
	}
	if len(samples) < window {
		return nil, ferrors.New(ferrors.EmptyAudio, "need >= %d samples, got %d", window, len(samples))
	}

	var frames []Frame
	idx := 0
	for start := 0; start+window <= len(samples); start += hop {
		buf := make([]float64, window)
		copy(buf, samples[start:start+window])
		frames = append(frames, Frame{Index: idx, Samples: buf})
		idx++
	}
	return frames, nil
}

// TimeMs converts a frame index to milliseconds at hop H and rate Fs
// (spec §3 invariant 4: 1000·t·H/Fs).
func TimeMs(frameIndex, hop, sampleRate int) float64 {
	return 1000.0 * float64(frameIndex) * float64(hop) / float64(sampleRate)
}
