// Package audio is the resampler/framer collaborator (spec §4.A). It
// downmixes arbitrary decoded PCM to mono, resamples to the canonical rate,
// and slices the result into fixed-size overlapping frames for the
// spectrogram stage. Container decoding (WAV/MP3/FLAC) is itself an
// external-collaborator concern per spec §1/§6, implemented here with
// faiface/beep and its format packages.
package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/media-luna/fftrack/internal/ferrors"
)

// PCM is a decoded, downmixed-to-mono sample stream at its source rate.
type PCM struct {
	Samples    []float64
	SampleRate int
}

// DecodeFile reads an audio file via its container's beep decoder and
// returns mono PCM at the file's native sample rate. Channel downmix is by
// averaging channels (spec §4.A).
func DecodeFile(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, ferrors.New(ferrors.InvalidAudio, "open %q: %v", path, err)
	}
	defer f.Close()

	streamer, format, err := decodeByExt(path, f)
	if err != nil {
		return PCM{}, ferrors.New(ferrors.InvalidAudio, "decode %q: %v", path, err)
	}
	defer streamer.Close()

	if format.NumChannels < 1 {
		return PCM{}, ferrors.New(ferrors.InvalidAudio, "%q declares zero channels", path)
	}

	samples := downmix(streamer)
	if len(samples) == 0 {
		return PCM{}, ferrors.New(ferrors.EmptyAudio, "%q decoded to zero samples", path)
	}

	return PCM{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

func decodeByExt(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	default:
		// Fall back to WAV; callers are expected to hand the core decoded
		// or container-sniffed PCM in production, per spec §6.
		return wav.Decode(f)
	}
}

// downmix drains a beep.Streamer to completion, averaging all channels of
// each frame into a single mono sample.
func downmix(s beep.Streamer) []float64 {
	const chunk = 4096
	buf := make([][2]float64, chunk)
	out := make([]float64, 0, chunk)

	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return out
}
