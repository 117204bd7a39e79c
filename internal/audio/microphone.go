package audio

import (
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Recorder captures audio from the default input device into an in-memory
// buffer. It is the "listen" CLI surface's audio source collaborator
// (spec §6) — outside the fingerprinting core, which only ever sees a
// complete PCM buffer handed to it once recording stops (spec §9: streaming
// partial matches are out of scope).
type Recorder struct {
	stream     *portaudio.Stream
	sampleRate int
	buffer     []float32
}

// NewRecorder initializes PortAudio and prepares a recorder at sampleRate.
func NewRecorder(sampleRate int) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initialize portaudio")
	}
	return &Recorder{sampleRate: sampleRate}, nil
}

// Record captures duration of mono audio from the default input device and
// returns it as a complete PCM buffer at the recorder's sample rate.
func (r *Recorder) Record(duration time.Duration) ([]float64, error) {
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, errors.Wrap(err, "get default input device")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(r.sampleRate),
		FramesPerBuffer: 1024,
	}

	stream, err := portaudio.OpenStream(params, r.callback)
	if err != nil {
		return nil, errors.Wrap(err, "open input stream")
	}
	r.stream = stream
	defer func() {
		_ = r.stream.Stop()
		_ = r.stream.Close()
	}()

	if err := r.stream.Start(); err != nil {
		return nil, errors.Wrap(err, "start input stream")
	}

	time.Sleep(duration)

	out := make([]float64, len(r.buffer))
	for i, s := range r.buffer {
		out[i] = float64(s)
	}
	return out, nil
}

func (r *Recorder) callback(in []float32) {
	r.buffer = append(r.buffer, in...)
}

// Close releases PortAudio resources.
func (r *Recorder) Close() error {
	return portaudio.Terminate()
}
