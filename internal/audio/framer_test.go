package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-luna/fftrack/internal/ferrors"
)

func TestFramerSlicesOverlappingWindows(t *testing.T) {
	samples := make([]float64, 10)
	for i := range samples {
		samples[i] = float64(i)
	}

	frames, err := Framer(samples, 4, 2)
	require.NoError(t, err)

	// starts: 0, 2, 4 -> windows fit; start=6 -> 6+4=10 fits; start=8 -> 8+4=12 doesn't fit
	require.Len(t, frames, 4)
	assert.Equal(t, []float64{0, 1, 2, 3}, frames[0].Samples)
	assert.Equal(t, []float64{2, 3, 4, 5}, frames[1].Samples)
	assert.Equal(t, []float64{6, 7, 8, 9}, frames[3].Samples)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 3, frames[3].Index)
}

func TestFramerRejectsShortInput(t *testing.T) {
	_, err := Framer([]float64{1, 2, 3}, 4, 2)
	assert.True(t, ferrors.Is(err, ferrors.EmptyAudio))
}

func TestTimeMsConversion(t *testing.T) {
	assert.InDelta(t, 0.0, TimeMs(0, 2048, 11025), 1e-9)
	assert.InDelta(t, 185.759637, TimeMs(1, 2048, 11025), 1e-6)
}
