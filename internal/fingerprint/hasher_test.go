package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-luna/fftrack/internal/peaks"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []struct{ fa, fb, deltaT int }{
		{0, 0, 0},
		{1023, 1023, 4095},
		{512, 7, 2048},
		{1, 1022, 1},
	}
	for _, c := range cases {
		h, ok := Pack(c.fa, c.fb, c.deltaT)
		require.True(t, ok)
		fa, fb, deltaT := Unpack(h)
		assert.Equal(t, c.fa, fa)
		assert.Equal(t, c.fb, fb)
		assert.Equal(t, c.deltaT, deltaT)
	}
}

func TestPackRejectsOverflow(t *testing.T) {
	_, ok := Pack(1024, 0, 0)
	assert.False(t, ok)

	_, ok = Pack(0, 1024, 0)
	assert.False(t, ok)

	_, ok = Pack(0, 0, 4096)
	assert.False(t, ok)

	_, ok = Pack(-1, 0, 0)
	assert.False(t, ok)
}

func TestGenerateRespectsTargetZone(t *testing.T) {
	ps := []peaks.Peak{
		{T: 0, F: 100},
		{T: 2, F: 105},   // too close if MinDelta > 2
		{T: 10, F: 500},  // outside FreqFan of anchor
		{T: 15, F: 102},  // valid target
		{T: 200, F: 102}, // outside MaxDelta
	}
	cfg := Config{MinDelta: 5, MaxDelta: 50, Fanout: 5, FreqFan: 50}

	postings := Generate(ps, cfg)

	// Every peak is its own anchor: T0/F100 and T2/F105 each pair with
	// T15/F102 (deltas 15 and 13); no other pair falls in the zone.
	anchorFreq := map[int]int{0: 100, 2: 105}
	require.Len(t, postings, 2)
	for _, p := range postings {
		fa, fb, deltaT := Unpack(p.Hash)
		assert.True(t, deltaT >= cfg.MinDelta && deltaT <= cfg.MaxDelta)
		assert.Equal(t, anchorFreq[p.AnchorT], fa)
		assert.Equal(t, 102, fb)
	}
}

func TestGenerateCapsFanout(t *testing.T) {
	// Every peak is its own anchor (spec §4.D), each capped to at most
	// Fanout targets drawn from the peaks that follow it: anchors 0-7 each
	// have >= 3 later peaks in range and are capped to 3; anchor 8 has 2
	// later peaks, anchor 9 has 1, anchor 10 has none. Total: 8*3+2+1+0=27.
	ps := []peaks.Peak{{T: 0, F: 0}}
	for t := 1; t <= 10; t++ {
		ps = append(ps, peaks.Peak{T: t, F: t})
	}
	cfg := Config{MinDelta: 1, MaxDelta: 100, Fanout: 3, FreqFan: 100}

	postings := Generate(ps, cfg)
	assert.Len(t, postings, 27)
}

func TestGenerateEmptyInput(t *testing.T) {
	assert.Nil(t, Generate(nil, Config{MaxDelta: 10, Fanout: 3}))
}
