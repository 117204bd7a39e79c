package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-luna/fftrack/configs"
	"github.com/media-luna/fftrack/internal/fingerprint"
	"github.com/media-luna/fftrack/internal/store"
)

type fakeStore struct {
	tracks  map[int64]store.Track
	nextID  int64
	deleted []int64
}

func newFakeStore(tracks ...store.Track) *fakeStore {
	f := &fakeStore{tracks: map[int64]store.Track{}}
	for _, t := range tracks {
		f.tracks[t.TrackID] = t
		if t.TrackID >= f.nextID {
			f.nextID = t.TrackID + 1
		}
	}
	return f
}

func (f *fakeStore) InsertTrack(ctx context.Context, meta store.TrackMeta, postings []fingerprint.Posting) (int64, error) {
	id := f.nextID
	f.nextID++
	f.tracks[id] = store.Track{TrackID: id, Title: meta.Title, Artist: meta.Artist, DurationMs: meta.DurationMs, SourceHash: meta.SourceHash}
	return id, nil
}
func (f *fakeStore) Lookup(ctx context.Context, hash fingerprint.Hash) ([]store.PostingRow, error) {
	return nil, nil
}
func (f *fakeStore) DeleteTrack(ctx context.Context, trackID int64) error {
	delete(f.tracks, trackID)
	f.deleted = append(f.deleted, trackID)
	return nil
}
func (f *fakeStore) GetTrack(ctx context.Context, trackID int64) (store.Track, error) {
	return f.tracks[trackID], nil
}
func (f *fakeStore) ListTracks(ctx context.Context) ([]store.Track, error) {
	var out []store.Track
	for _, t := range f.tracks {
		out = append(out, t)
	}
	return out, nil
}
func (f *fakeStore) SchemaVersion() int { return 1 }
func (f *fakeStore) Close() error       { return nil }

func TestCleanupKeepsLowestTrackIDPerDuplicateGroup(t *testing.T) {
	fs := newFakeStore(
		store.Track{TrackID: 1, SourceHash: "aaa"},
		store.Track{TrackID: 2, SourceHash: "aaa"},
		store.Track{TrackID: 3, SourceHash: "bbb"},
		store.Track{TrackID: 4, SourceHash: "aaa"},
	)
	e := &Engine{cfg: FromConfigs(configs.Default()), st: fs}

	removed, err := e.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := e.List(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, tr := range remaining {
		assert.Contains(t, []int64{1, 3}, tr.TrackID)
	}
}

func TestCleanupIgnoresEmptySourceHash(t *testing.T) {
	fs := newFakeStore(
		store.Track{TrackID: 1, SourceHash: ""},
		store.Track{TrackID: 2, SourceHash: ""},
	)
	e := &Engine{cfg: FromConfigs(configs.Default()), st: fs}

	removed, err := e.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestFromConfigsMapsAllStages(t *testing.T) {
	c := configs.Default()
	cfg := FromConfigs(c)

	assert.Equal(t, c.SampleRate, cfg.SampleRate)
	assert.Equal(t, c.WindowSize, cfg.WindowSize)
	assert.Equal(t, c.HopSize, cfg.HopSize)
	assert.Equal(t, c.PeakAlpha, cfg.Peaks.Alpha)
	assert.Equal(t, c.TargetZoneFanout, cfg.Hasher.Fanout)
	assert.Equal(t, c.MinMatchCount, cfg.Matcher.MinMatchCount)
}

func TestSourceHashIsDeterministic(t *testing.T) {
	samples := []float64{0.1, 0.2, -0.3, 0.4}
	assert.Equal(t, sourceHash(samples), sourceHash(samples))

	other := []float64{0.1, 0.2, -0.3, 0.5}
	assert.NotEqual(t, sourceHash(samples), sourceHash(other))
}
