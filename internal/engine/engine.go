// Package engine orchestrates the full ingest/identify pipelines described
// by spec §2 (components A-G), in the style of the teacher's
// internal/eureka.Eureka: one struct wrapping the store and configuration,
// with Ingest/Identify/Delete/List/Cleanup methods driven by the CLI.
package engine

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"github.com/media-luna/fftrack/configs"
	"github.com/media-luna/fftrack/internal/audio"
	"github.com/media-luna/fftrack/internal/ferrors"
	"github.com/media-luna/fftrack/internal/fingerprint"
	"github.com/media-luna/fftrack/internal/logger"
	"github.com/media-luna/fftrack/internal/matcher"
	"github.com/media-luna/fftrack/internal/peaks"
	"github.com/media-luna/fftrack/internal/spectrogram"
	"github.com/media-luna/fftrack/internal/store"
)

// Engine is the entry point the CLI drives: it owns the configured store
// and runs PCM through stages A-D before handing off to the store (E/G) or
// the matcher (F).
type Engine struct {
	cfg Config
	st  store.Store
}

// Config is the resolved set of pipeline parameters the engine needs,
// derived once from configs.Config so each stage gets its own small,
// typed config rather than threading the whole document around.
type Config struct {
	SampleRate int
	WindowSize int
	HopSize    int
	Peaks      peaks.Config
	Hasher     fingerprint.Config
	Matcher    matcher.Config
}

// FromConfigs derives the engine's internal Config from the closed
// configuration record (configs.Config).
func FromConfigs(c configs.Config) Config {
	return Config{
		SampleRate: c.SampleRate,
		WindowSize: c.WindowSize,
		HopSize:    c.HopSize,
		Peaks: peaks.Config{
			NeighborhoodTime: c.PeakNeighborhoodTime,
			NeighborhoodFreq: c.PeakNeighborhoodFreq,
			Alpha:            c.PeakAlpha,
			AbsFloor:         c.PeakAbsFloor,
			TargetDensity:    c.TargetDensity,
			HopSize:          c.HopSize,
			SampleRate:       c.SampleRate,
		},
		Hasher: fingerprint.Config{
			MinDelta: c.TargetZoneMinDelta,
			MaxDelta: c.TargetZoneMaxDelta,
			Fanout:   c.TargetZoneFanout,
			FreqFan:  c.TargetZoneFreqFan,
		},
		Matcher: matcher.Config{
			MinMatchCount:       c.MinMatchCount,
			ConfidenceBeta:      c.ConfidenceBeta,
			ConfidenceThreshold: c.ConfidenceThreshold,
		},
	}
}

// New opens the configured store and returns a ready-to-use Engine.
func New(ctx context.Context, c configs.Config) (*Engine, error) {
	st, err := store.Open(ctx, c.Database, store.Header(c.Header()))
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: FromConfigs(c), st: st}, nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.st.Close()
}

// Result is the outcome of an Identify call. Matched is false on NoMatch
// (spec §7: a regular return, not an error).
type Result struct {
	Matched         bool
	TrackID         int64
	Title           string
	Artist          string
	Confidence      float64
	AlignedOffsetMs float64
}

// hashPipeline runs stages A-D (already-decoded, canonical-rate PCM in;
// fingerprint postings out). Stateless and side-effect-free per spec §5.
func (e *Engine) hashPipeline(samples []float64) ([]fingerprint.Posting, error) {
	frames, err := audio.Framer(samples, e.cfg.WindowSize, e.cfg.HopSize)
	if err != nil {
		return nil, err
	}
	spectra := spectrogram.Compute(frames)
	pks := peaks.Pick(spectra, e.cfg.Peaks)
	return fingerprint.Generate(pks, e.cfg.Hasher), nil
}

// Ingest runs the full A-E pipeline: decode/resample, fingerprint, and
// atomically append the new track with its postings (spec §3 Lifecycle,
// §4.E insert_track).
func (e *Engine) Ingest(ctx context.Context, path, title, artist string) (int64, error) {
	samples, err := audio.Prepare(path, e.cfg.SampleRate)
	if err != nil {
		return 0, err
	}

	postings, err := e.hashPipeline(samples)
	if err != nil {
		return 0, err
	}

	durationMs := int64(len(samples)) * 1000 / int64(e.cfg.SampleRate)
	meta := store.TrackMeta{
		Title:      title,
		Artist:     artist,
		DurationMs: durationMs,
		SourceHash: sourceHash(samples),
	}

	logger.Infof("ingest %q: %d fingerprints", path, len(postings))

	trackID, err := e.st.InsertTrack(ctx, meta, postings)
	if err != nil {
		return 0, err
	}
	return trackID, nil
}

// Identify runs the full A-F pipeline against a query PCM and resolves the
// winner's metadata from the catalog (spec §4.F, §4.G).
func (e *Engine) Identify(ctx context.Context, path string) (Result, error) {
	samples, err := audio.Prepare(path, e.cfg.SampleRate)
	if err != nil {
		return Result{}, err
	}
	return e.identifySamples(ctx, samples)
}

// IdentifyPCM identifies already-decoded mono PCM at the engine's canonical
// rate (the `listen` command's microphone path feeds this directly).
func (e *Engine) IdentifyPCM(ctx context.Context, samples []float64) (Result, error) {
	return e.identifySamples(ctx, samples)
}

func (e *Engine) identifySamples(ctx context.Context, samples []float64) (Result, error) {
	postings, err := e.hashPipeline(samples)
	if err != nil {
		// A query shorter than the window is EmptyAudio, a real error
		// (spec §8 boundary behaviors); anything else propagates too.
		return Result{}, err
	}

	if len(postings) == 0 {
		return Result{}, nil // NoMatch: zero hashes (spec §8)
	}

	hashes := make([]matcher.QueryHash, len(postings))
	for i, p := range postings {
		hashes[i] = matcher.QueryHash{Hash: p.Hash, TQ: p.AnchorT}
	}

	candidates, accepted, err := matcher.Match(ctx, e.st, hashes, e.cfg.Matcher)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ferrors.New(ferrors.Cancelled, "identify cancelled: %v", err)
		}
		return Result{}, err
	}
	if !accepted {
		return Result{}, nil // NoMatch
	}

	winner := candidates[0]
	track, err := e.st.GetTrack(ctx, winner.TrackID)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Matched:         true,
		TrackID:         track.TrackID,
		Title:           track.Title,
		Artist:          track.Artist,
		Confidence:      winner.Confidence,
		AlignedOffsetMs: audio.TimeMs(winner.Delta, e.cfg.HopSize, e.cfg.SampleRate),
	}, nil
}

// Delete removes a track and all of its postings (spec §3, §4.E
// delete_track).
func (e *Engine) Delete(ctx context.Context, trackID int64) error {
	return e.st.DeleteTrack(ctx, trackID)
}

// List returns every track in the catalog (spec §4.G iterate).
func (e *Engine) List(ctx context.Context) ([]store.Track, error) {
	return e.st.ListTracks(ctx)
}

// Cleanup removes duplicate tracks that share identical decoded PCM
// (spec §8: "two tracks with identical PCM ... tie broken by smaller
// track_id"), keeping the lowest track_id of each duplicate group.
func (e *Engine) Cleanup(ctx context.Context) (int, error) {
	tracks, err := e.st.ListTracks(ctx)
	if err != nil {
		return 0, err
	}

	byHash := map[string][]store.Track{}
	for _, t := range tracks {
		if t.SourceHash == "" {
			continue
		}
		byHash[t.SourceHash] = append(byHash[t.SourceHash], t)
	}

	removed := 0
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].TrackID < group[j].TrackID })
		for _, dup := range group[1:] {
			if err := e.st.DeleteTrack(ctx, dup.TrackID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// sourceHash is a SHA-1 over the decoded, canonical-rate PCM, used only to
// detect identical-content duplicates for the Cleanup admin operation. It
// is not part of the fingerprint schema.
func sourceHash(samples []float64) string {
	h := sha1.New()
	buf := make([]byte, 8)
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(s))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
