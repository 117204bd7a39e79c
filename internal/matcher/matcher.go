// Package matcher implements the scoring and confidence algorithm of spec
// §4.F: histogram-of-offset-deltas voting over candidate tracks.
package matcher

import (
	"context"
	"sort"

	"github.com/media-luna/fftrack/internal/fingerprint"
	"github.com/media-luna/fftrack/internal/store"
)

// QueryHash is one (hash, query-time anchor) pair produced by hashing a
// query clip (spec §4.F input).
type QueryHash struct {
	Hash fingerprint.Hash
	TQ   int
}

// Candidate is a scored, ranked match (spec §4.F output).
type Candidate struct {
	TrackID       int64
	Score         int     // peak_count(track)
	TotalPostings int     // tie-break: larger total posting count wins
	Delta         int     // Δ*(track): the dominant offset delta, in frames
	Confidence    float64
}

// Config holds the matcher tunables (spec §4.F, §6).
type Config struct {
	MinMatchCount       int     // N_min
	ConfidenceBeta      float64 // β
	ConfidenceThreshold float64 // conf_threshold
}

type deltaHistogram map[int]int

// Match runs the matcher algorithm end to end: fetch postings per query
// hash (skipping hot hashes, which Lookup already excludes), bucket by
// (track_id, Δ), score, and rank (spec §4.F steps 1-3). The first return
// value is the full ranked candidate list (possibly empty); the second is
// whether the top candidate clears the acceptance bar (step 4-5).
func Match(ctx context.Context, s store.Store, hashes []QueryHash, cfg Config) ([]Candidate, bool, error) {
	if len(hashes) == 0 {
		return nil, false, nil
	}

	histograms := map[int64]deltaHistogram{}
	totals := map[int64]int{}

	for _, qh := range hashes {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		postings, err := s.Lookup(ctx, qh.Hash)
		if err != nil {
			return nil, false, err
		}

		for _, p := range postings {
			delta := p.AnchorT - qh.TQ
			h, ok := histograms[p.TrackID]
			if !ok {
				h = deltaHistogram{}
				histograms[p.TrackID] = h
			}
			h[delta]++
			totals[p.TrackID]++
		}
	}

	candidates := make([]Candidate, 0, len(histograms))
	for trackID, hist := range histograms {
		peakCount, delta := dominantBucket(hist)
		candidates = append(candidates, Candidate{
			TrackID:       trackID,
			Score:         peakCount,
			TotalPostings: totals[trackID],
			Delta:         delta,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalPostings != b.TotalPostings {
			return a.TotalPostings > b.TotalPostings
		}
		return a.TrackID < b.TrackID
	})

	if len(candidates) == 0 {
		return candidates, false, nil
	}

	conf := confidence(candidates, cfg.ConfidenceBeta)
	candidates[0].Confidence = conf

	accepted := candidates[0].Score >= cfg.MinMatchCount && conf >= cfg.ConfidenceThreshold
	return candidates, accepted, nil
}

// dominantBucket returns the largest bucket's count and its Δ (spec §4.F
// step 2). Ties on count are broken by the smallest |Δ|, then smallest Δ,
// for determinism.
func dominantBucket(hist deltaHistogram) (count, delta int) {
	best := -1
	bestDelta := 0
	first := true
	for d, c := range hist {
		switch {
		case c > best:
			best, bestDelta = c, d
		case c == best && !first && tieBreakDelta(d, bestDelta):
			bestDelta = d
		}
		first = false
	}
	return best, bestDelta
}

func tieBreakDelta(candidate, current int) bool {
	ac, acur := absInt(candidate), absInt(current)
	if ac != acur {
		return ac < acur
	}
	return candidate < current
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// confidence computes the ratio test of spec §4.F step 4:
// conf = peak_count_1 / max(1, peak_count_2 + peak_count_1 * β)
func confidence(ranked []Candidate, beta float64) float64 {
	peak1 := float64(ranked[0].Score)
	var peak2 float64
	if len(ranked) > 1 {
		peak2 = float64(ranked[1].Score)
	}

	denom := peak2 + peak1*beta
	if denom < 1 {
		denom = 1
	}
	return peak1 / denom
}
