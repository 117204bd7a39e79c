// Package fingerprint is the hasher stage (spec §4.D): anchor/target peak
// pairs within a target zone are packed into 32-bit fingerprint hashes with
// an anchor time.
package fingerprint

import (
	"sort"

	"github.com/media-luna/fftrack/internal/peaks"
)

// Bit widths for the pack/unpack layout (spec §4.D recommended layout:
// f_a and f_b each 10 bits, Δt 12 bits -> 32-bit hash). This layout is part
// of the fingerprint schema (spec §3 invariant 3, §6): changing it requires
// bumping SchemaVersion.
const (
	freqBits  = 10
	deltaBits = 12

	freqMask  = uint32(1<<freqBits) - 1
	deltaMask = uint32(1<<deltaBits) - 1

	deltaShift  = 0
	targetShift = deltaBits
	anchorShift = deltaBits + freqBits
)

// Hash is a 32-bit fingerprint hash: pack(f_a, f_b, Δt).
type Hash uint32

// Posting pairs a hash with the anchor time (in whole frames) it was
// derived from, for one track (spec §3).
type Posting struct {
	Hash      Hash
	AnchorT   int
}

// Config holds the hasher tunables (spec §4.D, §6).
type Config struct {
	MinDelta int // δ_min, frames
	MaxDelta int // δ_max, frames
	Fanout   int // K, max targets considered per anchor
	FreqFan  int // F_fan, frequency bin half-width of the target zone
}

// Pack quantizes and packs (f_a, f_b, deltaT) into a 32-bit hash. Returns
// ok=false if any field overflows its allotted bits — such a pair is
// dropped rather than silently aliased.
func Pack(fa, fb, deltaT int) (Hash, bool) {
	if fa < 0 || fb < 0 || deltaT < 0 {
		return 0, false
	}
	if uint32(fa) > freqMask || uint32(fb) > freqMask || uint32(deltaT) > deltaMask {
		return 0, false
	}
	h := (uint32(fa) << anchorShift) | (uint32(fb) << targetShift) | (uint32(deltaT) << deltaShift)
	return Hash(h), true
}

// Unpack reverses Pack, recovering the exact (f_a, f_b, Δt) that produced h
// (spec §8 round-trip law: unpack(pack(x)) = x for all x in range).
func Unpack(h Hash) (fa, fb, deltaT int) {
	u := uint32(h)
	fa = int((u >> anchorShift) & freqMask)
	fb = int((u >> targetShift) & freqMask)
	deltaT = int((u >> deltaShift) & deltaMask)
	return
}

// Generate emits (hash, anchorTime) postings for every (anchor, target)
// pair in the target zone of each anchor peak (spec §4.D). Peaks must
// already be sorted by (t, f) — Pick() guarantees this.
func Generate(ps []peaks.Peak, cfg Config) []Posting {
	if len(ps) == 0 {
		return nil
	}

	var out []Posting
	for i, anchor := range ps {
		targets := targetZone(ps, i, cfg)
		for _, target := range targets {
			deltaT := target.T - anchor.T
			h, ok := Pack(anchor.F, target.F, deltaT)
			if !ok {
				continue
			}
			out = append(out, Posting{Hash: h, AnchorT: anchor.T})
		}
	}
	return out
}

// targetZone returns, in (t, f) order, up to cfg.Fanout peaks following
// anchor ps[i] whose time delta falls in [δ_min, δ_max] and whose frequency
// is within F_fan of the anchor's.
func targetZone(ps []peaks.Peak, i int, cfg Config) []peaks.Peak {
	anchor := ps[i]
	var candidates []peaks.Peak

	for j := i + 1; j < len(ps); j++ {
		target := ps[j]
		delta := target.T - anchor.T
		if delta > cfg.MaxDelta {
			break // ps is t-sorted; nothing further can be in range
		}
		if delta < cfg.MinDelta {
			continue
		}
		if absInt(target.F-anchor.F) > cfg.FreqFan {
			continue
		}
		candidates = append(candidates, target)
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].T != candidates[b].T {
			return candidates[a].T < candidates[b].T
		}
		return candidates[a].F < candidates[b].F
	})

	if len(candidates) > cfg.Fanout {
		candidates = candidates[:cfg.Fanout]
	}
	return candidates
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
