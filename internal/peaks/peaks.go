// Package peaks is the constellation-map extraction stage (spec §4.C):
// locally-maximal time-frequency points that clear a dynamic threshold.
package peaks

import (
	"sort"

	"github.com/media-luna/fftrack/internal/spectrogram"
)

// Peak is a time-frequency point that is a local maximum in its
// neighborhood and exceeds the dynamic threshold (spec §3).
type Peak struct {
	T int // frame index
	F int // frequency bin index, in [0, W/2)
}

// Config holds the peak-picker tunables (spec §4.C, §6).
type Config struct {
	NeighborhoodTime int     // ΔT
	NeighborhoodFreq int     // ΔF
	Alpha            float64 // α
	AbsFloor         float64 // G_abs
	// TargetDensity, in peaks/sec, drives adaptive alpha search when >0.
	// The final peak set is always a deterministic function of the
	// spectrogram and the resolved parameters (spec §4.C).
	TargetDensity float64
	HopSize       int
	SampleRate    int
}

const localMeanWindow = 30 // ±30 frames, spec §4.C recommendation

// Pick extracts peaks from a spectrogram, yielded in non-decreasing t and,
// for equal t, increasing f (spec §4.C "Output ordering").
func Pick(spectra []spectrogram.Spectrum, cfg Config) []Peak {
	if len(spectra) == 0 {
		return nil
	}

	grid := toGrid(spectra)
	localMean := runningLocalMean(grid, localMeanWindow)

	alpha := cfg.Alpha
	result := extract(grid, localMean, cfg, alpha)

	if cfg.TargetDensity > 0 && cfg.HopSize > 0 && cfg.SampleRate > 0 {
		result = adjustForDensity(grid, localMean, cfg, result)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].T != result[j].T {
			return result[i].T < result[j].T
		}
		return result[i].F < result[j].F
	})
	return result
}

func toGrid(spectra []spectrogram.Spectrum) [][]float64 {
	grid := make([][]float64, len(spectra))
	for i, s := range spectra {
		grid[i] = s.Magnitudes
	}
	return grid
}

// runningLocalMean computes M[t], a running local mean magnitude over a
// ±window time window (spec §4.C), averaged across all frequency bins at
// each frame.
func runningLocalMean(grid [][]float64, window int) []float64 {
	n := len(grid)
	frameAvg := make([]float64, n)
	for t, row := range grid {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		frameAvg[t] = sum / float64(len(row))
	}

	mean := make([]float64, n)
	for t := 0; t < n; t++ {
		lo := t - window
		if lo < 0 {
			lo = 0
		}
		hi := t + window
		if hi >= n {
			hi = n - 1
		}
		var sum float64
		for i := lo; i <= hi; i++ {
			sum += frameAvg[i]
		}
		mean[t] = sum / float64(hi-lo+1)
	}
	return mean
}

// isLocalMax implements spec §4.C condition 1: symmetric neighborhood
// (invariant §3.5), with strict inequality against at least one neighbor to
// break ties.
func isLocalMax(grid [][]float64, t, f, deltaT, deltaF int) bool {
	v := grid[t][f]
	strictlyGreaterSomewhere := false

	for dt := -deltaT; dt <= deltaT; dt++ {
		tt := t + dt
		if tt < 0 || tt >= len(grid) {
			continue
		}
		row := grid[tt]
		for df := -deltaF; df <= deltaF; df++ {
			if dt == 0 && df == 0 {
				continue
			}
			ff := f + df
			if ff < 0 || ff >= len(row) {
				continue
			}
			if row[ff] > v {
				return false
			}
			if row[ff] < v {
				strictlyGreaterSomewhere = true
			}
		}
	}
	return strictlyGreaterSomewhere
}

func extract(grid [][]float64, localMean []float64, cfg Config, alpha float64) []Peak {
	var result []Peak
	for t, row := range grid {
		for f, mag := range row {
			threshold := cfg.AbsFloor
			if dyn := alpha * localMean[t]; dyn > threshold {
				threshold = dyn
			}
			if mag < threshold {
				continue
			}
			if !isLocalMax(grid, t, f, cfg.NeighborhoodTime, cfg.NeighborhoodFreq) {
				continue
			}
			result = append(result, Peak{T: t, F: f})
		}
	}
	return result
}

// adjustForDensity nudges alpha to approach the target peaks/sec density,
// re-running extraction at most a handful of times. The search itself is
// deterministic (fixed step sequence), so the final peak set remains a
// deterministic function of the spectrogram and the starting Config (spec
// §4.C: "Implementations MAY tune α adaptively ... final peak set MUST be a
// deterministic function of the spectrogram and parameters").
func adjustForDensity(grid [][]float64, localMean []float64, cfg Config, initial []Peak) []Peak {
	durationSec := float64(len(grid)) * float64(cfg.HopSize) / float64(cfg.SampleRate)
	if durationSec <= 0 {
		return initial
	}

	best := initial
	alpha := cfg.Alpha
	bestDiff := densityDiff(initial, durationSec, cfg.TargetDensity)

	const maxSteps = 6
	step := alpha * 0.25
	for i := 0; i < maxSteps && bestDiff != 0; i++ {
		density := float64(len(best)) / durationSec
		if density > cfg.TargetDensity {
			alpha += step
		} else {
			alpha -= step
		}
		if alpha <= 0 {
			break
		}
		candidate := extract(grid, localMean, cfg, alpha)
		diff := densityDiff(candidate, durationSec, cfg.TargetDensity)
		if diff < bestDiff {
			best, bestDiff = candidate, diff
		}
		step /= 2
	}
	return best
}

func densityDiff(ps []Peak, durationSec, target float64) float64 {
	d := float64(len(ps))/durationSec - target
	if d < 0 {
		return -d
	}
	return d
}
