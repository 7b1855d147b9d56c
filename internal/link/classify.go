// Package link monitors radio link quality via periodic RSSI polling.
//
// The monitor is orthogonal to packet flow: it owns its own timer and a
// bounded sliding window of RSSI readings, and derives an immutable
// ConnectionQuality snapshot after every successful poll.
package link

import (
	"math"
	"time"

	"flowstate.dev/cortex/internal/core"
)

// RSSI thresholds for the four ordered quality levels, in dBm.
const (
	excellentRSSI = -55
	goodRSSI      = -67
	fairRSSI      = -80
)

// Composite score terms: average RSSI is linearly normalized from the
// floor/ceiling range onto 0-80 points, stability contributes up to 20.
const (
	scoreFloorRSSI   = -90.0
	scoreCeilingRSSI = -40.0
	rssiScoreWeight  = 80.0

	stabilityBonus = 20.0
	stableStdDev   = 2.0
	unstableStdDev = 10.0
)

// classifyRSSI maps an average RSSI onto one of the four quality levels.
func classifyRSSI(avg float64) core.QualityLevel {
	switch {
	case avg >= excellentRSSI:
		return core.LinkExcellent
	case avg >= goodRSSI:
		return core.LinkGood
	case avg >= fairRSSI:
		return core.LinkFair
	default:
		return core.LinkPoor
	}
}

// compositeScore combines the normalized RSSI term with the stability
// bonus. Monotonically non-decreasing in avg and non-increasing in stddev.
func compositeScore(avg, stddev float64) int {
	normalized := (avg - scoreFloorRSSI) / (scoreCeilingRSSI - scoreFloorRSSI)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	score := normalized * rssiScoreWeight

	switch {
	case stddev <= stableStdDev:
		score += stabilityBonus
	case stddev >= unstableStdDev:
		// No bonus.
	default:
		score += stabilityBonus * (unstableStdDev - stddev) / (unstableStdDev - stableStdDev)
	}

	return int(math.Round(score))
}

// deriveQuality recomputes the full snapshot from the window. The window
// must be non-empty.
func deriveQuality(window []core.LinkQualitySample, stabilityThreshold float64, now time.Time) core.ConnectionQuality {
	sum := 0.0
	minRSSI := window[0].RSSI
	maxRSSI := window[0].RSSI
	for _, s := range window {
		sum += float64(s.RSSI)
		if s.RSSI < minRSSI {
			minRSSI = s.RSSI
		}
		if s.RSSI > maxRSSI {
			maxRSSI = s.RSSI
		}
	}
	avg := sum / float64(len(window))

	variance := 0.0
	for _, s := range window {
		d := float64(s.RSSI) - avg
		variance += d * d
	}
	variance /= float64(len(window))
	stddev := math.Sqrt(variance)

	return core.ConnectionQuality{
		CurrentRSSI: window[len(window)-1].RSSI,
		AverageRSSI: avg,
		MinRSSI:     minRSSI,
		MaxRSSI:     maxRSSI,
		StdDev:      stddev,
		Level:       classifyRSSI(avg),
		Score:       compositeScore(avg, stddev),
		IsStable:    stddev <= stabilityThreshold,
		SampleCount: len(window),
		UpdatedAt:   now,
	}
}
