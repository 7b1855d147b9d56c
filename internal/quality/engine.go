// Package quality scores decoded EEG frames for signal artifacts.
//
// Scoring is pure and per-frame: the only temporal context used is the
// adjacency of samples within the frame itself, so frames can be scored
// concurrently and out of order.
package quality

import (
	"math"

	"flowstate.dev/cortex/internal/core"
)

// Thresholds holds the artifact detection constants. The values are
// empirically chosen; they are exposed as configuration rather than
// re-derived.
type Thresholds struct {
	// AmplitudeUV: absolute microvolt value above which a sample counts as
	// an amplitude artifact.
	AmplitudeUV float64 `mapstructure:"amplitude_uv"`
	// GradientUV: absolute difference between adjacent samples above which
	// the pair counts as a gradient artifact.
	GradientUV float64 `mapstructure:"gradient_uv"`
	// FlatlineEpsilonUV: adjacent differences below this count toward the
	// flatline tally (lost electrode contact).
	FlatlineEpsilonUV float64 `mapstructure:"flatline_epsilon_uv"`
}

// DefaultThresholds returns the production constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AmplitudeUV:       100.0,
		GradientUV:        50.0,
		FlatlineEpsilonUV: 0.01,
	}
}

// Flag ratios and the flatline penalty are structural to the verdict and
// not configurable.
const (
	amplitudeFlagRatio = 0.05
	gradientFlagRatio  = 0.10
	flatlineFlagRatio  = 0.50
	flatlinePenalty    = 20.0
)

// Engine scores channel samples against a fixed set of thresholds.
// Stateless and safe for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Score inspects every sample of every channel and produces a verdict.
//
// Empty input (no channels, or all channels zero-length) is treated as the
// worst case: score 0, artifact percentage 100, all flags set. Single-sample
// channels contribute to the amplitude tally but have no adjacent pairs.
func (e *Engine) Score(channels core.ChannelSamples) core.QualityVerdict {
	totalSamples := 0
	pairCount := 0
	amplitudeTally := 0
	gradientTally := 0
	flatlineTally := 0

	for _, samples := range channels {
		totalSamples += len(samples)
		for i, s := range samples {
			if math.Abs(s) > e.thresholds.AmplitudeUV {
				amplitudeTally++
			}
			if i == 0 {
				continue
			}
			pairCount++
			diff := math.Abs(s - samples[i-1])
			if diff > e.thresholds.GradientUV {
				gradientTally++
			}
			if diff < e.thresholds.FlatlineEpsilonUV {
				flatlineTally++
			}
		}
	}

	if totalSamples == 0 {
		return core.QualityVerdict{
			Score:             0,
			ArtifactPercent:   100.0,
			AmplitudeArtifact: true,
			GradientArtifact:  true,
			FlatlineArtifact:  true,
		}
	}

	amplitudeRate := float64(amplitudeTally) / float64(totalSamples)
	gradientRate := 0.0
	flatlineRate := 0.0
	if pairCount > 0 {
		gradientRate = float64(gradientTally) / float64(pairCount)
		flatlineRate = float64(flatlineTally) / float64(pairCount)
	}

	verdict := core.QualityVerdict{
		AmplitudeArtifact: amplitudeRate > amplitudeFlagRatio,
		GradientArtifact:  gradientRate > gradientFlagRatio,
		FlatlineArtifact:  flatlineRate > flatlineFlagRatio,
	}

	artifactPercent := amplitudeRate*100 + gradientRate*100
	if verdict.FlatlineArtifact {
		artifactPercent += flatlinePenalty
	}
	if artifactPercent > 100 {
		artifactPercent = 100
	}
	// One decimal, matching the reported resolution.
	verdict.ArtifactPercent = math.Round(artifactPercent*10) / 10

	score := math.Round(100 - verdict.ArtifactPercent)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	verdict.Score = int(score)
	return verdict
}
