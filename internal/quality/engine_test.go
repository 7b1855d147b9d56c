package quality

import (
	"math"
	"testing"

	"flowstate.dev/cortex/internal/core"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultThresholds())
}

// sinusoid generates amplitude*sin(2*pi*freq*t) sampled at rate Hz.
func sinusoid(amplitude, freq float64, rate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return samples
}

func TestScoreEmptyInput(t *testing.T) {
	e := newTestEngine()

	for name, channels := range map[string]core.ChannelSamples{
		"nil":          nil,
		"no channels":  {},
		"empty slices": {{}, {}, {}, {}},
	} {
		v := e.Score(channels)
		if v.Score != 0 {
			t.Errorf("%s: expected score 0, got %d", name, v.Score)
		}
		if v.ArtifactPercent != 100.0 {
			t.Errorf("%s: expected artifact percent 100, got %f", name, v.ArtifactPercent)
		}
		if !v.AmplitudeArtifact || !v.GradientArtifact || !v.FlatlineArtifact {
			t.Errorf("%s: expected all artifact flags set", name)
		}
	}
}

func TestScoreCleanSinusoid(t *testing.T) {
	e := newTestEngine()

	// Small-amplitude 6 Hz theta at 500 Hz: no amplitude excursions, no
	// jumps, clearly not flat.
	channels := core.ChannelSamples{
		sinusoid(15, 6, 500, 500),
		sinusoid(15, 6, 500, 500),
		sinusoid(15, 6, 500, 500),
		sinusoid(15, 6, 500, 500),
	}
	v := e.Score(channels)

	if v.Score <= 80 {
		t.Errorf("Expected score > 80 for clean sinusoid, got %d", v.Score)
	}
	if v.AmplitudeArtifact || v.GradientArtifact || v.FlatlineArtifact {
		t.Errorf("Expected no artifact flags, got %+v", v)
	}
}

func TestScoreAllZeroFlatline(t *testing.T) {
	e := newTestEngine()

	channels := core.ChannelSamples{
		make([]float64, 100),
		make([]float64, 100),
	}
	v := e.Score(channels)

	if !v.FlatlineArtifact {
		t.Error("Expected flatline flag for all-zero samples")
	}
	if v.Score > 80 {
		t.Errorf("Expected score <= 80 for flatline, got %d", v.Score)
	}
	if v.AmplitudeArtifact {
		t.Error("All-zero samples are not amplitude artifacts")
	}
}

func TestScoreAmplitudeArtifact(t *testing.T) {
	e := newTestEngine()

	// 10% of samples beyond the 100 uV threshold — exceeds the 5% flag
	// ratio. Keep the excursions adjacent so the gradient tally stays low.
	samples := sinusoid(10, 6, 500, 100)
	for i := 40; i < 50; i++ {
		samples[i] = 150
	}
	v := e.Score(core.ChannelSamples{samples})

	if !v.AmplitudeArtifact {
		t.Errorf("Expected amplitude flag, got %+v", v)
	}
}

func TestScoreGradientArtifact(t *testing.T) {
	e := newTestEngine()

	// Square wave at ±40 uV: every adjacent pair jumps 80 uV, beyond the
	// 50 uV gradient threshold, while amplitudes stay in range.
	samples := make([]float64, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 40
		} else {
			samples[i] = -40
		}
	}
	v := e.Score(core.ChannelSamples{samples})

	if !v.GradientArtifact {
		t.Errorf("Expected gradient flag, got %+v", v)
	}
	if v.AmplitudeArtifact {
		t.Errorf("Expected no amplitude flag, got %+v", v)
	}
	if v.Score != 0 {
		t.Errorf("Expected score 0 when every pair is artifactual, got %d", v.Score)
	}
}

func TestScoreSingleSampleChannels(t *testing.T) {
	e := newTestEngine()

	// No adjacent pairs: gradient and flatline cannot trigger, amplitude
	// still evaluates.
	v := e.Score(core.ChannelSamples{{250}, {250}})

	if !v.AmplitudeArtifact {
		t.Error("Expected amplitude flag for out-of-range single samples")
	}
	if v.GradientArtifact || v.FlatlineArtifact {
		t.Errorf("Expected no pair-based flags for single-sample channels, got %+v", v)
	}
}

func TestScorePerfectSignalIs100(t *testing.T) {
	e := newTestEngine()

	v := e.Score(core.ChannelSamples{sinusoid(20, 10, 250, 250)})

	if v.Score != 100 {
		t.Errorf("Expected score 100, got %d", v.Score)
	}
	if v.ArtifactPercent != 0 {
		t.Errorf("Expected artifact percent 0, got %f", v.ArtifactPercent)
	}
}

func TestScoreArtifactPercentCapped(t *testing.T) {
	e := newTestEngine()

	// Large constant samples: 100% amplitude rate plus the flatline
	// penalty must cap at 100, not 120.
	samples := make([]float64, 50)
	for i := range samples {
		samples[i] = 300
	}
	v := e.Score(core.ChannelSamples{samples})

	if v.ArtifactPercent != 100.0 {
		t.Errorf("Expected artifact percent capped at 100, got %f", v.ArtifactPercent)
	}
	if v.Score != 0 {
		t.Errorf("Expected score 0, got %d", v.Score)
	}
}

func TestScoreCustomThresholds(t *testing.T) {
	// A tighter amplitude threshold flags what the defaults would pass.
	e := NewEngine(Thresholds{
		AmplitudeUV:       10.0,
		GradientUV:        50.0,
		FlatlineEpsilonUV: 0.01,
	})

	v := e.Score(core.ChannelSamples{sinusoid(20, 6, 500, 500)})

	if !v.AmplitudeArtifact {
		t.Error("Expected amplitude flag with tightened threshold")
	}
}
