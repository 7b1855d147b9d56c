// Package simulator generates synthetic EEG frames for development and
// testing without hardware.
//
// The signal model is the usual band mixture: theta (4-8 Hz), alpha
// (8-12 Hz) and beta (12-30 Hz) sinusoids with slightly different
// frequencies and phases per channel, low-passed noise, and an occasional
// eye-blink artifact (a large slow gaussian deflection).
package simulator

import (
	"math"
	"math/rand"
)

// GeneratorConfig controls the synthetic signal mixture, amplitudes in µV.
type GeneratorConfig struct {
	SamplingRate   int
	Channels       int
	ThetaAmplitude float64
	AlphaAmplitude float64
	BetaAmplitude  float64
	NoiseAmplitude float64
	// BlinkProbability is the chance of one blink artifact per generated
	// chunk.
	BlinkProbability float64
}

// DefaultGeneratorConfig mirrors the amplitudes of a relaxed wakeful
// recording.
func DefaultGeneratorConfig(rate, channels int) GeneratorConfig {
	return GeneratorConfig{
		SamplingRate:     rate,
		Channels:         channels,
		ThetaAmplitude:   15.0,
		AlphaAmplitude:   10.0,
		BetaAmplitude:    5.0,
		NoiseAmplitude:   8.0,
		BlinkProbability: 0.02,
	}
}

const (
	blinkLength      = 50
	blinkAmplitudeUV = 80.0
)

// Generator produces continuous multi-channel synthetic EEG.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	t   float64 // current time in seconds

	// One-pole low-pass state per channel, for pink-ish noise.
	noiseState []float64
}

// NewGenerator creates a generator; rng may be seeded for reproducibility.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	return &Generator{
		cfg:        cfg,
		rng:        rng,
		noiseState: make([]float64, cfg.Channels),
	}
}

// Generate returns the next n samples for every channel, advancing the
// generator clock.
func (g *Generator) Generate(n int) [][]float64 {
	data := make([][]float64, g.cfg.Channels)
	dt := 1.0 / float64(g.cfg.SamplingRate)

	for ch := 0; ch < g.cfg.Channels; ch++ {
		chf := float64(ch)
		thetaFreq := 6.0 + 0.5*math.Sin(chf)
		alphaFreq := 10.0 + 0.3*chf
		betaFreq := 20.0 + chf

		samples := make([]float64, n)
		for i := 0; i < n; i++ {
			t := g.t + float64(i)*dt
			s := g.cfg.ThetaAmplitude * math.Sin(2*math.Pi*thetaFreq*t+chf)
			s += g.cfg.AlphaAmplitude * math.Sin(2*math.Pi*alphaFreq*t+chf*0.5)
			s += g.cfg.BetaAmplitude * math.Sin(2*math.Pi*betaFreq*t)
			s += g.nextNoise(ch)
			samples[i] = s
		}
		data[ch] = samples
	}

	if g.rng.Float64() < g.cfg.BlinkProbability && n >= blinkLength {
		g.addBlink(data, n)
	}

	g.t += float64(n) * dt
	return data
}

// nextNoise produces low-passed white noise, a cheap 1/f approximation.
func (g *Generator) nextNoise(ch int) float64 {
	white := g.rng.NormFloat64()
	g.noiseState[ch] = 0.9*g.noiseState[ch] + 0.1*white
	return g.noiseState[ch] * g.cfg.NoiseAmplitude * 3
}

// addBlink injects one gaussian deflection at a random position into every
// channel. Blinks are frontal and show up across the montage.
func (g *Generator) addBlink(data [][]float64, n int) {
	pos := g.rng.Intn(n - blinkLength + 1)
	for i := 0; i < blinkLength; i++ {
		x := float64(i) - blinkLength/2
		bump := blinkAmplitudeUV * math.Exp(-x*x/100)
		for ch := range data {
			data[ch][pos+i] += bump
		}
	}
}
