package core

import "time"

// QualityVerdict is the per-frame signal quality assessment. Immutable:
// recomputed from scratch for every frame, never mutated in place.
type QualityVerdict struct {
	Score             int     // 0-100, higher is cleaner
	ArtifactPercent   float64 // 0-100, one decimal
	AmplitudeArtifact bool    // Samples beyond the amplitude threshold
	GradientArtifact  bool    // Sudden jumps between adjacent samples
	FlatlineArtifact  bool    // Lost electrode contact, not low-frequency content
}

// QualityLevel is the four-level classification of radio link quality,
// ordered best to worst.
type QualityLevel int

const (
	LinkExcellent QualityLevel = iota
	LinkGood
	LinkFair
	LinkPoor
)

func (l QualityLevel) String() string {
	switch l {
	case LinkExcellent:
		return "excellent"
	case LinkGood:
		return "good"
	case LinkFair:
		return "fair"
	case LinkPoor:
		return "poor"
	}
	return "unknown"
}

// LinkQualitySample is a single RSSI reading.
type LinkQualitySample struct {
	RSSI      int // dBm
	Timestamp time.Time
}

// ConnectionQuality is an immutable snapshot derived from the sliding RSSI
// window. Recomputed on every new sample, never partially updated.
type ConnectionQuality struct {
	CurrentRSSI int     // dBm, most recent reading
	AverageRSSI float64 // dBm, over the window
	MinRSSI     int
	MaxRSSI     int
	StdDev      float64
	Level       QualityLevel
	Score       int  // 0-100 composite
	IsStable    bool // StdDev at or below the stability threshold
	SampleCount int
	UpdatedAt   time.Time
}
