package simulator

import (
	"context"
	"math/rand"
	"sync"
)

// RSSI random-walk bounds, dBm.
const (
	rssiFloor   = -95
	rssiCeiling = -40
	rssiStart   = -60
)

// RSSIReader simulates a radio connection handle: a bounded random walk
// around a typical indoor RSSI.
type RSSIReader struct {
	mu      sync.Mutex
	rng     *rand.Rand
	current int
}

// NewRSSIReader creates a simulated RSSI reader.
func NewRSSIReader(rng *rand.Rand) *RSSIReader {
	return &RSSIReader{rng: rng, current: rssiStart}
}

// ReadRSSI returns the next reading, drifting by at most ±2 dBm per poll.
func (r *RSSIReader) ReadRSSI(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current += r.rng.Intn(5) - 2
	if r.current < rssiFloor {
		r.current = rssiFloor
	}
	if r.current > rssiCeiling {
		r.current = rssiCeiling
	}
	return r.current, nil
}
