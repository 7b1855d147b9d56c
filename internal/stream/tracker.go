// Package stream tracks per-connection packet continuity.
//
// Loss detection is purely sequence-number based and independent of payload
// content: the tracker only ever sees metadata from successfully decoded
// frames, so corrupted frames neither advance the stream nor inflate the
// drop counter.
package stream

import "flowstate.dev/cortex/internal/core"

const sequenceModulus = 65536

// State is the per-connection tracker state. One instance per logical
// connection, created at connection start and discarded at disconnect.
//
// State is not safe for concurrent mutation; all frames for one connection
// must be observed from a single goroutine.
type State struct {
	LastSequence    uint16
	HasSeenPacket   bool
	PacketsReceived uint64
	PacketsDropped  uint64
	DeviceClass     core.DeviceClass
}

// NewState returns a fresh tracker state with no observations.
func NewState() *State {
	return &State{}
}

// Observation is the result of observing one decoded frame.
type Observation struct {
	IsFirstPacket    bool
	DroppedSinceLast uint32
}

// Observe records one successfully decoded frame and returns the gap
// accounting for it, mutating state in place.
//
// Gap arithmetic is done on the forward distance modulo 65536, so
// wraparound is handled without sign errors (last=65534, observed=0 means
// exactly one frame was lost). A device-class change mid-stream is not an
// error; it simply updates the recorded class.
func Observe(state *State, md core.PacketMetadata) Observation {
	obs := Observation{}

	if !state.HasSeenPacket {
		obs.IsFirstPacket = true
		state.HasSeenPacket = true
	} else {
		expected := uint16((uint32(state.LastSequence) + 1) % sequenceModulus)
		if md.SequenceNumber != expected {
			distance := (uint32(md.SequenceNumber) + sequenceModulus -
				uint32(state.LastSequence)) % sequenceModulus
			if distance > 0 {
				obs.DroppedSinceLast = distance - 1
				state.PacketsDropped += uint64(distance - 1)
			}
		}
	}

	state.LastSequence = md.SequenceNumber
	state.DeviceClass = md.DeviceClass
	state.PacketsReceived++
	return obs
}
