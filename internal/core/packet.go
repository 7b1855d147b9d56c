// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawFrame is one radio notification as delivered by the transport,
// zero-copy reference to the transport's buffer. It is only valid for the
// duration of one decode call; the codec never retains it.
type RawFrame struct {
	Data      []byte    // Raw frame bytes, zero-copy slice
	Timestamp time.Time // Receive timestamp assigned by the source
}

// PacketMetadata holds the decoded header fields of one frame.
type PacketMetadata struct {
	DeviceClass       DeviceClass
	ChannelCount      int
	SequenceNumber    uint16 // Wraps modulo 65536
	SamplesPerChannel int
	SamplingRate      int // Hz, derived from DeviceClass
}

// ChannelSamples is an ordered collection of per-channel microvolt
// sequences, one slice per channel, each of equal length. Produced fresh per
// decoded frame and owned by the caller.
type ChannelSamples [][]float64

// DecodedPacket is the result of decoding one valid frame.
type DecodedPacket struct {
	Metadata  PacketMetadata
	Channels  ChannelSamples
	Timestamp time.Time // Ingestion timestamp assigned by the codec
}
