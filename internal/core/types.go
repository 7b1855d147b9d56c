// Package core defines core types with zero external dependencies.
package core

// DeviceClass identifies the kind of wearable that produced a frame.
//
// The enumeration is closed: each class carries a fixed channel count and a
// fixed sampling rate, and the codec rejects frames whose declared channel
// count disagrees with the class. Adding a new device class means adding a
// constant here plus entries in the lookup tables — nothing else branches on
// raw class bytes.
type DeviceClass uint8

const (
	// Headband is the 4-channel headband form factor sampling at 500 Hz.
	Headband DeviceClass = 0x01
	// Earpiece is the 2-channel in-ear form factor sampling at 250 Hz.
	Earpiece DeviceClass = 0x02
)

var channelCounts = map[DeviceClass]int{
	Headband: 4,
	Earpiece: 2,
}

var samplingRates = map[DeviceClass]int{
	Headband: 500,
	Earpiece: 250,
}

var classNames = map[DeviceClass]string{
	Headband: "headband",
	Earpiece: "earpiece",
}

// Valid reports whether c is a known device class.
func (c DeviceClass) Valid() bool {
	_, ok := channelCounts[c]
	return ok
}

// ChannelCount returns the fixed number of EEG channels for the class,
// or 0 for unknown classes.
func (c DeviceClass) ChannelCount() int {
	return channelCounts[c]
}

// SamplingRate returns the fixed per-channel sampling rate in Hz,
// or 0 for unknown classes.
func (c DeviceClass) SamplingRate() int {
	return samplingRates[c]
}

func (c DeviceClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}
