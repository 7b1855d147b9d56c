// Package codec implements the wire format for wearable EEG frames.
//
// One frame is one radio notification. Layout, little-endian multi-byte
// fields:
//
//	offset 0: 2 bytes  sync marker 0xAA 0x55
//	offset 2: 1 byte   device class
//	offset 3: 1 byte   channel count
//	offset 4: 2 bytes  sequence number (uint16, wraps)
//	offset 6: 2 bytes  samples per channel (uint16)
//	offset 8: N bytes  interleaved int16 samples, sample-major
//	          (sample 0 of channel 0, sample 0 of channel 1, ...)
//	offset 8+N: 2 bytes  CRC-16 over all preceding bytes
//
// Decoding is a pure function of the input bytes: no I/O, no state, safe to
// call concurrently for independent frames.
package codec

import (
	"encoding/binary"
	"time"

	"flowstate.dev/cortex/internal/core"
)

const (
	syncByte0 = 0xAA
	syncByte1 = 0x55

	headerLen      = 8
	checksumLen    = 2
	bytesPerSample = 2

	// minFrameLen is header + checksum with zero samples.
	minFrameLen = headerLen + checksumLen

	// MicrovoltFullScale maps the int16 digital full scale (±32768) to a
	// fixed ±µV range. The quantization step is FullScale/32768 µV.
	MicrovoltFullScale = 400.0

	digitalFullScale = 32768.0
)

// Decode validates and decodes one raw frame into metadata and per-channel
// microvolt samples. Validation is fail-fast and each failure maps to one of
// the core sentinel errors; a failed frame must simply be discarded.
func Decode(frame core.RawFrame) (core.DecodedPacket, error) {
	data := frame.Data

	// 1. Minimum length: header + checksum with zero samples.
	if len(data) < minFrameLen {
		return core.DecodedPacket{}, core.ErrFrameTooShort
	}

	// 2. Sync marker.
	if data[0] != syncByte0 || data[1] != syncByte1 {
		return core.DecodedPacket{}, core.ErrInvalidHeader
	}

	// 3. Checksum over everything except the trailing checksum field.
	body := data[:len(data)-checksumLen]
	declared := binary.LittleEndian.Uint16(data[len(data)-checksumLen:])
	if Checksum(body) != declared {
		return core.DecodedPacket{}, core.ErrChecksumMismatch
	}

	// 4. Device class must be a known enumeration value.
	class := core.DeviceClass(data[2])
	if !class.Valid() {
		return core.DecodedPacket{}, core.ErrUnknownDeviceClass
	}

	// 5. Declared channel count must agree with the class.
	channelCount := int(data[3])
	if channelCount != class.ChannelCount() {
		return core.DecodedPacket{}, core.ErrChannelCountMismatch
	}

	seq := binary.LittleEndian.Uint16(data[4:6])
	samplesPerChannel := int(binary.LittleEndian.Uint16(data[6:8]))

	// 6. Exact total length.
	payloadLen := channelCount * samplesPerChannel * bytesPerSample
	if len(data) != headerLen+payloadLen+checksumLen {
		return core.DecodedPacket{}, core.ErrLengthMismatch
	}

	// 7. De-interleave: sample-major order, one int16 per channel per
	// sample index, scaled to microvolts.
	channels := make(core.ChannelSamples, channelCount)
	for ch := range channels {
		channels[ch] = make([]float64, samplesPerChannel)
	}
	offset := headerLen
	for s := 0; s < samplesPerChannel; s++ {
		for ch := 0; ch < channelCount; ch++ {
			raw := int16(binary.LittleEndian.Uint16(data[offset : offset+2]))
			channels[ch][s] = float64(raw) * MicrovoltFullScale / digitalFullScale
			offset += bytesPerSample
		}
	}

	return core.DecodedPacket{
		Metadata: core.PacketMetadata{
			DeviceClass:       class,
			ChannelCount:      channelCount,
			SequenceNumber:    seq,
			SamplesPerChannel: samplesPerChannel,
			SamplingRate:      class.SamplingRate(),
		},
		Channels:  channels,
		Timestamp: time.Now(),
	}, nil
}
