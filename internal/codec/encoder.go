package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"flowstate.dev/cortex/internal/core"
)

// Encode builds a wire frame for the given device class and per-channel
// microvolt samples. It is the inverse of Decode modulo the fixed
// quantization step and is used by the simulator and by tests.
//
// Every channel slice must have the same length and the channel count must
// match the device class.
func Encode(class core.DeviceClass, seq uint16, channels core.ChannelSamples) ([]byte, error) {
	if !class.Valid() {
		return nil, core.ErrUnknownDeviceClass
	}
	if len(channels) != class.ChannelCount() {
		return nil, fmt.Errorf("%w: got %d channels, class %s expects %d",
			core.ErrChannelCountMismatch, len(channels), class, class.ChannelCount())
	}
	samplesPerChannel := 0
	if len(channels) > 0 {
		samplesPerChannel = len(channels[0])
	}
	for ch, samples := range channels {
		if len(samples) != samplesPerChannel {
			return nil, fmt.Errorf("cortex: channel %d has %d samples, want %d",
				ch, len(samples), samplesPerChannel)
		}
	}
	if samplesPerChannel > math.MaxUint16 {
		return nil, fmt.Errorf("cortex: samples per channel %d exceeds uint16", samplesPerChannel)
	}

	payloadLen := len(channels) * samplesPerChannel * bytesPerSample
	frame := make([]byte, headerLen+payloadLen+checksumLen)

	frame[0] = syncByte0
	frame[1] = syncByte1
	frame[2] = byte(class)
	frame[3] = byte(len(channels))
	binary.LittleEndian.PutUint16(frame[4:6], seq)
	binary.LittleEndian.PutUint16(frame[6:8], uint16(samplesPerChannel))

	offset := headerLen
	for s := 0; s < samplesPerChannel; s++ {
		for ch := range channels {
			binary.LittleEndian.PutUint16(frame[offset:offset+2], uint16(quantize(channels[ch][s])))
			offset += bytesPerSample
		}
	}

	crc := Checksum(frame[:len(frame)-checksumLen])
	binary.LittleEndian.PutUint16(frame[len(frame)-checksumLen:], crc)
	return frame, nil
}

// quantize converts microvolts to the int16 digital value, clamping to the
// full-scale range.
func quantize(uv float64) int16 {
	digital := math.Round(uv * digitalFullScale / MicrovoltFullScale)
	if digital > math.MaxInt16 {
		return math.MaxInt16
	}
	if digital < math.MinInt16 {
		return math.MinInt16
	}
	return int16(digital)
}
