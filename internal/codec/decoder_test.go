package codec

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"flowstate.dev/cortex/internal/core"
)

// quantizationStep is the smallest representable microvolt difference.
const quantizationStep = MicrovoltFullScale / digitalFullScale

func validHeadbandFrame(t *testing.T, seq uint16, samplesPerChannel int) []byte {
	t.Helper()
	channels := make(core.ChannelSamples, core.Headband.ChannelCount())
	for ch := range channels {
		channels[ch] = make([]float64, samplesPerChannel)
		for s := range channels[ch] {
			channels[ch][s] = float64(ch*10 + s)
		}
	}
	frame, err := Encode(core.Headband, seq, channels)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return frame
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(core.RawFrame{Data: []byte{0xAA, 0x55, 0x01}})
	if !errors.Is(err, core.ErrFrameTooShort) {
		t.Errorf("Expected ErrFrameTooShort, got %v", err)
	}
}

func TestDecodeInvalidSync(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 2)
	frame[0] = 0xDE
	// Sync check runs before the checksum check, so no CRC fixup needed.
	_, err := Decode(core.RawFrame{Data: frame})
	if !errors.Is(err, core.ErrInvalidHeader) {
		t.Errorf("Expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecodeChecksumMismatchOnPayloadFlip(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 4)
	// Flip one payload byte, leave the checksum field untouched.
	frame[headerLen] ^= 0x01
	_, err := Decode(core.RawFrame{Data: frame})
	if !errors.Is(err, core.ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}

func TestDecodeChecksumMismatchOnChecksumFlip(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 4)
	for _, idx := range []int{len(frame) - 2, len(frame) - 1} {
		corrupted := make([]byte, len(frame))
		copy(corrupted, frame)
		corrupted[idx] ^= 0xFF
		_, err := Decode(core.RawFrame{Data: corrupted})
		if !errors.Is(err, core.ErrChecksumMismatch) {
			t.Errorf("Byte %d: expected ErrChecksumMismatch, got %v", idx, err)
		}
	}
}

func TestDecodeUnknownDeviceClass(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 2)
	frame[2] = 0x7F
	// Re-seal the checksum so the class check is actually reached.
	crc := Checksum(frame[:len(frame)-checksumLen])
	binary.LittleEndian.PutUint16(frame[len(frame)-checksumLen:], crc)

	_, err := Decode(core.RawFrame{Data: frame})
	if !errors.Is(err, core.ErrUnknownDeviceClass) {
		t.Errorf("Expected ErrUnknownDeviceClass, got %v", err)
	}
}

func TestDecodeChannelCountMismatch(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 2)
	frame[3] = 3 // Headband expects 4
	crc := Checksum(frame[:len(frame)-checksumLen])
	binary.LittleEndian.PutUint16(frame[len(frame)-checksumLen:], crc)

	_, err := Decode(core.RawFrame{Data: frame})
	if !errors.Is(err, core.ErrChannelCountMismatch) {
		t.Errorf("Expected ErrChannelCountMismatch, got %v", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	frame := validHeadbandFrame(t, 1, 4)
	// Declare one more sample per channel than the payload carries.
	binary.LittleEndian.PutUint16(frame[6:8], 5)
	crc := Checksum(frame[:len(frame)-checksumLen])
	binary.LittleEndian.PutUint16(frame[len(frame)-checksumLen:], crc)

	_, err := Decode(core.RawFrame{Data: frame})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestDecodeZeroSampleFrame(t *testing.T) {
	// Minimum valid frame: header + checksum, zero samples.
	channels := make(core.ChannelSamples, core.Earpiece.ChannelCount())
	for ch := range channels {
		channels[ch] = []float64{}
	}
	frame, err := Encode(core.Earpiece, 7, channels)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(frame) != minFrameLen {
		t.Fatalf("Expected frame length %d, got %d", minFrameLen, len(frame))
	}

	pkt, err := Decode(core.RawFrame{Data: frame})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pkt.Metadata.SamplesPerChannel != 0 {
		t.Errorf("Expected 0 samples per channel, got %d", pkt.Metadata.SamplesPerChannel)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	channels := core.ChannelSamples{
		{0, 12.5, -37.25, 399.9},
		{1.5, -1.5, 100.0, -100.0},
	}
	frame, err := Encode(core.Earpiece, 65535, channels)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	pkt, err := Decode(core.RawFrame{Data: frame, Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	md := pkt.Metadata
	if md.DeviceClass != core.Earpiece {
		t.Errorf("Expected device class earpiece, got %s", md.DeviceClass)
	}
	if md.SequenceNumber != 65535 {
		t.Errorf("Expected sequence 65535, got %d", md.SequenceNumber)
	}
	if md.SamplingRate != 250 {
		t.Errorf("Expected sampling rate 250, got %d", md.SamplingRate)
	}
	if len(pkt.Channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(pkt.Channels))
	}
	for ch := range channels {
		for s := range channels[ch] {
			diff := math.Abs(pkt.Channels[ch][s] - channels[ch][s])
			if diff > quantizationStep {
				t.Errorf("Channel %d sample %d: got %f, want %f within %f",
					ch, s, pkt.Channels[ch][s], channels[ch][s], quantizationStep)
			}
		}
	}
}

func TestEncodeClampsFullScale(t *testing.T) {
	channels := core.ChannelSamples{
		{1000.0, -1000.0},
		{0, 0},
	}
	frame, err := Encode(core.Earpiece, 0, channels)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	pkt, err := Decode(core.RawFrame{Data: frame})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pkt.Channels[0][0] > MicrovoltFullScale {
		t.Errorf("Expected clamp at +%f, got %f", MicrovoltFullScale, pkt.Channels[0][0])
	}
	if pkt.Channels[0][1] < -MicrovoltFullScale {
		t.Errorf("Expected clamp at -%f, got %f", MicrovoltFullScale, pkt.Channels[0][1])
	}
}

func TestEncodeRejectsWrongChannelCount(t *testing.T) {
	_, err := Encode(core.Headband, 0, core.ChannelSamples{{1, 2}})
	if !errors.Is(err, core.ErrChannelCountMismatch) {
		t.Errorf("Expected ErrChannelCountMismatch, got %v", err)
	}
}

func TestEncodeRejectsRaggedChannels(t *testing.T) {
	_, err := Encode(core.Earpiece, 0, core.ChannelSamples{{1, 2, 3}, {1}})
	if err == nil {
		t.Error("Expected error for ragged channels, got nil")
	}
}

func TestDecodeSampleInterleaving(t *testing.T) {
	// Build a frame by hand so the interleaving order is pinned down:
	// sample-major, channel-minor.
	data := []byte{
		0xAA, 0x55, // sync
		byte(core.Earpiece), // class
		2,                   // channels
		0x2A, 0x00,          // seq 42
		0x02, 0x00, // 2 samples per channel
		0x01, 0x00, // s0 ch0 = 1
		0x02, 0x00, // s0 ch1 = 2
		0x03, 0x00, // s1 ch0 = 3
		0x04, 0x00, // s1 ch1 = 4
	}
	crc := Checksum(data)
	data = append(data, byte(crc), byte(crc>>8))

	pkt, err := Decode(core.RawFrame{Data: data})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := [][]float64{
		{1 * quantizationStep, 3 * quantizationStep},
		{2 * quantizationStep, 4 * quantizationStep},
	}
	for ch := range want {
		for s := range want[ch] {
			if math.Abs(pkt.Channels[ch][s]-want[ch][s]) > 1e-9 {
				t.Errorf("Channel %d sample %d: got %f, want %f",
					ch, s, pkt.Channels[ch][s], want[ch][s])
			}
		}
	}
}
