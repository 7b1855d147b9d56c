// Package pcapfile replays radio notifications from a pcap capture.
//
// Gateway traffic is usually captured as UDP datagrams, one notification
// per datagram; the UDP payload is re-injected as a RawFrame. Useful for
// reproducing field issues offline.
package pcapfile

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
)

// Config holds pcap replay settings.
type Config struct {
	FilePath string
	// Realtime preserves the original inter-packet gaps instead of
	// replaying as fast as possible.
	Realtime bool
}

// Source replays UDP payloads from a capture file.
type Source struct {
	cfg    Config
	logger log.Logger
}

// NewSource creates a pcap replay source.
func NewSource(cfg Config, logger log.Logger) (*Source, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("pcapfile: file_path is required")
	}
	return &Source{cfg: cfg, logger: logger}, nil
}

// Name returns the source identifier used in configuration.
func (s *Source) Name() string { return "pcap" }

// Run replays the capture until EOF or cancellation. EOF is a clean stop.
func (s *Source) Run(ctx context.Context, frames chan<- core.RawFrame) error {
	handle, err := pcap.OpenOffline(s.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("pcapfile: failed to open %s: %w", s.cfg.FilePath, err)
	}
	defer handle.Close()

	s.logger.WithField("file", s.cfg.FilePath).Info("replaying capture")

	var prevCapture time.Time
	replayed := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		data, ci, err := handle.ReadPacketData()
		if err == io.EOF {
			s.logger.WithField("frames", replayed).Info("capture replay finished")
			return nil
		}
		if err != nil {
			return fmt.Errorf("pcapfile: read failed: %w", err)
		}

		payload := udpPayload(data, handle.LinkType())
		if payload == nil {
			continue
		}

		if s.cfg.Realtime && !prevCapture.IsZero() {
			gap := ci.Timestamp.Sub(prevCapture)
			if gap > 0 {
				select {
				case <-time.After(gap):
				case <-ctx.Done():
					return nil
				}
			}
		}
		prevCapture = ci.Timestamp

		frame := core.RawFrame{Data: payload, Timestamp: ci.Timestamp}
		select {
		case frames <- frame:
			replayed++
		case <-ctx.Done():
			return nil
		}
	}
}

// udpPayload extracts the UDP application payload, or nil for non-UDP
// packets.
func udpPayload(data []byte, linkType layers.LinkType) []byte {
	packet := gopacket.NewPacket(data, linkType, gopacket.Default)
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil
	}
	udp := udpLayer.(*layers.UDP)
	if len(udp.Payload) == 0 {
		return nil
	}
	return udp.Payload
}
