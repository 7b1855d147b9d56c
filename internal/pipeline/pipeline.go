// Package pipeline implements the frame processing pipeline.
//
// One pipeline serves one logical connection: frames from the source are
// decoded, loss-accounted and quality-scored in a single processing
// goroutine, which is what keeps tracker state access serialized. Decode
// failures are counted and dropped; they never touch stream state.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"flowstate.dev/cortex/internal/codec"
	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
	"flowstate.dev/cortex/internal/metrics"
	"flowstate.dev/cortex/internal/quality"
	"flowstate.dev/cortex/internal/source"
	"flowstate.dev/cortex/internal/stream"
)

// Result is what the pipeline hands to the application layer for every
// successfully decoded frame.
type Result struct {
	Packet  core.DecodedPacket
	Verdict core.QualityVerdict
	Stream  stream.Observation
	// Cumulative connection statistics at the time of this frame.
	PacketsReceived uint64
	PacketsDropped  uint64
}

// Listener receives pipeline results. Dispatch is synchronous and ordered;
// listeners must not block.
type Listener interface {
	OnResult(r Result)
}

// Config contains pipeline configuration.
type Config struct {
	Source     source.Source
	Engine     *quality.Engine
	Logger     log.Logger
	BufferSize int // Raw frame channel buffer size
}

// Pipeline is a single-connection frame processing chain.
type Pipeline struct {
	src    source.Source
	engine *quality.Engine
	logger log.Logger
	state  *stream.State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	listeners []Listener

	frameChan chan core.RawFrame
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		src:       cfg.Source,
		engine:    cfg.Engine,
		logger:    cfg.Logger,
		state:     stream.NewState(),
		ctx:       ctx,
		cancel:    cancel,
		frameChan: make(chan core.RawFrame, cfg.BufferSize),
	}
}

// Subscribe registers a listener; duplicate registration is ignored.
func (p *Pipeline) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.listeners {
		if existing == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

// Unsubscribe removes a listener; removing an unknown listener is a no-op.
func (p *Pipeline) Unsubscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Start starts the source and processing goroutines.
func (p *Pipeline) Start() {
	p.logger.WithField("source", p.src.Name()).Info("pipeline starting")

	p.wg.Add(1)
	go p.sourceLoop()

	p.wg.Add(1)
	go p.processLoop()
}

// Stop stops the pipeline and waits for both goroutines to finish.
func (p *Pipeline) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("pipeline stopped")
}

// Stats returns the cumulative stream statistics.
func (p *Pipeline) Stats() (received, dropped uint64) {
	// state is only written by processLoop; reads after Stop are exact,
	// reads during operation are advisory diagnostics.
	return p.state.PacketsReceived, p.state.PacketsDropped
}

func (p *Pipeline) sourceLoop() {
	defer p.wg.Done()

	if err := p.src.Run(p.ctx, p.frameChan); err != nil && p.ctx.Err() == nil {
		p.logger.WithError(err).Error("frame source failed")
	}
	close(p.frameChan)
}

func (p *Pipeline) processLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case frame, ok := <-p.frameChan:
			if !ok {
				return
			}
			p.process(frame)
		}
	}
}

func (p *Pipeline) process(frame core.RawFrame) {
	pkt, err := codec.Decode(frame)
	if err != nil {
		metrics.DecodeErrorsTotal.WithLabelValues(decodeErrorReason(err)).Inc()
		p.logger.WithError(err).WithField("len", len(frame.Data)).Debug("frame rejected")
		return
	}

	obs := stream.Observe(p.state, pkt.Metadata)
	verdict := p.engine.Score(pkt.Channels)

	metrics.FramesDecodedTotal.WithLabelValues(pkt.Metadata.DeviceClass.String()).Inc()
	metrics.FrameSamples.Observe(float64(pkt.Metadata.SamplesPerChannel))
	metrics.SignalQualityScore.Set(float64(verdict.Score))
	if obs.DroppedSinceLast > 0 {
		metrics.PacketsDroppedTotal.Add(float64(obs.DroppedSinceLast))
		p.logger.WithFields(map[string]interface{}{
			"dropped": obs.DroppedSinceLast,
			"seq":     pkt.Metadata.SequenceNumber,
		}).Warn("frame gap detected")
	}
	if verdict.AmplitudeArtifact {
		metrics.ArtifactFramesTotal.WithLabelValues("amplitude").Inc()
	}
	if verdict.GradientArtifact {
		metrics.ArtifactFramesTotal.WithLabelValues("gradient").Inc()
	}
	if verdict.FlatlineArtifact {
		metrics.ArtifactFramesTotal.WithLabelValues("flatline").Inc()
	}

	result := Result{
		Packet:          pkt,
		Verdict:         verdict,
		Stream:          obs,
		PacketsReceived: p.state.PacketsReceived,
		PacketsDropped:  p.state.PacketsDropped,
	}

	p.mu.Lock()
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l.OnResult(result)
	}
}

// decodeErrorReason maps codec sentinels onto stable metric labels.
func decodeErrorReason(err error) string {
	switch {
	case errors.Is(err, core.ErrFrameTooShort):
		return "too_short"
	case errors.Is(err, core.ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, core.ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, core.ErrUnknownDeviceClass):
		return "unknown_device_class"
	case errors.Is(err, core.ErrChannelCountMismatch):
		return "channel_count_mismatch"
	case errors.Is(err, core.ErrLengthMismatch):
		return "length_mismatch"
	default:
		return "other"
	}
}
