// Package boot wires configuration into running components and owns the
// agent lifecycle: construct, start, wait for cancellation, stop.
package boot

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"flowstate.dev/cortex/internal/config"
	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/link"
	"flowstate.dev/cortex/internal/log"
	"flowstate.dev/cortex/internal/metrics"
	"flowstate.dev/cortex/internal/pipeline"
	"flowstate.dev/cortex/internal/quality"
	"flowstate.dev/cortex/internal/source"
	"flowstate.dev/cortex/internal/source/mqtt"
	"flowstate.dev/cortex/internal/source/pcapfile"
	"flowstate.dev/cortex/internal/source/simulator"
)

// Run starts the agent and blocks until SIGINT/SIGTERM or a fatal
// component error.
func Run(cfg *config.Config) error {
	logger := log.GetLogger()

	src, rssi, err := buildSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build source: %w", err)
	}

	engine := quality.NewEngine(cfg.Quality)
	pipe := pipeline.New(pipeline.Config{
		Source:     src,
		Engine:     engine,
		Logger:     logger.WithField("component", "pipeline"),
		BufferSize: cfg.Pipeline.BufferSize,
	})
	pipe.Subscribe(&logListener{logger: logger.WithField("component", "ingest")})

	monitor := link.NewMonitor(cfg.Link, logger.WithField("component", "link"))
	monitor.Subscribe(&metricsListener{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path,
			logger.WithField("component", "metrics"))
		if err := server.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return server.Stop(context.Background())
		})
	}

	pipe.Start()
	g.Go(func() error {
		<-ctx.Done()
		pipe.Stop()
		received, dropped := pipe.Stats()
		logger.WithFields(map[string]interface{}{
			"received": received,
			"dropped":  dropped,
		}).Info("ingest finished")
		return nil
	})

	// Link monitoring needs a pollable connection handle; only the
	// simulator provides one here. Bridged transports surface RSSI through
	// their own gateway metrics.
	if rssi != nil {
		monitor.Start(rssi)
		g.Go(func() error {
			<-ctx.Done()
			monitor.Stop()
			return nil
		})
	}

	logger.Info("cortex agent started")
	return g.Wait()
}

// buildSource constructs the configured frame source and, when available,
// the RSSI reader for the same connection.
func buildSource(cfg *config.Config, logger log.Logger) (source.Source, link.RSSIReader, error) {
	switch cfg.Source.Type {
	case "mqtt":
		s, err := mqtt.NewSource(mqtt.Config{
			Broker:   cfg.Source.MQTT.Broker,
			ClientID: cfg.Source.MQTT.ClientID,
			Topic:    cfg.Source.MQTT.Topic,
			Username: cfg.Source.MQTT.Username,
			Password: cfg.Source.MQTT.Password,
			QoS:      cfg.Source.MQTT.QoS,
		}, logger.WithField("component", "mqtt"))
		return s, nil, err

	case "pcap":
		s, err := pcapfile.NewSource(pcapfile.Config{
			FilePath: cfg.Source.Pcap.FilePath,
			Realtime: cfg.Source.Pcap.Realtime,
		}, logger.WithField("component", "pcap"))
		return s, nil, err

	case "simulator":
		class := core.Headband
		if cfg.Source.Simulator.DeviceClass == "earpiece" {
			class = core.Earpiece
		}
		gen := simulator.DefaultGeneratorConfig(class.SamplingRate(), class.ChannelCount())
		if cfg.Source.Simulator.ThetaAmplitudeUV > 0 {
			gen.ThetaAmplitude = cfg.Source.Simulator.ThetaAmplitudeUV
		}
		if cfg.Source.Simulator.NoiseAmplitudeUV > 0 {
			gen.NoiseAmplitude = cfg.Source.Simulator.NoiseAmplitudeUV
		}
		if cfg.Source.Simulator.BlinkProbability > 0 {
			gen.BlinkProbability = cfg.Source.Simulator.BlinkProbability
		}
		s, err := simulator.NewSource(simulator.Config{
			DeviceClass:     class,
			SamplesPerFrame: cfg.Source.Simulator.SamplesPerFrame,
			DropEveryNth:    cfg.Source.Simulator.DropEveryNth,
			CorruptEveryNth: cfg.Source.Simulator.CorruptEveryNth,
			Generator:       gen,
		}, logger.WithField("component", "simulator"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.RSSIReader(), nil

	default:
		return nil, nil, fmt.Errorf("%w: unsupported source type %q",
			core.ErrConfigInvalid, cfg.Source.Type)
	}
}

// logListener logs a periodic ingest summary instead of every frame.
type logListener struct {
	logger log.Logger
}

func (l *logListener) OnResult(r pipeline.Result) {
	if r.PacketsReceived%100 != 0 && !r.Stream.IsFirstPacket {
		return
	}
	l.logger.WithFields(map[string]interface{}{
		"device_class": r.Packet.Metadata.DeviceClass.String(),
		"seq":          r.Packet.Metadata.SequenceNumber,
		"score":        r.Verdict.Score,
		"received":     r.PacketsReceived,
		"dropped":      r.PacketsDropped,
	}).Info("ingest progress")
}

// metricsListener bridges link quality notifications into Prometheus.
type metricsListener struct{}

func (m *metricsListener) OnQualityUpdate(q core.ConnectionQuality) {
	metrics.LinkRSSI.Set(float64(q.CurrentRSSI))
	metrics.LinkQualityScore.Set(float64(q.Score))
}

func (m *metricsListener) OnQualityLevelChange(_, _ core.QualityLevel, _ core.ConnectionQuality) {
	metrics.LinkLevelChangesTotal.Inc()
}
