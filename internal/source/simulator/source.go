package simulator

import (
	"context"
	"math/rand"
	"time"

	"flowstate.dev/cortex/internal/codec"
	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
)

// Config holds simulator source settings.
type Config struct {
	DeviceClass     core.DeviceClass
	SamplesPerFrame int
	// DropEveryNth skips publishing every nth frame while still consuming
	// its sequence number, so downstream loss accounting sees real gaps.
	// 0 disables.
	DropEveryNth int
	// CorruptEveryNth flips one payload byte of every nth frame so the
	// checksum path is exercised. 0 disables.
	CorruptEveryNth int
	Generator       GeneratorConfig
	// Seed for reproducible runs; 0 means time-based.
	Seed int64
}

// Source emits encoded frames at the device's natural pacing.
type Source struct {
	cfg    Config
	logger log.Logger
	gen    *Generator
	rng    *rand.Rand
	seed   int64
}

// NewSource creates a simulator source for the given device class.
func NewSource(cfg Config, logger log.Logger) (*Source, error) {
	if !cfg.DeviceClass.Valid() {
		return nil, core.ErrUnknownDeviceClass
	}
	if cfg.SamplesPerFrame <= 0 {
		cfg.SamplesPerFrame = 25
	}
	if cfg.Generator.SamplingRate == 0 {
		cfg.Generator = DefaultGeneratorConfig(cfg.DeviceClass.SamplingRate(), cfg.DeviceClass.ChannelCount())
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Source{
		cfg:    cfg,
		logger: logger,
		gen:    NewGenerator(cfg.Generator, rng),
		rng:    rng,
		seed:   seed,
	}, nil
}

// Name returns the source identifier used in configuration.
func (s *Source) Name() string { return "simulator" }

// RSSIReader returns a simulated connection handle for the same virtual
// device. It owns a derived random stream, so reads never race the frame
// generator.
func (s *Source) RSSIReader() *RSSIReader {
	return NewRSSIReader(rand.New(rand.NewSource(s.seed + 1)))
}

// Run emits one frame per frame interval until ctx is cancelled.
func (s *Source) Run(ctx context.Context, frames chan<- core.RawFrame) error {
	interval := time.Duration(s.cfg.SamplesPerFrame) * time.Second /
		time.Duration(s.cfg.DeviceClass.SamplingRate())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithFields(map[string]interface{}{
		"device_class":      s.cfg.DeviceClass.String(),
		"samples_per_frame": s.cfg.SamplesPerFrame,
		"interval":          interval.String(),
	}).Info("simulator started")

	seq := uint16(0)
	emitted := uint64(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		data, err := codec.Encode(s.cfg.DeviceClass, seq, s.gen.Generate(s.cfg.SamplesPerFrame))
		if err != nil {
			// Generator and class are validated at construction; an encode
			// failure here is a bug worth surfacing loudly.
			return err
		}
		seq++
		emitted++

		if s.cfg.DropEveryNth > 0 && emitted%uint64(s.cfg.DropEveryNth) == 0 {
			continue
		}
		if s.cfg.CorruptEveryNth > 0 && emitted%uint64(s.cfg.CorruptEveryNth) == 0 {
			data[8+s.rng.Intn(len(data)-10)] ^= 0xFF
		}

		select {
		case frames <- core.RawFrame{Data: data, Timestamp: time.Now()}:
		case <-ctx.Done():
			return nil
		}
	}
}
