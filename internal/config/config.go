// Package config handles agent configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"flowstate.dev/cortex/internal/link"
	"flowstate.dev/cortex/internal/log"
	"flowstate.dev/cortex/internal/quality"
)

// Config is the top-level agent configuration. Maps to the `cortex:` root
// key in YAML; env vars override via the CORTEX_ prefix (e.g.
// CORTEX_LOG_LEVEL).
type Config struct {
	Log      log.Config         `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	Source   SourceConfig       `mapstructure:"source" yaml:"source"`
	Pipeline PipelineConfig     `mapstructure:"pipeline" yaml:"pipeline"`
	Quality  quality.Thresholds `mapstructure:"quality" yaml:"quality"`
	Link     link.Config        `mapstructure:"link" yaml:"link"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SourceConfig selects and configures the frame source.
type SourceConfig struct {
	Type      string          `mapstructure:"type" yaml:"type"` // mqtt | pcap | simulator
	MQTT      MQTTConfig      `mapstructure:"mqtt" yaml:"mqtt"`
	Pcap      PcapConfig      `mapstructure:"pcap" yaml:"pcap"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

// MQTTConfig configures the MQTT frame source.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	QoS      byte   `mapstructure:"qos" yaml:"qos"`
}

// PcapConfig configures the pcap replay source.
type PcapConfig struct {
	FilePath string `mapstructure:"file_path" yaml:"file_path"`
	// Realtime replays at capture pacing instead of as fast as possible.
	Realtime bool `mapstructure:"realtime" yaml:"realtime"`
}

// SimulatorConfig configures the synthetic EEG source.
type SimulatorConfig struct {
	DeviceClass      string  `mapstructure:"device_class" yaml:"device_class"` // headband | earpiece
	SamplesPerFrame  int     `mapstructure:"samples_per_frame" yaml:"samples_per_frame"`
	DropEveryNth     int     `mapstructure:"drop_every_nth" yaml:"drop_every_nth"`
	CorruptEveryNth  int     `mapstructure:"corrupt_every_nth" yaml:"corrupt_every_nth"`
	ThetaAmplitudeUV float64 `mapstructure:"theta_amplitude_uv" yaml:"theta_amplitude_uv"`
	NoiseAmplitudeUV float64 `mapstructure:"noise_amplitude_uv" yaml:"noise_amplitude_uv"`
	BlinkProbability float64 `mapstructure:"blink_probability" yaml:"blink_probability"`
}

// PipelineConfig controls the ingest pipeline.
type PipelineConfig struct {
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

type configRoot struct {
	Cortex Config `mapstructure:"cortex"`
}

// Load loads configuration from file with env var overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `cortex.` key prefix maps to CORTEX_ env vars via the replacer
	// (key "cortex.log.level" → env "CORTEX_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Cortex

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values; all keys carry the "cortex." prefix to
// match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("cortex.log.level", "info")
	v.SetDefault("cortex.log.format", "text")
	v.SetDefault("cortex.log.appenders", []map[string]interface{}{{"type": "console"}})

	v.SetDefault("cortex.metrics.enabled", true)
	v.SetDefault("cortex.metrics.listen", ":9105")
	v.SetDefault("cortex.metrics.path", "/metrics")

	v.SetDefault("cortex.source.type", "simulator")
	v.SetDefault("cortex.source.mqtt.client_id", "cortex-agent")
	v.SetDefault("cortex.source.mqtt.topic", "eeg/+/frames")
	v.SetDefault("cortex.source.mqtt.qos", 1)
	v.SetDefault("cortex.source.simulator.device_class", "headband")
	v.SetDefault("cortex.source.simulator.samples_per_frame", 25)
	v.SetDefault("cortex.source.simulator.theta_amplitude_uv", 15.0)
	v.SetDefault("cortex.source.simulator.noise_amplitude_uv", 8.0)
	v.SetDefault("cortex.source.simulator.blink_probability", 0.02)

	v.SetDefault("cortex.pipeline.buffer_size", 1024)

	def := quality.DefaultThresholds()
	v.SetDefault("cortex.quality.amplitude_uv", def.AmplitudeUV)
	v.SetDefault("cortex.quality.gradient_uv", def.GradientUV)
	v.SetDefault("cortex.quality.flatline_epsilon_uv", def.FlatlineEpsilonUV)

	linkDef := link.DefaultConfig()
	v.SetDefault("cortex.link.poll_interval", linkDef.PollInterval.String())
	v.SetDefault("cortex.link.window_size", linkDef.WindowSize)
	v.SetDefault("cortex.link.stability_stddev", linkDef.StabilityStdDev)
}

// Validate checks cross-field consistency.
func (cfg *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text/json)", cfg.Log.Format)
	}

	switch cfg.Source.Type {
	case "mqtt":
		if cfg.Source.MQTT.Broker == "" {
			return fmt.Errorf("source.mqtt.broker is required when source.type=mqtt")
		}
	case "pcap":
		if cfg.Source.Pcap.FilePath == "" {
			return fmt.Errorf("source.pcap.file_path is required when source.type=pcap")
		}
	case "simulator":
		switch cfg.Source.Simulator.DeviceClass {
		case "headband", "earpiece":
		default:
			return fmt.Errorf("invalid simulator device_class: %s (must be headband/earpiece)",
				cfg.Source.Simulator.DeviceClass)
		}
	default:
		return fmt.Errorf("unsupported source.type: %s (must be mqtt/pcap/simulator)", cfg.Source.Type)
	}

	if cfg.Quality.AmplitudeUV <= 0 || cfg.Quality.GradientUV <= 0 || cfg.Quality.FlatlineEpsilonUV <= 0 {
		return fmt.Errorf("quality thresholds must be positive")
	}
	if cfg.Link.WindowSize <= 0 {
		return fmt.Errorf("link.window_size must be positive")
	}
	if cfg.Link.PollInterval <= 0 {
		return fmt.Errorf("link.poll_interval must be positive")
	}
	if cfg.Pipeline.BufferSize <= 0 {
		return fmt.Errorf("pipeline.buffer_size must be positive")
	}
	return nil
}
