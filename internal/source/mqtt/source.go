// Package mqtt implements a frame source backed by an MQTT broker.
//
// A gateway (phone app or BLE bridge) republishes each radio notification
// as one MQTT message; the payload is the frame verbatim, no envelope.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
)

// Config holds MQTT source settings.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	QoS      byte
}

// Source subscribes to a frame topic and forwards each message as one
// RawFrame.
type Source struct {
	cfg    Config
	logger log.Logger
}

// NewSource creates an MQTT frame source.
func NewSource(cfg Config, logger log.Logger) (*Source, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt: topic is required")
	}
	return &Source{cfg: cfg, logger: logger}, nil
}

// Name returns the source identifier used in configuration.
func (s *Source) Name() string { return "mqtt" }

// Run connects, subscribes and forwards frames until ctx is cancelled.
func (s *Source) Run(ctx context.Context, frames chan<- core.RawFrame) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.WithError(err).Warn("mqtt connection lost, reconnecting")
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		s.logger.WithField("broker", s.cfg.Broker).Info("connected to mqtt broker")
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt: connect timed out after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: failed to connect to broker: %w", err)
	}
	defer client.Disconnect(250)

	handler := func(_ paho.Client, msg paho.Message) {
		frame := core.RawFrame{
			// Copy: paho reuses message buffers after the handler returns.
			Data:      append([]byte(nil), msg.Payload()...),
			Timestamp: time.Now(),
		}
		select {
		case frames <- frame:
		case <-ctx.Done():
		}
	}

	sub := client.Subscribe(s.cfg.Topic, s.cfg.QoS, handler)
	if !sub.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("mqtt: subscribe timed out after %s", subscribeTimeout)
	}
	if err := sub.Error(); err != nil {
		return fmt.Errorf("mqtt: failed to subscribe to %s: %w", s.cfg.Topic, err)
	}
	s.logger.WithField("topic", s.cfg.Topic).Info("subscribed to frame topic")

	<-ctx.Done()
	return nil
}
