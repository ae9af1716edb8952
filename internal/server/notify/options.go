package notify

import (
	"log/slog"
	"time"
)

type Option func(*Publisher)

// WithLogger sets a custom logger for the Publisher.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLogHandler sets a custom log handler for the Publisher.
func WithLogHandler(handler slog.Handler) Option {
	return func(p *Publisher) {
		if handler != nil {
			p.logger = slog.New(handler).WithGroup("notify.Publisher")
		}
	}
}

// WithTopic sets the topic change summaries are published on.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithClientID sets the MQTT client identifier.
func WithClientID(id string) Option {
	return func(p *Publisher) {
		if id != "" {
			p.clientID = id
		}
	}
}

// WithQoS sets the MQTT quality of service level, 0 to 2.
func WithQoS(qos byte) Option {
	return func(p *Publisher) {
		if qos <= 2 {
			p.qos = qos
		}
	}
}

// WithConnectTimeout bounds the initial connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}
