package client

import (
	"fmt"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

// Default client settings.
const (
	DefaultQueueSize      = 10
	DefaultReceiveTimeout = 2 * time.Second
	DefaultHeartbeatPause = 1 * time.Second
	DefaultReconnectDelay = 10 * time.Second
	DefaultTimeoutDelay   = 1 * time.Second
	DefaultIdleInterval   = 1 * time.Second
	DefaultEnqueueTimeout = 5 * time.Second
	DefaultDialTimeout    = 5 * time.Second
)

// Config holds the settings of the client transport engine.
type Config struct {
	QueueSize      int
	ReceiveTimeout time.Duration
	HeartbeatPause time.Duration

	// ReconnectDelay is the wait after a hard connection error. Setting
	// ReconnectDelayMax above it makes consecutive failures back off
	// exponentially.
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration

	// TimeoutDelay is the wait after a receive timeout.
	TimeoutDelay time.Duration

	// IdleInterval is the wait between resolver checks while no server
	// address is known.
	IdleInterval time.Duration

	EnqueueTimeout time.Duration
	DialTimeout    time.Duration
}

// DefaultConfig returns the reference client settings.
func DefaultConfig() Config {
	return Config{
		QueueSize:         DefaultQueueSize,
		ReceiveTimeout:    DefaultReceiveTimeout,
		HeartbeatPause:    DefaultHeartbeatPause,
		ReconnectDelay:    DefaultReconnectDelay,
		ReconnectDelayMax: DefaultReconnectDelay,
		TimeoutDelay:      DefaultTimeoutDelay,
		IdleInterval:      DefaultIdleInterval,
		EnqueueTimeout:    DefaultEnqueueTimeout,
		DialTimeout:       DefaultDialTimeout,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", domain.ErrInvalidConfig)
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"receive_timeout", c.ReceiveTimeout},
		{"heartbeat_pause", c.HeartbeatPause},
		{"reconnect_delay", c.ReconnectDelay},
		{"timeout_delay", c.TimeoutDelay},
		{"idle_interval", c.IdleInterval},
		{"enqueue_timeout", c.EnqueueTimeout},
		{"dial_timeout", c.DialTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfig, d.name)
		}
	}
	if c.ReconnectDelayMax != 0 && c.ReconnectDelayMax < c.ReconnectDelay {
		return fmt.Errorf("%w: reconnect_delay_max below reconnect_delay", domain.ErrInvalidConfig)
	}
	return nil
}
