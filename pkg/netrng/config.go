package netrng

import (
	"fmt"
	"time"

	"github.com/infincia/netrng/internal/client"
	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/internal/server"
	"github.com/infincia/netrng/internal/sink"
)

// Discovery backends for ClientConfig.Discovery.
const (
	DiscoveryStatic   = "static"
	DiscoveryFile     = "file"
	DiscoveryZeroconf = "zeroconf"
)

// DefaultDevice is the hardware RNG character device.
const DefaultDevice = "/dev/hwrng"

// ServerConfig configures a Server.
type ServerConfig struct {
	ListenAddress   string
	Port            int
	MaxClients      int
	SampleSizeBytes int
	ReceiveTimeout  time.Duration

	// Device is the entropy device path.
	Device string
	// DeviceRateLimit caps device reads in bytes per second. 0 disables it.
	DeviceRateLimit int

	// Zeroconf advertises the server as _netrng._tcp.
	Zeroconf bool
	// MetricsAddress serves /metrics when non-empty.
	MetricsAddress string
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() ServerConfig {
	d := server.DefaultConfig()
	return ServerConfig{
		ListenAddress:   d.ListenAddress,
		Port:            d.Port,
		MaxClients:      d.MaxClients,
		SampleSizeBytes: d.SampleSizeBytes,
		ReceiveTimeout:  d.ReceiveTimeout,
		Device:          DefaultDevice,
	}
}

func (c ServerConfig) internal() server.Config {
	cfg := server.DefaultConfig()
	cfg.ListenAddress = c.ListenAddress
	cfg.Port = c.Port
	cfg.MaxClients = c.MaxClients
	cfg.SampleSizeBytes = c.SampleSizeBytes
	if c.ReceiveTimeout > 0 {
		cfg.ReceiveTimeout = c.ReceiveTimeout
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c ServerConfig) Validate() error {
	if err := c.internal().Validate(); err != nil {
		return err
	}
	if c.DeviceRateLimit < 0 {
		return fmt.Errorf("%w: device rate limit must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// ServerAddress is the host:port used by static discovery.
	ServerAddress string
	// Discovery selects how the server address is found.
	Discovery string
	// DiscoveryFile holds host:port for file discovery.
	DiscoveryFile string

	QueueSize         int
	ReceiveTimeout    time.Duration
	HeartbeatPause    time.Duration
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	TimeoutDelay      time.Duration
	EnqueueTimeout    time.Duration
	DialTimeout       time.Duration

	// SinkCommand is the command fed with samples on stdin.
	// Empty discards samples.
	SinkCommand string

	// MetricsAddress serves /metrics when non-empty.
	MetricsAddress string
}

// DefaultClientConfig returns a ClientConfig with default values.
func DefaultClientConfig() ClientConfig {
	d := client.DefaultConfig()
	return ClientConfig{
		Discovery:         DiscoveryStatic,
		QueueSize:         d.QueueSize,
		ReceiveTimeout:    d.ReceiveTimeout,
		HeartbeatPause:    d.HeartbeatPause,
		ReconnectDelay:    d.ReconnectDelay,
		ReconnectDelayMax: d.ReconnectDelayMax,
		TimeoutDelay:      d.TimeoutDelay,
		EnqueueTimeout:    d.EnqueueTimeout,
		DialTimeout:       d.DialTimeout,
		SinkCommand:       sink.DefaultCommand,
	}
}

func (c ClientConfig) internal() client.Config {
	cfg := client.DefaultConfig()
	cfg.QueueSize = c.QueueSize
	cfg.ReceiveTimeout = c.ReceiveTimeout
	cfg.HeartbeatPause = c.HeartbeatPause
	cfg.ReconnectDelay = c.ReconnectDelay
	cfg.ReconnectDelayMax = c.ReconnectDelayMax
	cfg.TimeoutDelay = c.TimeoutDelay
	cfg.EnqueueTimeout = c.EnqueueTimeout
	cfg.DialTimeout = c.DialTimeout
	return cfg
}

// Validate checks the configuration for errors.
// Static discovery requires a resolvable ServerAddress unless a resolver
// is injected with WithResolver.
func (c ClientConfig) Validate() error {
	if err := c.internal().Validate(); err != nil {
		return err
	}
	switch c.Discovery {
	case DiscoveryStatic, DiscoveryZeroconf:
	case DiscoveryFile:
		if c.DiscoveryFile == "" {
			return fmt.Errorf("%w: discovery file is required", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown discovery backend %q", domain.ErrInvalidConfig, c.Discovery)
	}
	return nil
}
