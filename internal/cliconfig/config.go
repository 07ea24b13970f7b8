package cliconfig

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/infincia/netrng/internal/client"
	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/internal/server"
	"github.com/infincia/netrng/internal/sink"
	"github.com/infincia/netrng/pkg/log"
)

// Modes.
const (
	ModeServer = "server"
	ModeClient = "client"
)

// Discovery backends.
const (
	DiscoveryStatic   = "static"
	DiscoveryFile     = "file"
	DiscoveryZeroconf = "zeroconf"
)

// Defaults that have no home in the server or client packages.
const (
	DefaultMode          = ModeServer
	DefaultHWRNGDevice   = "/dev/hwrng"
	DefaultServerAddress = "192.168.1.2"
)

// Config holds CLI configuration for netrng.
type Config struct {
	Mode           string
	Port           int
	Debug          bool
	Zeroconf       bool
	LogFormat      string
	MetricsAddress string

	// Server
	ListenAddress        string
	MaxClients           int
	SampleSizeBytes      int
	HWRNGDevice          string
	ServerReceiveTimeout time.Duration
	DeviceRateLimit      int

	// Client
	ServerAddress        string
	Discovery            string
	DiscoveryFile        string
	QueueSize            int
	ClientReceiveTimeout time.Duration
	HeartbeatPause       time.Duration
	ReconnectDelay       time.Duration
	ReconnectDelayMax    time.Duration
	TimeoutDelay         time.Duration
	EnqueueTimeout       time.Duration
	DialTimeout          time.Duration
	SinkCommand          string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Mode:      DefaultMode,
		Port:      server.DefaultPort,
		LogFormat: log.FormatConsole,

		ListenAddress:        server.DefaultListenAddress,
		MaxClients:           server.DefaultMaxClients,
		SampleSizeBytes:      server.DefaultSampleSize,
		HWRNGDevice:          DefaultHWRNGDevice,
		ServerReceiveTimeout: server.DefaultReceiveTimeout,

		ServerAddress:        DefaultServerAddress,
		Discovery:            DiscoveryStatic,
		QueueSize:            client.DefaultQueueSize,
		ClientReceiveTimeout: client.DefaultReceiveTimeout,
		HeartbeatPause:       client.DefaultHeartbeatPause,
		ReconnectDelay:       client.DefaultReconnectDelay,
		TimeoutDelay:         client.DefaultTimeoutDelay,
		EnqueueTimeout:       client.DefaultEnqueueTimeout,
		DialTimeout:          client.DefaultDialTimeout,
		SinkCommand:          sink.DefaultCommand,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeClient:
	default:
		return fmt.Errorf("%w: mode must be %q or %q, got %q", domain.ErrInvalidConfig, ModeServer, ModeClient, c.Mode)
	}
	switch c.LogFormat {
	case log.FormatConsole, log.FormatJSON:
	default:
		return fmt.Errorf("%w: log_format must be %q or %q", domain.ErrInvalidConfig, log.FormatConsole, log.FormatJSON)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}

	if c.MaxClients <= 0 {
		return fmt.Errorf("%w: max_clients must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleSizeBytes <= 0 {
		return fmt.Errorf("%w: sample_size_bytes must be positive", domain.ErrInvalidConfig)
	}
	if c.DeviceRateLimit < 0 {
		return fmt.Errorf("%w: device_rate_limit must not be negative", domain.ErrInvalidConfig)
	}
	if c.Mode == ModeServer && c.HWRNGDevice == "" {
		return fmt.Errorf("%w: hwrng_device is required", domain.ErrInvalidConfig)
	}

	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", domain.ErrInvalidConfig)
	}
	if c.ReconnectDelayMax == 0 {
		c.ReconnectDelayMax = c.ReconnectDelay
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"server receive_timeout", c.ServerReceiveTimeout},
		{"client receive_timeout", c.ClientReceiveTimeout},
		{"heartbeat_pause", c.HeartbeatPause},
		{"reconnect_delay", c.ReconnectDelay},
		{"timeout_delay", c.TimeoutDelay},
		{"enqueue_timeout", c.EnqueueTimeout},
		{"dial_timeout", c.DialTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfig, d.name)
		}
	}
	if c.ReconnectDelayMax < c.ReconnectDelay {
		return fmt.Errorf("%w: reconnect_delay_max below reconnect_delay", domain.ErrInvalidConfig)
	}

	switch c.Discovery {
	case DiscoveryStatic:
		if c.Mode == ModeClient && !c.Zeroconf && c.ServerAddress == "" {
			return fmt.Errorf("%w: server_address is required", domain.ErrInvalidConfig)
		}
	case DiscoveryFile:
		if c.DiscoveryFile == "" {
			return fmt.Errorf("%w: discovery_file is required for file discovery", domain.ErrInvalidConfig)
		}
	case DiscoveryZeroconf:
	default:
		return fmt.Errorf("%w: unknown discovery backend %q", domain.ErrInvalidConfig, c.Discovery)
	}

	// The zeroconf switch predates the discovery setting.
	if c.Zeroconf && c.Discovery == DiscoveryStatic {
		c.Discovery = DiscoveryZeroconf
	}
	return nil
}

// ServerAddr returns the static server address as host:port.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerAddress, strconv.Itoa(c.Port))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStringPtr sets a string value, including the empty string, if value is
// not nil and flag not changed.
func (s *configSetter) setStringPtr(flag string, value *string, dst *string) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1", "yes" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1" || value == "yes"
}

// lookupEnv returns a pointer to the variable's value, or nil when unset.
func lookupEnv(key string) *string {
	if v, ok := os.LookupEnv(key); ok {
		return &v
	}
	return nil
}
