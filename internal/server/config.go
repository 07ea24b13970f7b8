package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

// MaxSampleSize is the largest sample that fits in one codec frame.
const MaxSampleSize = 1 << 20

// Default server settings.
const (
	DefaultListenAddress   = "0.0.0.0"
	DefaultPort            = 8989
	DefaultMaxClients      = 2
	DefaultSampleSize      = 2048
	DefaultReceiveTimeout  = 3 * time.Second
	DefaultWriteTimeout    = 3 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds the settings of a Server.
type Config struct {
	ListenAddress   string
	Port            int
	MaxClients      int
	SampleSizeBytes int
	ReceiveTimeout  time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the reference server settings.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   DefaultListenAddress,
		Port:            DefaultPort,
		MaxClients:      DefaultMaxClients,
		SampleSizeBytes: DefaultSampleSize,
		ReceiveTimeout:  DefaultReceiveTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Address returns the host:port the server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.Port))
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.MaxClients <= 0 {
		return fmt.Errorf("%w: max_clients must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleSizeBytes <= 0 {
		return fmt.Errorf("%w: sample_size_bytes must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleSizeBytes > MaxSampleSize {
		return fmt.Errorf("%w: sample_size_bytes above %d", domain.ErrInvalidConfig, MaxSampleSize)
	}
	if c.ReceiveTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: server timeouts must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
