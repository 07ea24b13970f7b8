package cliconfig

import (
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "/etc/netrng.toml"

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Mode           string `toml:"mode"`
	Port           int    `toml:"port"`
	Debug          *bool  `toml:"debug"`
	Zeroconf       *bool  `toml:"zeroconf"`
	LogFormat      string `toml:"log_format"`
	MetricsAddress string `toml:"metrics_address"`

	Server ServerFileConfig `toml:"server"`
	Client ClientFileConfig `toml:"client"`
}

// ServerFileConfig is the [server] table.
type ServerFileConfig struct {
	ListenAddress   string `toml:"listen_address"`
	MaxClients      int    `toml:"max_clients"`
	SampleSizeBytes int    `toml:"sample_size_bytes"`
	HWRNGDevice     string `toml:"hwrng_device"`
	ReceiveTimeout  string `toml:"receive_timeout"`
	DeviceRateLimit int    `toml:"device_rate_limit"`
}

// ClientFileConfig is the [client] table.
type ClientFileConfig struct {
	ServerAddress     string  `toml:"server_address"`
	Discovery         string  `toml:"discovery"`
	DiscoveryFile     string  `toml:"discovery_file"`
	QueueSize         int     `toml:"queue_size"`
	ReceiveTimeout    string  `toml:"receive_timeout"`
	HeartbeatPause    string  `toml:"heartbeat_pause"`
	ReconnectDelay    string  `toml:"reconnect_delay"`
	ReconnectDelayMax string  `toml:"reconnect_delay_max"`
	TimeoutDelay      string  `toml:"timeout_delay"`
	EnqueueTimeout    string  `toml:"enqueue_timeout"`
	DialTimeout       string  `toml:"dial_timeout"`
	SinkCommand       *string `toml:"sink_command"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setBool("debug", fc.Debug, &cfg.Debug)
	s.setBool("zeroconf", fc.Zeroconf, &cfg.Zeroconf)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("metrics-address", fc.MetricsAddress, &cfg.MetricsAddress)

	s.setString("listen-address", fc.Server.ListenAddress, &cfg.ListenAddress)
	s.setInt("max-clients", fc.Server.MaxClients, &cfg.MaxClients)
	s.setInt("sample-size", fc.Server.SampleSizeBytes, &cfg.SampleSizeBytes)
	s.setString("hwrng-device", fc.Server.HWRNGDevice, &cfg.HWRNGDevice)
	s.setInt("device-rate-limit", fc.Server.DeviceRateLimit, &cfg.DeviceRateLimit)
	if err := s.setDuration("server-receive-timeout", fc.Server.ReceiveTimeout, &cfg.ServerReceiveTimeout); err != nil {
		return err
	}

	s.setString("server-address", fc.Client.ServerAddress, &cfg.ServerAddress)
	s.setString("discovery", fc.Client.Discovery, &cfg.Discovery)
	s.setString("discovery-file", fc.Client.DiscoveryFile, &cfg.DiscoveryFile)
	s.setInt("queue-size", fc.Client.QueueSize, &cfg.QueueSize)
	s.setStringPtr("sink-command", fc.Client.SinkCommand, &cfg.SinkCommand)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"receive-timeout", fc.Client.ReceiveTimeout, &cfg.ClientReceiveTimeout},
		{"heartbeat-pause", fc.Client.HeartbeatPause, &cfg.HeartbeatPause},
		{"reconnect-delay", fc.Client.ReconnectDelay, &cfg.ReconnectDelay},
		{"reconnect-delay-max", fc.Client.ReconnectDelayMax, &cfg.ReconnectDelayMax},
		{"timeout-delay", fc.Client.TimeoutDelay, &cfg.TimeoutDelay},
		{"enqueue-timeout", fc.Client.EnqueueTimeout, &cfg.EnqueueTimeout},
		{"dial-timeout", fc.Client.DialTimeout, &cfg.DialTimeout},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
