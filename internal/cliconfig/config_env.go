package cliconfig

import (
	"os"
	"time"
)

// EnvPrefix is the prefix of every environment variable read by ApplyEnvConfig.
const EnvPrefix = "NETRNG_"

// ApplyEnvConfig applies configuration from environment variables (NETRNG_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("mode", env("MODE"), &cfg.Mode)
	s.setBoolFromString("debug", env("DEBUG"), &cfg.Debug)
	s.setBoolFromString("zeroconf", env("ZEROCONF"), &cfg.Zeroconf)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)
	s.setString("metrics-address", env("METRICS_ADDRESS"), &cfg.MetricsAddress)
	s.setString("listen-address", env("LISTEN_ADDRESS"), &cfg.ListenAddress)
	s.setString("hwrng-device", env("HWRNG_DEVICE"), &cfg.HWRNGDevice)
	s.setString("server-address", env("SERVER_ADDRESS"), &cfg.ServerAddress)
	s.setString("discovery", env("DISCOVERY"), &cfg.Discovery)
	s.setString("discovery-file", env("DISCOVERY_FILE"), &cfg.DiscoveryFile)
	s.setStringPtr("sink-command", lookupEnv(EnvPrefix+"SINK_COMMAND"), &cfg.SinkCommand)

	ints := []struct {
		flag string
		name string
		dst  *int
	}{
		{"port", "PORT", &cfg.Port},
		{"max-clients", "MAX_CLIENTS", &cfg.MaxClients},
		{"sample-size", "SAMPLE_SIZE_BYTES", &cfg.SampleSizeBytes},
		{"device-rate-limit", "DEVICE_RATE_LIMIT", &cfg.DeviceRateLimit},
		{"queue-size", "QUEUE_SIZE", &cfg.QueueSize},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, env(i.name), i.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		flag string
		name string
		dst  *time.Duration
	}{
		{"server-receive-timeout", "SERVER_RECEIVE_TIMEOUT", &cfg.ServerReceiveTimeout},
		{"receive-timeout", "RECEIVE_TIMEOUT", &cfg.ClientReceiveTimeout},
		{"heartbeat-pause", "HEARTBEAT_PAUSE", &cfg.HeartbeatPause},
		{"reconnect-delay", "RECONNECT_DELAY", &cfg.ReconnectDelay},
		{"reconnect-delay-max", "RECONNECT_DELAY_MAX", &cfg.ReconnectDelayMax},
		{"timeout-delay", "TIMEOUT_DELAY", &cfg.TimeoutDelay},
		{"enqueue-timeout", "ENQUEUE_TIMEOUT", &cfg.EnqueueTimeout},
		{"dial-timeout", "DIAL_TIMEOUT", &cfg.DialTimeout},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, env(d.name), d.dst); err != nil {
			return err
		}
	}

	return nil
}
