package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/infincia/netrng/internal/cliconfig"
	"github.com/infincia/netrng/pkg/log"
	"github.com/infincia/netrng/pkg/netrng"
)

const helpDescription = `
Share a hardware random number generator over the network.

A server reads fixed-size samples from its entropy device and hands them to a
bounded number of clients. A client keeps a small queue of samples and feeds
them into a local sink such as rngd, switching to heartbeats when the sink
falls behind.

Configuration is read from /etc/netrng.toml, then NETRNG_* environment
variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  netrng server --hwrng-device /dev/hwrng --max-clients 4
  netrng client --server-address 192.168.1.2
  netrng client --zeroconf --sink-command "rngd -f -r /dev/stdin"
  netrng calibrate --period 30s
  netrng --config /etc/netrng.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return netrng.Version
}

// service is implemented by netrng.Server and netrng.Client.
type service interface {
	Start(ctx context.Context) error
	Stop() error
	Done() <-chan struct{}
	Err() error
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.New(log.Options{Format: log.FormatConsole})

	root := &cobra.Command{
		Use:           "netrng",
		Short:         "Share a hardware random number generator over the network",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd, &cfg, cfgPath, "")
			if err != nil {
				return err
			}
			if cfg.Mode == cliconfig.ModeClient {
				return runClient(cmd.Context(), cfg, l)
			}
			return runServer(cmd.Context(), cfg, l)
		},
	}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Serve samples from the local entropy device",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd, &cfg, cfgPath, cliconfig.ModeServer)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, l)
		},
	}

	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Fetch samples from a server and feed the local sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd, &cfg, cfgPath, cliconfig.ModeClient)
			if err != nil {
				return err
			}
			return runClient(cmd.Context(), cfg, l)
		},
	}

	root.AddCommand(serverCmd, clientCmd,
		newCalibrateCmd(&cfg, &cfgPath),
		newEntropyCheckCmd(&cfg, &cfgPath),
	)

	// Flags
	f := root.PersistentFlags()
	f.StringVar(&cfgPath, "config", "", fmt.Sprintf("path to config file (default: %s)", cliconfig.DefaultConfigPath))
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "run as server or client when no subcommand is given")
	f.IntVar(&cfg.Port, "port", cfg.Port, "server TCP port")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	f.BoolVar(&cfg.Zeroconf, "zeroconf", cfg.Zeroconf, "advertise (server) or discover (client) via zeroconf")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")
	f.StringVar(&cfg.MetricsAddress, "metrics-address", cfg.MetricsAddress, "serve Prometheus metrics on this address (disabled when empty)")

	f.StringVar(&cfg.ListenAddress, "listen-address", cfg.ListenAddress, "server listen address")
	f.IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "maximum concurrently served clients")
	f.IntVar(&cfg.SampleSizeBytes, "sample-size", cfg.SampleSizeBytes, "bytes per sample")
	f.StringVar(&cfg.HWRNGDevice, "hwrng-device", cfg.HWRNGDevice, "entropy device path")
	f.DurationVar(&cfg.ServerReceiveTimeout, "server-receive-timeout", cfg.ServerReceiveTimeout, "close sessions idle for this long")
	f.IntVar(&cfg.DeviceRateLimit, "device-rate-limit", cfg.DeviceRateLimit, "cap device reads in bytes per second (0 = unlimited)")

	f.StringVar(&cfg.ServerAddress, "server-address", cfg.ServerAddress, "server host for static discovery")
	f.StringVar(&cfg.Discovery, "discovery", cfg.Discovery, "server discovery: static, file or zeroconf")
	f.StringVar(&cfg.DiscoveryFile, "discovery-file", cfg.DiscoveryFile, "file holding host:port for file discovery")
	f.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "samples buffered between network and sink")
	f.DurationVar(&cfg.ClientReceiveTimeout, "receive-timeout", cfg.ClientReceiveTimeout, "client receive timeout")
	f.DurationVar(&cfg.HeartbeatPause, "heartbeat-pause", cfg.HeartbeatPause, "pause after a heartbeat exchange")
	f.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "wait after a connection error")
	f.DurationVar(&cfg.ReconnectDelayMax, "reconnect-delay-max", cfg.ReconnectDelayMax, "upper bound for exponential reconnect backoff, 0 keeps reconnect-delay constant")
	f.DurationVar(&cfg.TimeoutDelay, "timeout-delay", cfg.TimeoutDelay, "wait after a receive timeout")
	f.DurationVar(&cfg.EnqueueTimeout, "enqueue-timeout", cfg.EnqueueTimeout, "discard a sample if the queue stays full this long")
	f.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "TCP connect timeout")
	f.StringVar(&cfg.SinkCommand, "sink-command", cfg.SinkCommand, "command fed with samples on stdin (empty discards samples)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("netrng", log.Err(err))
		stop()
		os.Exit(1)
	}
}

// loadConfig applies file and environment configuration under the flags set
// on cmd, forces mode when non-empty, validates, and builds the logger.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath, mode string) (log.Logger, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgPath != "" || cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return nil, err
		}
	}

	// Apply environment variables (NETRNG_*)
	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return nil, err
	}

	if mode != "" {
		cfg.Mode = mode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New(log.Options{Format: cfg.LogFormat, Debug: cfg.Debug})
	logger.Debug("configuration", log.Any("config", *cfg))
	return logger, nil
}

func runServer(ctx context.Context, cfg cliconfig.Config, logger log.Logger) error {
	srv, err := netrng.NewServer(netrng.ServerConfig{
		ListenAddress:   cfg.ListenAddress,
		Port:            cfg.Port,
		MaxClients:      cfg.MaxClients,
		SampleSizeBytes: cfg.SampleSizeBytes,
		ReceiveTimeout:  cfg.ServerReceiveTimeout,
		Device:          cfg.HWRNGDevice,
		DeviceRateLimit: cfg.DeviceRateLimit,
		Zeroconf:        cfg.Zeroconf,
		MetricsAddress:  cfg.MetricsAddress,
	}, netrng.WithLogger(logger.With(log.String("mode", cliconfig.ModeServer))))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return run(ctx, srv, logger)
}

func runClient(ctx context.Context, cfg cliconfig.Config, logger log.Logger) error {
	cl, err := netrng.NewClient(netrng.ClientConfig{
		ServerAddress:     cfg.ServerAddr(),
		Discovery:         cfg.Discovery,
		DiscoveryFile:     cfg.DiscoveryFile,
		QueueSize:         cfg.QueueSize,
		ReceiveTimeout:    cfg.ClientReceiveTimeout,
		HeartbeatPause:    cfg.HeartbeatPause,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectDelayMax: cfg.ReconnectDelayMax,
		TimeoutDelay:      cfg.TimeoutDelay,
		EnqueueTimeout:    cfg.EnqueueTimeout,
		DialTimeout:       cfg.DialTimeout,
		SinkCommand:       cfg.SinkCommand,
		MetricsAddress:    cfg.MetricsAddress,
	}, netrng.WithLogger(logger.With(log.String("mode", cliconfig.ModeClient))))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return run(ctx, cl, logger)
}

// run starts svc and blocks until ctx is cancelled or svc stops on its own.
// A service that crashed returns its error so the process exits non-zero.
func run(ctx context.Context, svc service, logger log.Logger) error {
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping...")
	case <-svc.Done():
	}

	crashErr := svc.Err()
	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return crashErr
}
