package netrng

import (
	"context"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/infincia/netrng/internal/device"
	"github.com/infincia/netrng/internal/discovery"
	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/server"
	"github.com/infincia/netrng/pkg/lifecycle"
	"github.com/infincia/netrng/pkg/log"
)

// Server serves entropy device samples to network clients.
// Use NewServer() to create an instance, then Start() to begin serving.
type Server struct {
	service
	config  ServerConfig
	metrics *metrics.Server
	addr    net.Addr
}

// NewServer creates a Server in StateStopped.
// Returns an error if configuration is invalid.
func NewServer(cfg ServerConfig, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	if o.registry == nil && cfg.MetricsAddress != "" {
		o.registry = prometheus.NewRegistry()
	}
	m, err := metrics.NewServer(registerer(o.registry))
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	s := &Server{config: cfg, metrics: m}
	s.init("server", o)
	return s, nil
}

// Start opens the entropy device, binds the listener and begins serving in
// the background. Device and listener errors are returned directly. A device
// failure while serving crashes the server: Done is closed and Err reports it.
func (s *Server) Start(ctx context.Context) error {
	return s.start(ctx, s.setup)
}

// setup builds the serving stack. Called with s.mu held.
func (s *Server) setup(ctx context.Context) (runFunc, error) {
	m := s.metrics
	source := s.opts.source
	if source == nil {
		devOpts := []device.Option{device.WithLogger(s.logger)}
		if m != nil {
			devOpts = append(devOpts, device.WithObserver(m))
		}
		if s.config.DeviceRateLimit > 0 {
			devOpts = append(devOpts, device.WithRateLimit(s.config.DeviceRateLimit))
		}
		guard, err := device.Open(s.config.Device, devOpts...)
		if err != nil {
			return nil, err
		}
		s.onClose(func() {
			if err := guard.Close(); err != nil {
				s.logger.Warn("close entropy device", log.Err(err))
			}
		})
		source = guard
	}

	cfg := s.config.internal()
	srv, err := server.New(cfg, source, server.WithLogger(s.logger), server.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Address(), err)
	}
	s.addr = ln.Addr()

	if s.config.Zeroconf {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.config.ListenAddress, port, Version, s.logger)
		if err != nil {
			ln.Close()
			return nil, err
		}
		s.onClose(adv.Shutdown)
	}

	s.serveMetrics(ctx, s.config.MetricsAddress)

	return func(ctx context.Context) error {
		return srv.Serve(ctx, ln)
	}, nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// registerer avoids passing a typed nil registry as a non-nil interface.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log":       {log.Version, log.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
