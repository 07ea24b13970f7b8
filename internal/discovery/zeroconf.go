package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"

	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/pkg/log"
)

// Zeroconf service identifiers.
const (
	ServiceType   = "_netrng._tcp"
	ServiceDomain = "local."
)

// ErrWildcardAddress is returned by Advertise for a listen address that
// clients could not connect to.
var ErrWildcardAddress = errors.New("zeroconf cannot advertise a wildcard listen address, set listen_address")

// Browser resolves to the most recently announced netrng server.
type Browser struct {
	Dynamic

	logger log.Logger
}

// NewBrowser creates a zeroconf browser.
func NewBrowser(logger log.Logger) *Browser {
	return &Browser{logger: log.OrNoop(logger)}
}

// Run browses for servers until ctx is done.
func (b *Browser) Run(ctx context.Context) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return fmt.Errorf("zeroconf resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("zeroconf browse: %w", err)
	}
	b.logger.Info("browsing for servers", log.String("service", ServiceType))

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-entries:
			if !ok {
				return nil
			}
			b.handle(e)
		}
	}
}

// handle applies one announcement. A zero TTL withdraws the service.
func (b *Browser) handle(e *zeroconf.ServiceEntry) {
	if e == nil {
		return
	}
	if e.TTL == 0 {
		if b.Clear() {
			b.logger.Info("server withdrawn", log.String("instance", e.Instance))
		}
		return
	}
	addr, ok := entryAddress(e)
	if !ok {
		b.logger.Debug("ignoring announcement without address", log.String("instance", e.Instance))
		return
	}
	if b.Set(addr) {
		b.logger.Info("server discovered",
			log.String("instance", e.Instance),
			log.String("server", addr.String()),
			log.Any("txt", e.Text),
		)
	}
}

func entryAddress(e *zeroconf.ServiceEntry) (domain.Address, bool) {
	if e.Port <= 0 {
		return domain.Address{}, false
	}
	var host string
	switch {
	case len(e.AddrIPv4) > 0:
		host = e.AddrIPv4[0].String()
	case len(e.AddrIPv6) > 0:
		host = e.AddrIPv6[0].String()
	default:
		host = strings.TrimSuffix(e.HostName, ".")
	}
	if host == "" {
		return domain.Address{}, false
	}
	return domain.Address{Host: host, Port: e.Port}, true
}

// Advertisement is a registered zeroconf service.
type Advertisement struct {
	server *zeroconf.Server
	logger log.Logger
}

// Advertise registers the server at listenAddress:port under this host's
// name. The TXT record carries version.
func Advertise(listenAddress string, port int, version string, logger log.Logger) (*Advertisement, error) {
	logger = log.OrNoop(logger)

	ip := net.ParseIP(listenAddress)
	if listenAddress == "" || (ip != nil && ip.IsUnspecified()) {
		return nil, ErrWildcardAddress
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	text := []string{"version=" + version}
	srv, err := zeroconf.RegisterProxy(hostname, ServiceType, ServiceDomain, port,
		hostname, []string{listenAddress}, text, nil)
	if err != nil {
		return nil, fmt.Errorf("zeroconf register: %w", err)
	}

	logger.Info("registered zeroconf service",
		log.String("instance", hostname),
		log.String("address", listenAddress),
		log.Int("port", port),
	)
	return &Advertisement{server: srv, logger: logger}, nil
}

// Shutdown withdraws the service.
func (a *Advertisement) Shutdown() {
	a.logger.Info("unregistering zeroconf service")
	a.server.Shutdown()
}
