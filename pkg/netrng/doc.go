// Package netrng provides embeddable NetRNG services.
//
// A [Server] reads samples from a hardware random number generator and hands
// them to network clients. A [Client] fetches samples from a server and feeds
// them into a local sink process such as rngd.
//
// # Basic Usage
//
//	cfg := netrng.DefaultServerConfig()
//	cfg.Device = "/dev/hwrng"
//
//	srv, err := netrng.NewServer(cfg, netrng.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
//	// ... run until shutdown signal or srv.Done() ...
//
//	if err := srv.Stop(); err != nil {
//	    logger.Warn("shutdown", log.Err(err))
//	}
//
// The client side follows the same pattern with [NewClient].
//
// # Lifecycle States
//
// Both services move through [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] and [StateCrashed]. A server whose entropy device fails
// enters StateCrashed and closes Done; Err reports the failure.
//
// # Metrics
//
// Pass a Prometheus registry with [WithMetricsRegistry] to collect metrics.
// When MetricsAddress is set the service also serves /metrics over HTTP.
package netrng
