// Package metrics holds the Prometheus instruments for the server and client.
//
// Constructors return nil when given a nil registry, and every method on a nil
// receiver is a no-op, so callers never need to check whether metrics are on.
package metrics
