// Package ports defines the interfaces that connect the netrng core to
// infrastructure adapters.
//
// Ports are the boundaries between the protocol engine and the outside
// world. They say what the core needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [EntropySource]: serialized reads from the entropy device
//   - [Resolver]: the server address a client should connect to
//   - [Sink]: the consumer of received samples (the rngd subprocess)
//
// The server and client packages depend only on these interfaces.
// internal/device, internal/discovery and internal/sink implement them.
package ports
