// Package discovery supplies the server address to the client.
//
// Every implementation satisfies ports.Resolver. Static never changes,
// Dynamic is set from code, FileWatcher follows a file on disk and Browser
// follows zeroconf announcements of the _netrng._tcp service. Advertise is
// the server side of zeroconf.
package discovery
