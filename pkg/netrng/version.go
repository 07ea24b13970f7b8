package netrng

// Version information for the netrng module.
const (
	// Version is the current version of the netrng module.
	// It is advertised in the zeroconf TXT record.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)
