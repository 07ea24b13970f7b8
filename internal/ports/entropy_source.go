package ports

import "context"

// EntropySource hands out freshly read samples from the entropy device.
// Implementations must serialize device access so that concurrent callers
// never receive interleaved or overlapping bytes.
type EntropySource interface {
	// ReadSample returns exactly n bytes read from the device.
	// A returned error wrapping domain.ErrDeviceFailure is unrecoverable.
	ReadSample(ctx context.Context, n int) ([]byte, error)
}
