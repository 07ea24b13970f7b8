package ports

// Sink consumes received samples.
// Write must deliver (and flush) the whole buffer or return an error.
// An error wrapping domain.ErrSinkClosed means the sink is gone for good.
type Sink interface {
	Write(p []byte) (int, error)
}
