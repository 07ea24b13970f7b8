package device

import (
	"context"
	"errors"
	"time"

	"github.com/infincia/netrng/internal/ports"
)

// DefaultCalibrationPeriod is how long Calibrate reads when no period is given.
const DefaultCalibrationPeriod = 15 * time.Second

// Calibration is the measured sustained throughput of an entropy source.
type Calibration struct {
	Bytes          int64
	Elapsed        time.Duration
	BytesPerSecond float64
}

// MaxClients estimates how many clients can each be promised one sample of
// sampleSize bytes per second.
func (c Calibration) MaxClients(sampleSize int) int {
	if sampleSize <= 0 {
		return 0
	}
	return int(c.BytesPerSecond / float64(sampleSize))
}

// Calibrate reads samples of sampleSize bytes from src for period and
// reports the throughput. Cancelling ctx ends the measurement early and
// returns what was measured so far.
func Calibrate(ctx context.Context, src ports.EntropySource, sampleSize int, period time.Duration) (Calibration, error) {
	if period <= 0 {
		period = DefaultCalibrationPeriod
	}
	ctx, cancel := context.WithTimeout(ctx, period)
	defer cancel()

	var total int64
	start := time.Now()
	for ctx.Err() == nil {
		b, err := src.ReadSample(ctx, sampleSize)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return Calibration{}, err
		}
		total += int64(len(b))
	}
	elapsed := time.Since(start)

	c := Calibration{Bytes: total, Elapsed: elapsed}
	if elapsed > 0 {
		c.BytesPerSecond = float64(total) / elapsed.Seconds()
	}
	return c, nil
}
