package drive

import (
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/pkg/metrics"
)

// observe records the outcome of a finished operation. Failures are logged here and
// still returned to the caller.
func (c *Client) observe(op string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	metrics.DriveOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	fields = append(fields, zap.String("operation", op), zap.Duration("duration", elapsed))

	switch {
	case err == nil:
		metrics.DriveOperations.WithLabelValues(op, "success").Inc()
		c.log.Debug("drive operation completed", fields...)
	case IsKind(err, KindUnsupported):
		metrics.DriveOperations.WithLabelValues(op, "unsupported").Inc()
		c.log.Debug("drive operation not supported", fields...)
	default:
		metrics.DriveOperations.WithLabelValues(op, "failure").Inc()
		c.log.Warn("drive operation failed", append(fields, zap.Error(err))...)
	}
}
