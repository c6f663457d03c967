package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Dispatcher writes events to a Sink on an ants pool. A full pool drops
// the event rather than block the request.
type Dispatcher struct {
	pool   *ants.Pool
	sink   Sink
	logger *logger.CtxZapLogger
	now    func() time.Time
	closed int32
}

func NewDispatcher(sink Sink, poolSize int, log *logger.CtxZapLogger) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, sink: sink, logger: log, now: time.Now}, nil
}

// Emit implements Emitter
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if atomic.LoadInt32(&d.closed) == 1 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now()
	}
	if event.TraceID == "" {
		event.TraceID = logger.TraceIDFromContext(ctx)
	}

	// the request context may be cancelled before the sink runs
	asyncCtx := logger.WithTraceID(context.Background(), event.TraceID)
	err := d.pool.Submit(func() {
		if err := d.sink.Write(asyncCtx, event); err != nil {
			d.logger.ErrorCtx(asyncCtx, "audit sink write failed",
				zap.String("event", event.Type),
				zap.Error(err))
		}
	})
	if err != nil {
		d.logger.WarnCtx(ctx, "audit event dropped",
			zap.String("event", event.Type),
			zap.Error(err))
	}
}

// Close waits up to timeout for queued events, then closes the sink
func (d *Dispatcher) Close(timeout time.Duration) error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		d.logger.Warn("audit pool release timed out", zap.Error(err))
	}
	return d.sink.Close()
}

// Shutdown implements do.Shutdowner
func (d *Dispatcher) Shutdown() error {
	return d.Close(5 * time.Second)
}
