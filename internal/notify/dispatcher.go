package notify

import (
	"context"
	"log/slog"
	"time"

	"timeclock/pkg/platform/circuit"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 250 * time.Millisecond
)

// Dispatcher drains the ring buffer into a sink on a fixed cadence. A
// circuit breaker guards the sink so a dead broker does not burn a goroutine
// in hot retries; events stay buffered while the breaker is open.
type Dispatcher struct {
	buffer    *RingBuffer
	sink      Sink
	breaker   *circuit.Breaker
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithBatchSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		buffer:    NewRingBuffer(0),
		sink:      sink,
		breaker:   circuit.New("notify-sink", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second)),
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue buffers an event for delivery. Never blocks.
func (d *Dispatcher) Enqueue(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	d.buffer.Enqueue(event)
}

// Run drains the buffer until ctx is cancelled. A final best-effort flush
// runs on shutdown.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.flush(context.Background())
			return ctx.Err()
		case <-ticker.C:
			d.flush(ctx)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	if !d.breaker.Allow() {
		return
	}

	for {
		batch := d.buffer.DequeueBatch(d.batchSize)
		if len(batch) == 0 {
			return
		}

		if err := d.sink.Publish(ctx, batch); err != nil {
			_, change := d.breaker.RecordFailure()
			if change.Opened {
				d.logger.Warn("notification sink unhealthy, pausing delivery",
					"error", err, "buffered", d.buffer.Len())
			}
			// Re-buffer the failed batch so it is retried after cooldown.
			for _, event := range batch {
				d.buffer.Enqueue(event)
			}
			return
		}
		d.breaker.RecordSuccess()
	}
}
