package events

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authcore/internal/logging"
	"github.com/dmitrijs2005/authcore/internal/server/metrics"
	"github.com/dmitrijs2005/authcore/internal/server/models"
)

const (
	DefaultQueueSize      = 256
	DefaultWorkers        = 2
	DefaultPublishTimeout = 5 * time.Second
)

type DispatcherOptions struct {
	QueueSize      int
	Workers        int
	PublishTimeout time.Duration
}

func (o DispatcherOptions) withDefaults() DispatcherOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	return o
}

// Dispatcher is an asynchronous Notifier. Events go into a bounded queue
// served by a fixed set of workers; a full queue drops the event.
type Dispatcher struct {
	pub     Publisher
	log     logging.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	queue chan models.UserRegistered
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher starts the workers. Call Close to stop them.
func NewDispatcher(pub Publisher, log logging.Logger, m *metrics.Metrics, opts DispatcherOptions) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		pub:     pub,
		log:     log.With("module", "events"),
		metrics: m,
		timeout: opts.PublishTimeout,
		queue:   make(chan models.UserRegistered, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// NotifyUserRegistered never blocks.
func (d *Dispatcher) NotifyUserRegistered(evt models.UserRegistered) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(evt, "dispatcher closed")
		return
	}
	select {
	case d.queue <- evt:
	default:
		d.drop(evt, "queue full")
	}
}

func (d *Dispatcher) drop(evt models.UserRegistered, reason string) {
	d.metrics.EventDropped()
	d.log.Warn(context.Background(), "registration event dropped", "user_id", evt.ID, "reason", reason)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for evt := range d.queue {
		d.publish(evt)
	}
}

func (d *Dispatcher) publish(evt models.UserRegistered) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.pub.PublishUserRegistered(ctx, evt); err != nil {
		d.metrics.EventFailed()
		d.log.Error(ctx, "error publishing registration event", "user_id", evt.ID, "error", err)
		return
	}
	d.metrics.EventPublished()
	d.log.Debug(ctx, "registration event published", "user_id", evt.ID)
}

// Close stops intake and waits for queued events to be published, or for
// ctx to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
