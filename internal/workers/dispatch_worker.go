package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ngo_connect_backend/internal/delivery"
	"ngo_connect_backend/internal/logger"
)

// Deliverer sends one envelope on every configured channel.
type Deliverer interface {
	Deliver(ctx context.Context, env delivery.Envelope) error
}

// DropObserver is told about envelopes rejected by a full queue.
type DropObserver interface {
	QueueDropped()
}

// DispatchWorker drains a bounded queue of envelopes with a fixed number of
// goroutines. Enqueue never blocks the request path.
type DispatchWorker struct {
	deliverer Deliverer
	queue     chan delivery.Envelope
	workers   int
	observer  DropObserver
}

func NewDispatchWorker(deliverer Deliverer, workers, queueSize int, observer DropObserver) *DispatchWorker {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &DispatchWorker{
		deliverer: deliverer,
		queue:     make(chan delivery.Envelope, queueSize),
		workers:   workers,
		observer:  observer,
	}
}

// Enqueue reports false when the queue is full and the envelope was dropped.
func (w *DispatchWorker) Enqueue(env delivery.Envelope) bool {
	select {
	case w.queue <- env:
		return true
	default:
		if w.observer != nil {
			w.observer.QueueDropped()
		}
		logger.Warn("dispatch queue full, dropping notification",
			"notification_id", env.Notification.ID,
			"ngo_id", env.Notification.NGOID,
		)
		return false
	}
}

// Pending is the number of queued envelopes.
func (w *DispatchWorker) Pending() int {
	return len(w.queue)
}

// Start runs the workers until ctx is cancelled. Envelopes still queued at
// that point are not delivered.
func (w *DispatchWorker) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		name := fmt.Sprintf("dispatch-%d", i)
		g.Go(func() error {
			w.run(ctx, name)
			return nil
		})
	}
	logger.Info("dispatch workers started", "workers", w.workers, "queue_size", cap(w.queue))
	err := g.Wait()
	logger.Info("dispatch workers stopped")
	return err
}

func (w *DispatchWorker) run(ctx context.Context, name string) {
	for {
		// stop takes priority over queued work
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case env := <-w.queue:
			dctx := ctx
			if env.RequestID != "" {
				dctx = logger.WithRequestID(dctx, env.RequestID)
			}
			dctx = logger.WithCorrelationID(dctx, env.Notification.PostID)
			err := w.deliverer.Deliver(dctx, env)
			logger.WorkerLog(name, "deliver "+env.Notification.ID, err)
		}
	}
}
