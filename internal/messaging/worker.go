package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrMalformedPayload marks a task that can never succeed. Such tasks are
// rejected instead of requeued.
var ErrMalformedPayload = errors.New("malformed task payload")

type Handler func(ctx context.Context, payload []byte) error

type Worker struct {
	receiver    Receiver
	handlers    map[string]Handler
	concurrency int
	logger      *slog.Logger
}

func NewWorker(receiver Receiver, concurrency int, logger *slog.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		receiver:    receiver,
		handlers:    make(map[string]Handler),
		concurrency: concurrency,
		logger:      logger.With("component", "worker"),
	}
}

// Handle registers the handler for tasks from queue. It must be called
// before Run.
func (w *Worker) Handle(queue string, handler Handler) {
	w.handlers[queue] = handler
}

// Run processes tasks until ctx is cancelled or the receiver's task channel
// is closed.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("starting worker", "concurrency", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	w.logger.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	tasks := w.receiver.Tasks()
	for {
		select {
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, id, task)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, id int, task Task) {
	handler, ok := w.handlers[task.Type()]
	if !ok {
		w.logger.Warn("received task from unknown queue, discarding", "worker", id, "queue", task.Type())
		if err := task.Reject(); err != nil {
			w.logger.Error("error rejecting task", "queue", task.Type(), "error", err)
		}
		return
	}

	err := handler(ctx, task.Payload())
	switch {
	case err == nil:
		if err := task.Ack(); err != nil {
			w.logger.Error("error acking task", "queue", task.Type(), "error", err)
		}
	case errors.Is(err, ErrMalformedPayload):
		w.logger.Error("discarding malformed task", "worker", id, "queue", task.Type(), "error", err)
		if err := task.Reject(); err != nil {
			w.logger.Error("error rejecting task", "queue", task.Type(), "error", err)
		}
	default:
		w.logger.Error("error processing task", "worker", id, "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			w.logger.Error("error nacking task", "queue", task.Type(), "error", err)
		}
	}
}
