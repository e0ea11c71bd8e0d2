package jobs

import (
	"context"
	"log"
	"time"
)

// Processor is one unit of recurring background work, such as the
// embedding backfill sweep.
type Processor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a Processor on a fixed poll interval until stopped.
type Worker struct {
	name         string
	processor    Processor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(name string, processor Processor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start blocks and runs the poll loop. Run it in its own goroutine.
// A failed sweep is logged and retried on the next tick.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("worker %s: started, poll interval %v", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %s: stopped, context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("worker %s: stop requested", w.name)
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("worker %s: sweep failed: %v", w.name, err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for the current sweep to finish.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("worker %s: shutdown complete", w.name)
}
