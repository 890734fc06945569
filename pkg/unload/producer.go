package unload

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/unloadpipe/unloadpipe/pkg/logger"
)

// producer runs the blocking unload statement in its own goroutine and makes
// its outcome pollable from the consuming side. Failures are recorded, never
// raised across the goroutine boundary. The failure is always recorded
// strictly before the done channel closes, so an observer that sees done
// closed also sees the final failure state.
type producer struct {
	logger logger.Logger

	mu        sync.Mutex
	err       error
	abandoned bool

	doneCh chan struct{}
}

func newProducer(l logger.Logger) *producer {
	return &producer{
		logger: l,
		doneCh: make(chan struct{}),
	}
}

// start launches run in a goroutine. A panic in run is captured and recorded
// as the producer's failure rather than crashing the consumer's process.
func (p *producer) start(ctx context.Context, run func(context.Context) error) {
	go func() {
		var runErr error
		recovered := panics.Try(func() {
			runErr = run(ctx)
		})
		if recovered != nil {
			runErr = recovered.AsError()
		}

		p.mu.Lock()
		if runErr != nil && !p.abandoned {
			p.err = runErr
			unloadFailuresCounter.Inc()
			p.logger.Error("unload statement failed", zap.Error(runErr))
		}
		p.mu.Unlock()

		close(p.doneCh)
	}()
}

// failure returns the recorded failure, or nil.
func (p *producer) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *producer) failed() bool {
	return p.failure() != nil
}

// abandon tells the producer the consumer stopped reading early. An error
// observed after abandonment is the statement dying under a deliberate
// teardown, not a failure worth reporting.
func (p *producer) abandon() {
	p.mu.Lock()
	p.abandoned = true
	p.mu.Unlock()
}

// wait blocks until the producer goroutine has finished.
func (p *producer) wait() {
	<-p.doneCh
}

// done returns a channel closed when the producer goroutine finishes.
func (p *producer) done() <-chan struct{} {
	return p.doneCh
}
