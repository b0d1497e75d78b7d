// Package lifecycle keeps the process alive after the map is written and
// decides the artifact's fate once the user interrupts.
//
// Shutdown is two-phase. A signal only raises a flag and cancels contexts
// derived with Context; the supervisory loop in Wait observes the flag on its
// next tick and returns, and the caller then runs Cleanup on the main
// goroutine.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPollInterval is the idle loop tick.
const DefaultPollInterval = time.Second

// Supervisor tracks whether termination has been requested.
type Supervisor struct {
	clock    clockwork.Clock
	interval time.Duration

	terminating atomic.Bool
	once        sync.Once
	done        chan struct{}
}

// NewSupervisor creates a Supervisor polling at interval on clock.
func NewSupervisor(clock clockwork.Clock, interval time.Duration) *Supervisor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Supervisor{clock: clock, interval: interval, done: make(chan struct{})}
}

// Interrupt requests termination. Safe to call from any goroutine and more
// than once.
func (s *Supervisor) Interrupt() {
	s.terminating.Store(true)
	s.once.Do(func() { close(s.done) })
}

// Done is closed by the first Interrupt.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Context returns a child of parent that is cancelled on Interrupt, so work
// in flight when the user presses Ctrl+C stops early.
func (s *Supervisor) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Terminating reports whether Interrupt has been called.
func (s *Supervisor) Terminating() bool {
	return s.terminating.Load()
}

// Watch relays every value received on ch to Interrupt until ch is closed.
func (s *Supervisor) Watch(ch <-chan os.Signal) {
	go func() {
		for sig := range ch {
			zap.L().Debug("signal received", zap.String("signal", sig.String()))
			s.Interrupt()
		}
	}()
}

// Listen intercepts SIGINT and SIGTERM and feeds them to Watch. The returned
// function restores default signal handling.
func (s *Supervisor) Listen() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	s.Watch(ch)
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}

// Wait idles until termination is requested or ctx is done. It returns nil
// on termination and ctx.Err() otherwise.
func (s *Supervisor) Wait(ctx context.Context) error {
	if s.Terminating() {
		return nil
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if s.Terminating() {
				return nil
			}
		}
	}
}
