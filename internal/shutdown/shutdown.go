// Package shutdown runs registered cleanup functions in reverse order when
// the process is asked to stop.
package shutdown

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Ljiacheng/aleo-std/internal/logging"
)

// Func is a cleanup step. It must return once ctx is done.
type Func func(ctx context.Context) error

// Manager handles graceful shutdown
type Manager struct {
	mu      sync.Mutex
	funcs   []namedFunc
	timeout time.Duration
	log     *logging.Logger
	once    sync.Once
}

type namedFunc struct {
	name string
	fn   Func
}

// New creates a shutdown manager giving all cleanup steps timeout in total.
func New(timeout time.Duration, log *logging.Logger) *Manager {
	return &Manager{timeout: timeout, log: log.WithComponent("shutdown")}
}

// Register adds a cleanup step. Steps run in reverse order (LIFO).
func (m *Manager) Register(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, namedFunc{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM is received or ctx is done, then runs
// Shutdown. It returns ctx.Err() when ctx ended the wait.
func (m *Manager) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	m.log.Info("Initiating graceful shutdown")
	errs := m.Shutdown()
	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %d step(s) failed, first: %w", len(errs), errs[0])
	}
	return ctx.Err()
}

// Shutdown runs every registered step once, newest first, and returns the
// errors they reported. Later calls do nothing.
func (m *Manager) Shutdown() []error {
	var errs []error
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		for i := len(m.funcs) - 1; i >= 0; i-- {
			f := m.funcs[i]
			if err := f.fn(ctx); err != nil {
				m.log.Error("shutdown step failed", logging.Fields{"step": f.name, "error": err.Error()})
				errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
				continue
			}
			m.log.Debug("shutdown step done", logging.Fields{"step": f.name})
		}
		m.log.Info("Graceful shutdown complete")
	})
	return errs
}

// StopHTTPServer creates a shutdown step for an http.Server
func StopHTTPServer(server interface{ Shutdown(context.Context) error }) Func {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop http server: %w", err)
		}
		return nil
	}
}
