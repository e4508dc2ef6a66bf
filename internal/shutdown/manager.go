// Package shutdown coordinates graceful teardown: components register in
// startup order and are shut down in reverse, under a shared deadline.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Component interface {
	Name() string
	Shutdown(ctx context.Context) error
}

// Func adapts a plain closer into a Component.
type Func struct {
	ComponentName string
	Close         func(ctx context.Context) error
}

func (f Func) Name() string                       { return f.ComponentName }
func (f Func) Shutdown(ctx context.Context) error { return f.Close(ctx) }

type Manager struct {
	mu         sync.Mutex
	components []Component
	log        zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log.With().Str("component", "shutdown").Logger()}
}

func (m *Manager) Register(component Component) {
	m.mu.Lock()
	m.components = append(m.components, component)
	m.mu.Unlock()
	m.log.Debug().Str("name", component.Name()).Msg("registered shutdown component")
}

// Shutdown tears components down in reverse registration order. Each
// component gets the remaining time under the shared deadline; a failing
// component is logged and the rest still run.
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]Component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	var firstErr error
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		if err := ctx.Err(); err != nil {
			m.log.Error().Err(err).Str("name", comp.Name()).Msg("shutdown deadline reached")
			return err
		}
		if err := comp.Shutdown(ctx); err != nil {
			m.log.Error().Err(err).Str("name", comp.Name()).Msg("component shutdown failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.log.Info().Str("name", comp.Name()).Msg("component shut down")
	}
	return firstErr
}
