package jobs

import (
	"context"
	"runtime/debug"
	"sync"

	"granville/pkg/logger"

	"go.uber.org/zap"
)

// Loop is a long-running background loop: the ranker, each dispatch
// worker, the metrics collector. Run must return promptly after ctx is
// cancelled; an in-flight unit of work may be finished first.
type Loop interface {
	Name() string
	Run(ctx context.Context)
}

// Manager orchestrates the lifecycle of background loops.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	loops   []Loop
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a loop manager bound to the provided context.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		loops:  make([]Loop, 0),
	}
}

// Register adds a loop to the manager.
func (m *Manager) Register(loop Loop) {
	if loop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loops = append(m.loops, loop)
}

// Start launches all registered loops.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	loops := append([]Loop(nil), m.loops...)
	m.mu.Unlock()

	for _, loop := range loops {
		m.wg.Add(1)
		go m.runLoop(loop)
	}
}

// Stop signals all loops to stop.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until all loops exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runLoop(loop Loop) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("background loop panicked",
				zap.String("loop", loop.Name()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	logger.Debug("background loop started", zap.String("loop", loop.Name()))
	loop.Run(m.ctx)
	logger.Debug("background loop exited", zap.String("loop", loop.Name()))
}
