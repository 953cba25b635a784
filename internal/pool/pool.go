// Package pool owns the loaded models and routes requests to the least
// busy one. A single mutex guards the model list and every busy counter;
// selection and the claiming increment happen under the same critical
// section so two workers can never claim the same idle model.
package pool

import (
	"fmt"
	"sync"

	"granville/pkg/backend"
	"granville/pkg/logger"
	"granville/pkg/modelspec"

	"go.uber.org/zap"
)

// Model is one loaded model entry. The id is unique for the lifetime of
// the pool and never reused.
type Model struct {
	ID     uint64
	Type   modelspec.Type
	Path   string
	handle backend.Handle
	active uint32
}

// Pool is the set of loaded models behind one driver.
type Pool struct {
	mu     sync.Mutex
	driver backend.Driver
	models []*Model
	nextID uint64
	closed bool
}

// New creates an empty pool over driver.
func New(driver backend.Driver) *Pool {
	return &Pool{driver: driver}
}

// Load asks the driver to load the spec's model file and appends the entry.
// A load failure leaves the pool unchanged. An explicit spec id must be
// unique; the auto-assign counter advances past it so later loads stay
// unique.
func (p *Pool) Load(spec modelspec.Spec) (*Model, error) {
	if spec.ID != 0 {
		p.mu.Lock()
		for _, m := range p.models {
			if m.ID == spec.ID {
				p.mu.Unlock()
				return nil, fmt.Errorf("model id %d already in use", spec.ID)
			}
		}
		p.mu.Unlock()
	}

	// The driver call can take seconds; keep it outside the lock.
	handle, err := p.driver.Load(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", spec.Path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = p.driver.Unload(handle)
		return nil, fmt.Errorf("pool is closed")
	}

	id := spec.ID
	if id == 0 {
		id = p.nextID + 1
	} else {
		// Re-check: a concurrent Load may have taken the explicit id
		// while the driver was working.
		for _, other := range p.models {
			if other.ID == id {
				_ = p.driver.Unload(handle)
				return nil, fmt.Errorf("model id %d already in use", id)
			}
		}
	}
	if id > p.nextID {
		p.nextID = id
	}

	m := &Model{ID: id, Type: spec.Type, Path: spec.Path, handle: handle}
	p.models = append(p.models, m)

	logger.Info("model loaded",
		zap.Uint64("model_id", m.ID),
		zap.String("type", string(m.Type)),
		zap.String("path", m.Path),
	)
	return m, nil
}

// GetByID returns the model with the given id, or nil.
func (p *Pool) GetByID(id uint64) *Model {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.models {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AcquireByID claims the named model, incrementing its busy count.
func (p *Pool) AcquireByID(id uint64) (*Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.models {
		if m.ID == id {
			m.active++
			return m, nil
		}
	}
	return nil, fmt.Errorf("model %d not loaded", id)
}

// AcquireLeastBusy claims the model with the fewest in-flight requests,
// breaking ties by insertion order. An empty filter matches every model;
// otherwise only models of that type, plus unassigned models, are
// considered. Returns nil when nothing matches.
func (p *Pool) AcquireLeastBusy(filter modelspec.Type) *Model {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *Model
	for _, m := range p.models {
		if filter != "" && m.Type != filter && m.Type != modelspec.TypeUnassigned {
			continue
		}
		if best == nil || m.active < best.active {
			best = m
		}
	}
	if best != nil {
		best.active++
	}
	return best
}

// Release returns a claimed model, saturating the busy count at zero.
func (p *Pool) Release(m *Model) {
	if m == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.active > 0 {
		m.active--
	}
}

// Count returns the number of loaded models.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.models)
}

// ActiveRequests snapshots the per-model busy counts.
func (p *Pool) ActiveRequests() map[uint64]uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uint64]uint32, len(p.models))
	for _, m := range p.models {
		out[m.ID] = m.active
	}
	return out
}

// Generate runs inference on a claimed model. The pool lock is not held
// across the call. The busy count taken at acquire time steers new work
// toward less busy models; it does not stop two callers from running on
// the same handle at once.
func (p *Pool) Generate(m *Model, prompt string, maxTokens int) (string, error) {
	return p.driver.Generate(m.handle, prompt, maxTokens)
}

// Close unloads every model and releases the driver. Safe to call after
// partial initialization and more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	models := p.models
	p.models = nil
	driver := p.driver
	p.mu.Unlock()

	for _, m := range models {
		if err := driver.Unload(m.handle); err != nil {
			logger.Warn("model unload failed", zap.Uint64("model_id", m.ID), zap.Error(err))
		}
	}
	if driver != nil {
		return driver.Close()
	}
	return nil
}
