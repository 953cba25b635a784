package backend

import (
	"fmt"
	"sync"
	"sync/atomic"
)

func init() {
	Register("echo", func() (Driver, error) { return NewEcho(), nil })
}

// bytesPerToken approximates the generation budget for the echo driver.
const bytesPerToken = 4

// Echo is a built-in driver that generates by echoing the prompt back,
// truncated to the token budget. It exists for smoke runs and tests; no
// model file is read.
type Echo struct {
	mu      sync.Mutex
	next    uint64
	handles map[uint64]string // handle -> path
	calls   atomic.Int64
}

// NewEcho creates an echo driver with no loaded models.
func NewEcho() *Echo {
	return &Echo{handles: make(map[uint64]string)}
}

func (e *Echo) Name() string    { return "echo" }
func (e *Echo) Version() string { return "1.0.0" }

// Calls reports how many Generate calls the driver has served.
func (e *Echo) Calls() int64 { return e.calls.Load() }

func (e *Echo) Load(path string) (Handle, error) {
	if len(path) > MaxPathLen {
		return nil, ErrPathTooLong
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.handles[e.next] = path
	return e.next, nil
}

func (e *Echo) Unload(h Handle) error {
	id, ok := h.(uint64)
	if !ok {
		return fmt.Errorf("echo: foreign handle %v", h)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handles[id]; !ok {
		return fmt.Errorf("echo: unknown handle %d", id)
	}
	delete(e.handles, id)
	return nil
}

func (e *Echo) Generate(h Handle, prompt string, maxTokens int) (string, error) {
	id, ok := h.(uint64)
	if !ok {
		return "", fmt.Errorf("echo: foreign handle %v", h)
	}
	e.mu.Lock()
	_, loaded := e.handles[id]
	e.mu.Unlock()
	if !loaded {
		return "", fmt.Errorf("echo: unknown handle %d", id)
	}
	if len(prompt) > MaxPromptLen {
		return "", ErrPromptTooLong
	}
	e.calls.Add(1)

	budget := maxTokens * bytesPerToken
	if budget > 0 && len(prompt) > budget {
		return prompt[:budget], nil
	}
	return prompt, nil
}

func (e *Echo) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handles = make(map[uint64]string)
	return nil
}
