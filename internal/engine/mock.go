package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryEngine is an in-memory implementation of Engine for testing.
// Invocations are delegated to a caller-supplied ExecFunc; the virtual
// filesystem is a map.
type MemoryEngine struct {
	// ExecFunc handles Execute calls. It may read and write virtual
	// files through the engine it receives. A nil ExecFunc makes every
	// invocation succeed without touching the filesystem.
	ExecFunc func(e *MemoryEngine, args []string) error

	// LoadErr, when set, makes Load fail with that error.
	LoadErr error

	mu    sync.Mutex
	ready bool
	files map[string][]byte
	calls [][]string
	subs  subscribers
}

var _ Engine = (*MemoryEngine)(nil)

// NewMemoryEngine creates an unloaded in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{files: make(map[string][]byte)}
}

func (e *MemoryEngine) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.LoadErr != nil {
		return e.LoadErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = true
	return nil
}

func (e *MemoryEngine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *MemoryEngine) WriteVirtualFile(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return ErrNotReady
	}
	e.files[name] = append([]byte(nil), data...)
	return nil
}

func (e *MemoryEngine) ReadVirtualFile(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return nil, ErrNotReady
	}
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

func (e *MemoryEngine) DeleteVirtualFile(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return ErrNotReady
	}
	delete(e.files, name)
	return nil
}

func (e *MemoryEngine) Execute(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.calls = append(e.calls, append([]string(nil), args...))
	fn := e.ExecFunc
	e.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(e, args)
}

func (e *MemoryEngine) SubscribeLogs(fn LogFunc) func() {
	return e.subs.addLog(fn)
}

func (e *MemoryEngine) SubscribeProgress(fn ProgressFunc) func() {
	return e.subs.addProgress(fn)
}

func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	e.files = make(map[string][]byte)
	return nil
}

// EmitLog delivers a diagnostic line to subscribers, as the real engine
// does while an invocation runs.
func (e *MemoryEngine) EmitLog(line string) {
	e.subs.emitLog(line)
}

// EmitProgress delivers a fractional progress tick to subscribers.
func (e *MemoryEngine) EmitProgress(fraction float64) {
	e.subs.emitProgress(fraction)
}

// Calls returns the argument lists of every Execute call, in order.
func (e *MemoryEngine) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// Files returns a snapshot of the virtual filesystem's names.
func (e *MemoryEngine) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.files))
	for name := range e.files {
		names = append(names, name)
	}
	return names
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
