package engine

import (
	"context"
	"errors"
)

var (
	ErrNotReady       = errors.New("engine: not loaded")
	ErrFFmpegNotFound = errors.New("engine: ffmpeg not found in PATH")
	ErrExecFailed     = errors.New("engine: invocation failed")
	ErrFileNotFound   = errors.New("engine: virtual file not found")
	ErrInvalidName    = errors.New("engine: invalid virtual file name")
)

// LogFunc receives one line of the engine's diagnostic output.
type LogFunc func(line string)

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(fraction float64)

// Engine is the boundary to the external media engine. It exposes a
// private staging area ("virtual filesystem") for input/output buffers
// and a single argument-driven execution context. Implementations must
// serialize Execute calls: the engine is a single-writer resource.
type Engine interface {
	// Load initializes the engine. It must be called once before any
	// other method; failure is fatal for the session.
	Load(ctx context.Context) error

	// Ready reports whether Load has completed successfully.
	Ready() bool

	WriteVirtualFile(name string, data []byte) error
	ReadVirtualFile(name string) ([]byte, error)
	DeleteVirtualFile(name string) error

	// Execute runs the engine with the given ordered argument list.
	Execute(ctx context.Context, args []string) error

	// SubscribeLogs registers fn for diagnostic output lines. The
	// returned func unregisters it; callers scope subscriptions to a
	// single operation to avoid cross-batch leakage.
	SubscribeLogs(fn LogFunc) (unsubscribe func())

	// SubscribeProgress registers fn for fractional progress ticks.
	// Ticks are best-effort and not guaranteed monotonic.
	SubscribeProgress(fn ProgressFunc) (unsubscribe func())

	// Close releases the staging area. The engine is unusable afterwards.
	Close() error
}
