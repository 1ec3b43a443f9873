// Package bundle aggregates completed conversion outputs into one
// downloadable zip archive.
package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrFinalized = errors.New("bundle: already finalized")
	ErrEmpty     = errors.New("bundle: no entries registered")
)

type entry struct {
	name string
	data []byte
}

// Aggregator collects output buffers keyed by filename. Entries keep
// registration order, which is completion order, not enqueue order.
// It holds read-only copies: item lifecycle stays with the batch.
type Aggregator struct {
	mu        sync.Mutex
	entries   []entry
	taken     map[string]int
	finalized bool
}

func New() *Aggregator {
	return &Aggregator{taken: make(map[string]int)}
}

// Register adds one entry. A filename collision is resolved by
// suffixing the stem with -2, -3, ... so no entry silently overwrites
// another. The stored name is returned.
func (a *Aggregator) Register(name string, data []byte) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored := name
	if n := a.taken[name]; n > 0 {
		stem, ext := splitExt(name)
		stored = fmt.Sprintf("%s-%d%s", stem, n+1, ext)
	}
	a.taken[name]++

	a.entries = append(a.entries, entry{name: stored, data: append([]byte(nil), data...)})
	return stored
}

// Len reports the number of registered entries.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Names returns the stored entry names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

// Finalize produces the zip archive. It is called exactly once per
// batch run, after every item has been attempted; items that failed are
// simply absent.
func (a *Aggregator) Finalize() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	if len(a.entries) == 0 {
		return nil, ErrEmpty
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range a.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("bundle: failed to add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("bundle: failed to write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("bundle: failed to close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names the bundle deterministically from the batch start time.
func Filename(t time.Time) string {
	return "mediabatch-" + t.Format("20060102-150405") + ".zip"
}

func splitExt(name string) (stem, ext string) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
