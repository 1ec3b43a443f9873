package batch

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrEmptyBatch = errors.New("batch: no items to convert")

// Batch owns the queued image items of one conversion run. Items belong
// to exactly one batch; discarding removes an item for good and
// releases its display handle.
type Batch struct {
	mu    sync.Mutex
	items []*Item
}

func New() *Batch {
	return &Batch{}
}

// Add decodes the file's dimensions and queues an idle item.
func (b *Batch) Add(name string, data []byte) (*Item, error) {
	it, err := NewItem(name, data)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, it)
	return it, nil
}

// Items returns the queued items in insertion order.
func (b *Batch) Items() []*Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Item, len(b.items))
	copy(out, b.items)
	return out
}

// Get finds an item by id.
func (b *Batch) Get(id uuid.UUID) (*Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.items {
		if it.id == id {
			return it, true
		}
	}
	return nil, false
}

// Discard removes an item regardless of state. Removal is checked
// before, not during, processing: an in-flight engine call is never
// interrupted.
func (b *Batch) Discard(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, it := range b.items {
		if it.id == id {
			it.release()
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
