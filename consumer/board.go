package consumer

import "sync"

var _ Sink = (*Board)(nil)

// Board is a [Sink] keeping the last snapshot of every consumer.
// It is safe for concurrent use, so readers outside the pipeline
// can query it while the pipeline updates it.
type Board struct {
	mx      sync.RWMutex
	states  map[string]Snapshot
	updates uint64
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		states: make(map[string]Snapshot),
	}
}

// Update stores snap as the state of its consumer.
func (b *Board) Update(snap Snapshot) {
	b.mx.Lock()
	defer b.mx.Unlock()

	b.states[snap.Key] = snap
	b.updates++
}

// Get returns the last snapshot of the consumer with the given key.
func (b *Board) Get(key string) (Snapshot, bool) {
	b.mx.RLock()
	defer b.mx.RUnlock()

	snap, ok := b.states[key]
	return snap, ok
}

// All returns the last snapshot of every updated consumer.
func (b *Board) All() map[string]Snapshot {
	b.mx.RLock()
	defer b.mx.RUnlock()

	res := make(map[string]Snapshot, len(b.states))
	for k, v := range b.states {
		res[k] = v
	}
	return res
}

// Updates returns the number of received updates.
func (b *Board) Updates() uint64 {
	b.mx.RLock()
	defer b.mx.RUnlock()

	return b.updates
}
