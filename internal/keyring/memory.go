package keyring

import (
	"fmt"
	"sync"
)

// Memory is an in-process keyring backed by a map, used by the tests and
// benchmarks. Access is guarded by a mutex so that concurrent IMA/NMA
// sessions touching the same identity pair serialize correctly (spec §5).
type Memory struct {
	mu        sync.Mutex
	data      map[string][]byte
	pairLocks map[string]*sync.Mutex
}

// NewMemory returns an empty in-memory keyring.
func NewMemory() *Memory {
	return &Memory{
		data:      make(map[string][]byte),
		pairLocks: make(map[string]*sync.Mutex),
	}
}

func (m *Memory) Get(key Key, size int) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key.Description()]
	if !ok {
		return nil, false, nil
	}
	if size > 0 && len(v) != size {
		return nil, false, fmt.Errorf("keyring: %s has length %d, want %d", key.Description(), len(v), size)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Put(key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key.Description()] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Update(key Key, value []byte) error {
	return m.Put(key, value)
}

// Lock implements Locker by handing out a dedicated mutex per (self, peer)
// pair, created lazily.
func (m *Memory) Lock(self, peer identity) func() {
	pairKey := fmt.Sprintf("%d:%d", self, peer)

	m.mu.Lock()
	l, ok := m.pairLocks[pairKey]
	if !ok {
		l = &sync.Mutex{}
		m.pairLocks[pairKey] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

var _ Store = (*Memory)(nil)
var _ Locker = (*Memory)(nil)
