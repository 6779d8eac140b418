package replay

import (
	"sync"
	"time"
)

// Memory is an in-process replay/intrusion store. Thresholds are
// deployment-configured, per spec §4.5 ("the threshold is opaque to this
// spec") — Memory takes them as constructor parameters rather than baking
// in a default.
type Memory struct {
	mu          sync.Mutex
	commitments map[identity]map[[32]byte]struct{}
	intrusions  map[identity]*Intrusion
	lastSeen    map[identity]time.Time

	schnorrThreshold, macThreshold, combinedThreshold uint64
}

// NewMemory returns an empty store with the given per-class thresholds.
func NewMemory(schnorrThreshold, macThreshold, combinedThreshold uint64) *Memory {
	return &Memory{
		commitments:       make(map[identity]map[[32]byte]struct{}),
		intrusions:        make(map[identity]*Intrusion),
		lastSeen:          make(map[identity]time.Time),
		schnorrThreshold:  schnorrThreshold,
		macThreshold:      macThreshold,
		combinedThreshold: combinedThreshold,
	}
}

func (m *Memory) InitData(peer identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intrusions[peer]; !ok {
		m.intrusions[peer] = &Intrusion{}
	}
	if _, ok := m.commitments[peer]; !ok {
		m.commitments[peer] = make(map[[32]byte]struct{})
	}
	return nil
}

func (m *Memory) CheckCommitment(peer identity, r [32]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen, ok := m.commitments[peer]
	if !ok {
		return true, nil
	}
	_, used := seen[r]
	return !used, nil
}

func (m *Memory) RecordCommitment(peer identity, r [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitments[peer] == nil {
		m.commitments[peer] = make(map[[32]byte]struct{})
	}
	m.commitments[peer][r] = struct{}{}
	m.lastSeen[peer] = time.Now()
	return nil
}

func (m *Memory) ManageIntrusion(peer identity, schnorrOK, macOK bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intrusions[peer]
	if !ok {
		in = &Intrusion{}
		m.intrusions[peer] = in
	}
	if !schnorrOK {
		in.SchnorrFailures++
	}
	if !macOK {
		in.MACFailures++
	}
	if !schnorrOK && !macOK {
		in.CombinedFailures++
	}
	return nil
}

func (m *Memory) CheckIntrusion(peer identity) (bool, bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intrusions[peer]
	if !ok {
		return false, false, false, nil
	}
	return in.SchnorrFailures > m.schnorrThreshold,
		in.MACFailures > m.macThreshold,
		in.CombinedFailures > m.combinedThreshold,
		nil
}

func (m *Memory) LastSeen(peer identity) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.lastSeen[peer]
	return t, ok
}

var _ Store = (*Memory)(nil)
