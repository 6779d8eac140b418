// Package replay abstracts the per-peer commitment log and intrusion
// counters the verifier consults before accepting a Schnorr or NIZK proof
// (spec §4.4, §4.5). Persistence of these tables is out of this library's
// scope (spec §1); Memory below is the in-process reference used by tests.
package replay

import "time"

type identity = uint32

// Intrusion is the nondecreasing failure-class triple recorded per peer.
type Intrusion struct {
	SchnorrFailures  uint64
	MACFailures      uint64
	CombinedFailures uint64
}

// Store is the replay/intrusion adapter the core consumes, matching spec §6
// one-for-one plus the LastSeen supplement from SPEC_FULL §3 (an
// operator-facing readout with no protocol meaning of its own).
type Store interface {
	// CheckCommitment reports true iff r has not previously been accepted
	// from peer (ok to accept).
	CheckCommitment(peer identity, r [32]byte) (bool, error)

	// RecordCommitment marks r as seen for peer.
	RecordCommitment(peer identity, r [32]byte) error

	// ManageIntrusion increments the failure counters implied by
	// (schnorrOK, macOK); both true is a no-op.
	ManageIntrusion(peer identity, schnorrOK, macOK bool) error

	// CheckIntrusion reports, for peer, whether each failure class exceeds
	// its deployment-configured threshold.
	CheckIntrusion(peer identity) (schnorrExceeded, macExceeded, combinedExceeded bool, err error)

	// InitData creates zeroed counters for peer if absent.
	InitData(peer identity) error

	// LastSeen reports the last time a commitment was accepted from peer.
	// Implementations MAY leave this as the zero value; no IMA/NMA
	// invariant depends on it.
	LastSeen(peer identity) (time.Time, bool)
}
