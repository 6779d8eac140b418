// Package keyring abstracts the secret store IMA and NMA read and write
// their private keys, public keys, shared secrets, and shared counters
// through. Secret storage and retrieval are out of this library's scope
// (spec §1) — production callers back Store with a real secret manager;
// Memory below is the in-process reference used by tests.
package keyring

import "strconv"

type kind int

const (
	kindPrivateKey kind = iota
	kindPublicKey
	kindSharedSecret
	kindSharedCounter
)

// identity is duplicated here (rather than imported from pkg/auth) to keep
// this package free of a dependency on the public package, which itself
// depends on keyring for Peer's Keyring field.
type identity = uint32

// Key is a tagged enumeration addressing one keyring entry. It replaces the
// source implementation's string descriptions ("PrivateKey:<id>",
// "SharedSecretKey:<A>:<B>", ...) with a closed set of constructors —
// those strings were a source-level accident, not a protocol requirement
// (design note §9). Description still renders the original string form,
// kept only so an adapter can address an existing string-keyed backend.
type Key struct {
	kind kind
	self identity
	peer identity
}

// PrivateKey addresses id's own private scalar.
func PrivateKey(id identity) Key { return Key{kind: kindPrivateKey, self: id} }

// PublicKey addresses id's public point.
func PublicKey(id identity) Key { return Key{kind: kindPublicKey, self: id} }

// SharedSecret addresses the shared secret self holds for the pair
// (self, peer). Descriptions are not canonicalized by swapping ids: each
// side stores from its own perspective, so SharedSecret(a, b) and
// SharedSecret(b, a) are different entries even though they hold the same
// value once IMA completes.
func SharedSecret(self, peer identity) Key {
	return Key{kind: kindSharedSecret, self: self, peer: peer}
}

// SharedCounter addresses the monotonic counter self holds for (self, peer).
func SharedCounter(self, peer identity) Key {
	return Key{kind: kindSharedCounter, self: self, peer: peer}
}

// Description renders the key the way the original source addressed it,
// kept only for debugging and for adapters fronting a string-keyed store;
// callers never need to parse it back.
func (k Key) Description() string {
	switch k.kind {
	case kindPrivateKey:
		return "PrivateKey:" + strconv.FormatUint(uint64(k.self), 10)
	case kindPublicKey:
		return "PublicKey:" + strconv.FormatUint(uint64(k.self), 10)
	case kindSharedSecret:
		return "SharedSecretKey:" + strconv.FormatUint(uint64(k.self), 10) + ":" + strconv.FormatUint(uint64(k.peer), 10)
	case kindSharedCounter:
		return "SharedCounter:" + strconv.FormatUint(uint64(k.self), 10) + ":" + strconv.FormatUint(uint64(k.peer), 10)
	default:
		return "unknown"
	}
}

// Store is the keyring adapter the core consumes.
type Store interface {
	Get(key Key, size int) ([]byte, bool, error)
	Put(key Key, value []byte) error
	Update(key Key, value []byte) error
}

// Locker hands out a per-pair exclusive lock across a ratchet's
// read-modify-write of (SharedSecret, SharedCounter), satisfying §5's
// requirement that the read-modify-write be atomic with respect to other
// concurrent NMA sessions for the same pair. Backends that cannot rely on
// an in-process mutex (a networked secret store, for instance) implement
// this with a distributed lock; Memory implements it directly.
type Locker interface {
	Lock(self, peer identity) (unlock func())
}
