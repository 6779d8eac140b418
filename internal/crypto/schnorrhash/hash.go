// Package schnorrhash provides the SHA3-256 hashing this library uses to
// derive challenges, MACs, and ratcheted keys from a variable number of
// fields, some of which may be entirely absent rather than merely empty.
package schnorrhash

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Sum256 hashes a single value with SHA3-256. Used for session-key
// derivation, where there is exactly one input (a compressed curve point)
// and no concatenation ambiguity to guard against.
func Sum256(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// Builder frames each written field with a 4-byte big-endian length prefix
// before hashing it, so that concatenating fields of different lengths
// never produces the same digest as a different split of the same bytes.
type Builder struct {
	h hash.Hash
}

// New starts a fresh framed hash.
func New() *Builder {
	return &Builder{h: sha3.New256()}
}

// Write appends a length-framed field.
func (b *Builder) Write(field []byte) *Builder {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	b.h.Write(lenBuf[:])
	b.h.Write(field)
	return b
}

// WriteOptional appends a field that may be entirely absent. An absent
// field is framed with a marker distinct from any present field, including
// a present-but-empty one: present=false never hashes the same as
// present=true with field=nil.
func (b *Builder) WriteOptional(field []byte, present bool) *Builder {
	if !present {
		b.h.Write([]byte{0x00})
		return b
	}
	b.h.Write([]byte{0x01})
	return b.Write(field)
}

// Sum returns the 32-byte digest of everything written so far.
func (b *Builder) Sum() [32]byte {
	var out [32]byte
	b.h.Sum(out[:0])
	return out
}
