// Package curves provides the scalar and point arithmetic this library needs
// over the Ed25519 prime-order subgroup: basepoint multiplication, point
// compression/decompression, and uniform scalar draws.
package curves

import "math/big"

// Scalar is an element of Z_q, where q is the order of the Ed25519 base
// point's subgroup.
type Scalar interface {
	// Bytes returns the canonical little-endian encoding.
	Bytes() []byte

	// BigInt returns the scalar as a big-endian big.Int.
	BigInt() *big.Int

	Add(s Scalar) Scalar
	Mul(s Scalar) Scalar
	Invert() Scalar

	// Equal reports whether two scalars represent the same value mod q.
	Equal(s Scalar) bool
}

// Point is a point on the Ed25519 curve. Bytes yields its 32-byte
// compressed encoding.
type Point interface {
	// Bytes returns the 32-byte compressed encoding.
	Bytes() []byte

	Add(p Point) Point
	ScalarMult(s Scalar) Point
	Equal(p Point) bool
}

// Curve is the set of operations the Schnorr core needs from a curve. There
// is exactly one implementation (Ed25519Curve); the interface exists so the
// proof and protocol packages never import filippo.io/edwards25519 directly.
type Curve interface {
	Name() string

	// NewScalar draws a uniformly random scalar.
	NewScalar() (Scalar, error)

	// ScalarFromCanonicalBytes decodes a 32-byte little-endian scalar
	// encoding, rejecting any value that is not strictly less than the
	// group order (a non-canonical encoding).
	ScalarFromCanonicalBytes(b []byte) (Scalar, error)

	// ScalarFromWideBytes reduces a little-endian byte string of up to 64
	// bytes modulo the group order; bytes past the 64th are ignored. Used
	// for challenges derived from a hash, which are not required to
	// already be canonical.
	ScalarFromWideBytes(b []byte) Scalar

	// PointFromBytes decodes a 32-byte compressed Edwards point, rejecting
	// malformed encodings and points outside the prime-order subgroup.
	PointFromBytes(b []byte) (Point, error)

	BasePoint() Point
	Order() *big.Int
}
