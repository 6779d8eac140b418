package curves

import (
	"crypto/rand"
	"errors"
	"math/big"

	"filippo.io/edwards25519"
)

var errNotCanonical = errors.New("curves: scalar encoding is not canonical")
var errLowOrderPoint = errors.New("curves: point is not in the prime-order subgroup")

// Ed25519Curve implements Curve over filippo.io/edwards25519.
type Ed25519Curve struct{}

// NewEd25519 returns the Ed25519 curve.
func NewEd25519() Curve {
	return &Ed25519Curve{}
}

func (c *Ed25519Curve) Name() string { return "Ed25519" }

// Order is l = 2^252 + 27742317777372353535851937790883648493, the order of
// the Ed25519 base point's subgroup.
func (c *Ed25519Curve) Order() *big.Int {
	l, _ := new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)
	return l
}

func (c *Ed25519Curve) NewScalar() (Scalar, error) {
	var wide [64]byte
	if _, err := rand.Read(wide[:]); err != nil {
		return nil, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return nil, err
	}
	return &ed25519Scalar{s: s}, nil
}

func (c *Ed25519Curve) ScalarFromCanonicalBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, errNotCanonical
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, errNotCanonical
	}
	return &ed25519Scalar{s: s}, nil
}

// ScalarFromWideBytes reduces b modulo the group order by treating it as a
// little-endian integer zero-padded to 64 bytes. This is the standard
// hash-to-scalar technique for Ed25519: SetUniformBytes reduces a 512-bit
// little-endian integer mod l, and zero-extending the high half leaves the
// represented value (and hence the reduction) unchanged.
func (c *Ed25519Curve) ScalarFromWideBytes(b []byte) Scalar {
	var wide [64]byte
	copy(wide[:], b)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only fails on wrong input length, which cannot
		// happen here since wide is always 64 bytes.
		panic(err)
	}
	return &ed25519Scalar{s: s}
}

func (c *Ed25519Curve) PointFromBytes(b []byte) (Point, error) {
	if len(b) != 32 {
		return nil, errors.New("curves: point encoding must be 32 bytes")
	}
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, err
	}
	if !inPrimeOrderSubgroup(p) {
		return nil, errLowOrderPoint
	}
	return &ed25519Point{p: p}, nil
}

func (c *Ed25519Curve) BasePoint() Point {
	return &ed25519Point{p: edwards25519.NewGeneratorPoint()}
}

// inPrimeOrderSubgroup rejects the eight points of order dividing 8 (and any
// point with a nonzero torsion component). The full group has order 8*l; a
// point lies in the prime-order subgroup of order l iff l*p is the identity.
// Since gcd(l, 8) = 1, a torsion component survives that multiplication, so
// this check catches both the degenerate low-order points and points mixing
// a torsion component with the l-order part. The identity (order 1) passes
// that multiplication, so it is rejected explicitly first. l is applied via
// plain double-and-add on the curve group (not through Scalar, whose
// arithmetic is mod l and would make this check vacuous).
func inPrimeOrderSubgroup(p *edwards25519.Point) bool {
	identity := edwards25519.NewIdentityPoint()
	if constantTimeEqual(p.Bytes(), identity.Bytes()) {
		return false
	}
	order := (&Ed25519Curve{}).Order()
	acc := edwards25519.NewIdentityPoint()
	base := edwards25519.NewIdentityPoint().Set(p)
	for i := order.BitLen() - 1; i >= 0; i-- {
		acc = edwards25519.NewIdentityPoint().Add(acc, acc)
		if order.Bit(i) == 1 {
			acc = edwards25519.NewIdentityPoint().Add(acc, base)
		}
	}
	return constantTimeEqual(acc.Bytes(), identity.Bytes())
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

type ed25519Scalar struct {
	s *edwards25519.Scalar
}

func (s *ed25519Scalar) Bytes() []byte { return s.s.Bytes() }

func (s *ed25519Scalar) BigInt() *big.Int {
	b := s.s.Bytes()
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

func (s *ed25519Scalar) Add(other Scalar) Scalar {
	o := other.(*ed25519Scalar)
	return &ed25519Scalar{s: edwards25519.NewScalar().Add(s.s, o.s)}
}

func (s *ed25519Scalar) Mul(other Scalar) Scalar {
	o := other.(*ed25519Scalar)
	return &ed25519Scalar{s: edwards25519.NewScalar().Multiply(s.s, o.s)}
}

func (s *ed25519Scalar) Invert() Scalar {
	return &ed25519Scalar{s: edwards25519.NewScalar().Invert(s.s)}
}

func (s *ed25519Scalar) Equal(other Scalar) bool {
	o, ok := other.(*ed25519Scalar)
	if !ok {
		return false
	}
	return constantTimeEqual(s.s.Bytes(), o.s.Bytes())
}

type ed25519Point struct {
	p *edwards25519.Point
}

func (p *ed25519Point) Bytes() []byte { return p.p.Bytes() }

func (p *ed25519Point) Add(other Point) Point {
	o := other.(*ed25519Point)
	return &ed25519Point{p: edwards25519.NewIdentityPoint().Add(p.p, o.p)}
}

func (p *ed25519Point) ScalarMult(scalar Scalar) Point {
	s := scalar.(*ed25519Scalar)
	return &ed25519Point{p: edwards25519.NewIdentityPoint().ScalarMult(s.s, p.p)}
}

func (p *ed25519Point) Equal(other Point) bool {
	o, ok := other.(*ed25519Point)
	if !ok {
		return false
	}
	return constantTimeEqual(p.p.Bytes(), o.p.Bytes())
}
