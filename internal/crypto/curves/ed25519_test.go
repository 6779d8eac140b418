package curves

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scalarFromUint64(t *testing.T, curve Curve, v uint64) Scalar {
	t.Helper()
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	s, err := curve.ScalarFromCanonicalBytes(b[:])
	assert.NoError(t, err)
	return s
}

func TestEd25519Scalar(t *testing.T) {
	curve := NewEd25519()

	s1, err := curve.NewScalar()
	assert.NoError(t, err)
	assert.NotNil(t, s1)

	s2 := scalarFromUint64(t, curve, 12345)
	assert.Equal(t, big.NewInt(12345), s2.BigInt())

	s3 := s2.Add(s2)
	assert.Equal(t, big.NewInt(24690), s3.BigInt())

	s4 := s2.Mul(s2)
	expected := new(big.Int).Mul(big.NewInt(12345), big.NewInt(12345))
	assert.Equal(t, expected, s4.BigInt())

	s5 := s2.Invert()
	s6 := s5.Mul(s2)
	assert.Equal(t, big.NewInt(1), s6.BigInt())
}

func TestEd25519ScalarCanonicalityRejected(t *testing.T) {
	curve := NewEd25519()

	// The group order itself is not a canonical scalar encoding (it must be
	// strictly less than the order).
	orderBytes := curve.Order().Bytes()
	var le [32]byte
	for i, v := range orderBytes {
		le[len(orderBytes)-1-i] = v
	}
	_, err := curve.ScalarFromCanonicalBytes(le[:])
	assert.Error(t, err)
}

func TestEd25519Point(t *testing.T) {
	curve := NewEd25519()

	g := curve.BasePoint()
	assert.NotNil(t, g)

	two := scalarFromUint64(t, curve, 2)
	p2 := g.ScalarMult(two)

	p3 := g.Add(g)
	assert.Equal(t, p2.Bytes(), p3.Bytes())
	assert.True(t, p2.Equal(p3))

	raw := p2.Bytes()
	p4, err := curve.PointFromBytes(raw)
	assert.NoError(t, err)
	assert.Equal(t, p2.Bytes(), p4.Bytes())
}

func TestEd25519PointRejectsLowOrder(t *testing.T) {
	curve := NewEd25519()

	// The identity point (0100...00) has order 1 and must be rejected: it
	// lies outside the prime-order subgroup this protocol requires.
	identity := make([]byte, 32)
	identity[0] = 1
	_, err := curve.PointFromBytes(identity)
	assert.Error(t, err)
}

func TestEd25519PointRejectsMalformed(t *testing.T) {
	curve := NewEd25519()

	garbage := make([]byte, 32)
	for i := range garbage {
		garbage[i] = 0xff
	}
	_, err := curve.PointFromBytes(garbage)
	assert.Error(t, err)
}
